// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package reentrancy

import (
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
)

// Mode determines whether the activations of a kind run their turns one at a time.
//
// Modes:
//   - Off runs turns strictly one after the other in arrival order.
//   - AllowAll starts every turn as soon as it arrives; turns interleave freely
//     and no ordering is guaranteed.
type Mode int

const (
	// Off serializes turns.
	Off Mode = iota
	// AllowAll lets turns run concurrently.
	AllowAll
)

// Option configures reentrancy behavior.
type Option func(*Reentrancy)

// WithMaxInFlight caps the number of turns a reentrant activation runs at once.
// Turns above the cap wait in the activation queue. A value <= 0 disables the cap.
func WithMaxInFlight(maxInFlight int) Option {
	return func(r *Reentrancy) {
		if maxInFlight <= 0 {
			r.maxInFlight = 0
			return
		}
		r.maxInFlight = maxInFlight
	}
}

// WithMode sets the reentrancy mode.
func WithMode(mode Mode) Option {
	return func(r *Reentrancy) {
		r.mode = mode
	}
}

// Reentrancy is fixed per actor kind at registration time.
type Reentrancy struct {
	mode        Mode
	maxInFlight int
}

var _ validation.Validator = (*Reentrancy)(nil)

// New creates a Reentrancy. The default mode is Off.
func New(opts ...Option) *Reentrancy {
	r := &Reentrancy{mode: Off}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the reentrancy mode.
func (r *Reentrancy) Mode() Mode {
	return r.mode
}

// MaxInFlight returns the concurrent turn cap, zero when unbounded.
func (r *Reentrancy) MaxInFlight() int {
	return r.maxInFlight
}

// IsReentrant reports whether turns may run concurrently
func (r *Reentrancy) IsReentrant() bool {
	return r != nil && r.mode == AllowAll
}

// Validate validates the Reentrancy configuration.
func (r *Reentrancy) Validate() error {
	if !IsValidReentrancyMode(r.mode) {
		return gerrors.ErrInvalidReentrancyMode
	}
	return nil
}

// IsValidReentrancyMode guards against unknown enum values.
func IsValidReentrancyMode(mode Mode) bool {
	switch mode {
	case Off, AllowAll:
		return true
	default:
		return false
	}
}
