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

package storage

import (
	"context"
	"errors"

	"github.com/tochemey/silo/identity"
)

var (
	// ErrStateNotFound is returned by Load when no state was ever saved for the identity
	ErrStateNotFound = errors.New("state not found")
	// ErrStateConflict is returned by Save when the stored version moved since the state was loaded
	ErrStateConflict = errors.New("state version conflict")
	// ErrProviderClosed is returned when the provider is used after Close
	ErrProviderClosed = errors.New("storage provider is closed")
)

// State is the persisted state of an actor.
// Version is zero until the first successful Save.
type State struct {
	Data    []byte
	Version uint64
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	data := make([]byte, len(s.Data))
	copy(data, s.Data)
	return &State{Data: data, Version: s.Version}
}

// Provider persists actor states keyed by identity.
//
// Save is a compare-and-set: it succeeds when state.Version equals the stored version
// (zero when nothing is stored) and then bumps state.Version in place.
type Provider interface {
	Load(ctx context.Context, id *identity.Identity) (*State, error)
	Save(ctx context.Context, id *identity.Identity, state *State) error
	Delete(ctx context.Context, id *identity.Identity) error
	Close() error
}
