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

package transport

import (
	"context"
	"errors"

	gerrors "github.com/tochemey/silo/errors"
)

// Envelope carries a message between hosts together with its routing metadata.
// ActivationID is empty when the sender does not know the target activation yet.
type Envelope struct {
	Kind         string
	Key          string
	ActivationID string
	Sender       string
	ForwardCount int
	Message      any
}

// Handler processes an inbound envelope and returns the turn reply
type Handler func(ctx context.Context, envelope *Envelope) (any, error)

// Transport moves envelopes between hosts using request/reply semantics.
// Send returns errors.ErrHostUnreachable when no host listens at the address.
type Transport interface {
	// Address returns the address other hosts use to reach this transport
	Address() string
	// Listen starts delivering inbound envelopes to handler
	Listen(handler Handler) error
	// Send delivers envelope to host and waits for the reply
	Send(ctx context.Context, host string, envelope *Envelope) (any, error)
	// Close stops listening and releases resources
	Close() error
}

// Code classifies a remote failure so the sender can rebuild the error taxonomy
type Code uint8

const (
	CodeNone Code = iota
	CodeNonExistentActivation
	CodeTurnFault
	CodeActivationFailure
	CodeInternal
	CodeKindNotRegistered
	CodeHostUnreachable
)

// CodeOf returns the Code matching err. A turn fault keeps its code whatever it wraps.
func CodeOf(err error) Code {
	var turnFault *gerrors.TurnFault
	switch {
	case err == nil:
		return CodeNone
	case errors.As(err, &turnFault):
		return CodeTurnFault
	case errors.Is(err, gerrors.ErrNonExistentActivation):
		return CodeNonExistentActivation
	case errors.Is(err, gerrors.ErrActivationFailure):
		return CodeActivationFailure
	case errors.Is(err, gerrors.ErrKindNotRegistered):
		return CodeKindNotRegistered
	case errors.Is(err, gerrors.ErrHostUnreachable):
		return CodeHostUnreachable
	default:
		return CodeInternal
	}
}

// ErrorOf rebuilds a remote failure from its code and message
func ErrorOf(code Code, message string) error {
	cause := errors.New(message)
	switch code {
	case CodeNone:
		return nil
	case CodeNonExistentActivation:
		return errors.Join(gerrors.ErrNonExistentActivation, cause)
	case CodeTurnFault:
		return gerrors.NewTurnFault(cause)
	case CodeActivationFailure:
		return gerrors.NewErrActivationFailure(cause)
	case CodeKindNotRegistered:
		return errors.Join(gerrors.ErrKindNotRegistered, cause)
	case CodeHostUnreachable:
		return errors.Join(gerrors.ErrHostUnreachable, cause)
	default:
		return gerrors.NewInternalError(cause)
	}
}
