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

package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrActivationFailure is returned when an activation hook failed or timed out.
	// Every work item queued against that activation attempt fails with it.
	ErrActivationFailure = errors.New("activation failed")

	// ErrDeactivationFailure is returned when an activation could not be deactivated cleanly.
	// The activation is discarded anyway.
	ErrDeactivationFailure = errors.New("deactivation failed")

	// ErrNonExistentActivation is returned when a message targets an activation
	// that no longer exists and forwarding is disabled or exhausted.
	ErrNonExistentActivation = errors.New("non-existent activation")

	// ErrDuplicateActivation is returned by a directory when another host already
	// registered an activation for the same actor identity.
	ErrDuplicateActivation = errors.New("duplicate activation")

	// ErrForwardingExhausted is returned when a message reached the maximum forward count.
	// It is always joined with ErrNonExistentActivation.
	ErrForwardingExhausted = errors.New("forwarding exhausted")

	// ErrFatalTurn marks a turn failure that corrupts the activation. Wrapping an error returned
	// by a turn with it forces the activation to deactivate.
	ErrFatalTurn = errors.New("fatal turn failure")

	// ErrInvalidIdentity is returned when an actor identity is malformed.
	ErrInvalidIdentity = errors.New("invalid actor identity")

	// ErrKindNotRegistered is returned when a message targets an actor kind the host does not know.
	ErrKindNotRegistered = errors.New("actor kind is not registered")

	// ErrKindAlreadyRegistered is returned when an actor kind is registered twice.
	ErrKindAlreadyRegistered = errors.New("actor kind is already registered")

	// ErrHostNotStarted is returned when the host is used before Start or after Stop.
	ErrHostNotStarted = errors.New("host is not started")

	// ErrHostAlreadyStarted is returned when Start is called twice.
	ErrHostAlreadyStarted = errors.New("host is already started")

	// ErrHostStopped is returned when Start is called on a stopped host.
	ErrHostStopped = errors.New("host is stopped")

	// ErrInvalidAgeLimit is returned when an age limit is below the minimum enforced by the host.
	ErrInvalidAgeLimit = errors.New("invalid age limit")

	// ErrInvalidReentrancyMode indicates a reentrancy mode is not supported.
	ErrInvalidReentrancyMode = errors.New("invalid reentrancy mode")

	// ErrRemoteActivation is returned when an operation requires a local activation.
	ErrRemoteActivation = errors.New("activation is hosted remotely")

	// ErrHostUnreachable is returned by a transport when the destination host is not reachable.
	ErrHostUnreachable = errors.New("host unreachable")

	// ErrTransportClosed is returned when the transport is used after Close.
	ErrTransportClosed = errors.New("transport is closed")
)

// NewErrActivationFailure wraps the underlying hook error
func NewErrActivationFailure(err error) error {
	return errors.Join(ErrActivationFailure, err)
}

// NewErrDeactivationFailure wraps the underlying hook error
func NewErrDeactivationFailure(err error) error {
	return errors.Join(ErrDeactivationFailure, err)
}

// NewErrNonExistentActivation returns ErrNonExistentActivation for the given target
func NewErrNonExistentActivation(target string) error {
	return errors.Join(ErrNonExistentActivation, fmt.Errorf("target=%s", target))
}

// NewErrForwardingExhausted returns the externally visible failure once the forward count is reached.
func NewErrForwardingExhausted(target string, forwards int) error {
	return errors.Join(ErrNonExistentActivation, ErrForwardingExhausted, fmt.Errorf("target=%s forwards=%d", target, forwards))
}

// NewErrInvalidIdentity wraps the identity validation error
func NewErrInvalidIdentity(err error) error {
	return errors.Join(ErrInvalidIdentity, err)
}

// NewErrKindNotRegistered returns ErrKindNotRegistered for the given kind
func NewErrKindNotRegistered(kind string) error {
	return errors.Join(ErrKindNotRegistered, fmt.Errorf("kind=%s", kind))
}

// NewErrInvalidAgeLimit returns ErrInvalidAgeLimit for the given kind
func NewErrInvalidAgeLimit(kind string, ageLimit, minimum time.Duration) error {
	return errors.Join(ErrInvalidAgeLimit, fmt.Errorf("kind=%s age limit %s is below the minimum of %s", kind, ageLimit, minimum))
}

// TurnFault is returned to the caller of a work item that failed.
// The activation that ran the item stays valid.
type TurnFault struct {
	err error
}

// enforce compilation error
var _ error = (*TurnFault)(nil)

// NewTurnFault creates an instance of TurnFault
func NewTurnFault(err error) *TurnFault {
	return &TurnFault{err: err}
}

// Error implements the standard error interface
func (e *TurnFault) Error() string {
	return fmt.Sprintf("turn fault: %v", e.err)
}

func (e *TurnFault) Unwrap() error {
	return e.err
}

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// InternalError defines an error that is explicit to the application
type InternalError struct {
	err error
}

// enforce compilation error
var _ error = (*InternalError)(nil)

// NewInternalError returns an instance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{
		err: fmt.Errorf("internal error: %w", err),
	}
}

// Error implements the standard error interface
func (i *InternalError) Error() string {
	return i.err.Error()
}

func (i *InternalError) Unwrap() error {
	return i.err
}
