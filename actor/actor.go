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

package actor

import (
	"context"

	"github.com/tochemey/silo/identity"
)

// Actor is the behavior of a virtual actor.
//
// An actor always exists logically. The host creates an in-memory activation the
// first time a message is resolved to it and reclaims the activation once it has
// been idle for the age limit of its kind. The next message creates a fresh
// activation under a new ActivationID.
//
// Unless the kind is registered as reentrant, the host never runs two turns of the
// same activation at the same time, so implementations do not need locking.
type Actor interface {
	// OnActivate is called once before the activation runs its first turn.
	// Returning an error discards the activation. Every message queued against it
	// fails with errors.ErrActivationFailure.
	OnActivate(ctx context.Context, props *Props) error

	// Receive runs one turn. The returned value completes the caller's future.
	// A returned error is delivered to that caller only, wrapped in an
	// errors.TurnFault. Wrapping the error with errors.ErrFatalTurn additionally
	// deactivates the activation.
	Receive(ctx *ReceiveContext) (any, error)

	// OnDeactivate is called once, after the last turn, before the activation is discarded.
	OnDeactivate(ctx context.Context, props *Props) error
}

// Factory creates the Actor instance backing a new activation
type Factory func(id *identity.Identity) Actor
