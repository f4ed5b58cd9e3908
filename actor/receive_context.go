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
	"github.com/tochemey/silo/log"
)

// ReceiveContext carries the message of a turn and the operations
// available to an actor while it processes it.
//
// Example usage:
//
//	func (a *Account) Receive(ctx *actor.ReceiveContext) (any, error) {
//	    switch msg := ctx.Message().(type) {
//	    case *Deposit:
//	        a.balance += msg.Amount
//	        return a.balance, nil
//	    default:
//	        return nil, fmt.Errorf("unhandled message %T", msg)
//	    }
//	}
type ReceiveContext struct {
	ctx        context.Context
	message    any
	sender     string
	activation *activation
	host       *host
}

func newReceiveContext(ctx context.Context, message any, sender string, a *activation, h *host) *ReceiveContext {
	return &ReceiveContext{
		ctx:        ctx,
		message:    message,
		sender:     sender,
		activation: a,
		host:       h,
	}
}

// Context returns the context of the turn.
// It carries the values of the context the message was submitted with.
func (x *ReceiveContext) Context() context.Context {
	return x.ctx
}

// Message returns the message processed by the turn
func (x *ReceiveContext) Message() any {
	return x.message
}

// Sender returns the address of the host that sent the message
func (x *ReceiveContext) Sender() string {
	return x.sender
}

// Identity returns the identity of the actor
func (x *ReceiveContext) Identity() *identity.Identity {
	return x.activation.identity
}

// ActivationID returns the id of the running activation
func (x *ReceiveContext) ActivationID() identity.ActivationID {
	return x.activation.id
}

// Host returns the host running the activation
func (x *ReceiveContext) Host() Host {
	return x.host
}

// Logger returns the host logger
func (x *ReceiveContext) Logger() log.Logger {
	return x.host.logger
}

// State returns the persisted state handle of the activation
func (x *ReceiveContext) State() *State {
	return x.activation.state
}

// WriteState saves the state now when it changed.
// Without a storage provider it is a no-op.
func (x *ReceiveContext) WriteState(ctx context.Context) error {
	return x.host.writeState(ctx, x.activation)
}

// DeactivateOnIdle asks for the deactivation of the activation once the current turn
// and the queued work are done. It does not wait.
func (x *ReceiveContext) DeactivateOnIdle() {
	a := x.activation
	go func() {
		if err := x.host.deactivateActivation(context.Background(), a); err != nil {
			x.host.logger.Warnf("deactivate on idle of %s failed: %v", a.identity.String(), err)
		}
	}()
}

// Pin keeps the activation busy until the returned function is called.
// Use it to protect asynchronous continuations started by the turn from collection.
func (x *ReceiveContext) Pin() (unpin func()) {
	return x.activation.pin()
}

// Send sends message to the actor id and waits for its reply
func (x *ReceiveContext) Send(ctx context.Context, id *identity.Identity, message any) (any, error) {
	return x.host.Send(ctx, id, message)
}
