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
	"errors"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/transport"
)

// dispatch delivers the envelope to the activation of id and waits for the reply.
// A message that misses its activation is resolved again and forwarded at most
// maxForwardCount times. Forwards only happen on the sending host.
func (h *host) dispatch(ctx context.Context, id *identity.Identity, envelope *transport.Envelope) (any, error) {
	for {
		ref, a, err := h.resolve(ctx, id)
		if err != nil {
			return nil, err
		}

		envelope.ActivationID = ref.activationID.String()

		var reply any
		if a != nil {
			reply, err = h.deliverLocal(ctx, a, envelope)
		} else {
			reply, err = h.deliverRemote(ctx, ref, envelope)
		}

		switch {
		case err == nil:
			return reply, nil
		case errors.Is(err, errDuplicate):
			// the registration race has a winner now: no forward consumed
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		case errors.Is(err, errDeactivating), errors.Is(err, errRetryLookup):
			if err := h.forward(ctx, ref, envelope, a); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}
}

// forward records one more forward of envelope after it missed ref.
// It fails once the envelope reached the maximum forward count.
func (h *host) forward(ctx context.Context, ref *ActivationRef, envelope *transport.Envelope, a *activation) error {
	h.dirClient.Invalidate(ref.identity, ref.activationID)

	if envelope.ForwardCount >= h.maxForwardCount {
		h.logger.Debugf("message to %s dropped after %d forward(s)", ref.String(), envelope.ForwardCount)
		return gerrors.NewErrForwardingExhausted(ref.identity.String(), envelope.ForwardCount)
	}

	// a deactivating local activation leaves the catalog before the next resolution
	if a != nil {
		if err := wait(ctx, a.done); err != nil {
			return err
		}
	}

	envelope.ForwardCount++
	h.forwarded.Inc()
	h.metric.MessagesForwarded().Add(context.WithoutCancel(ctx), 1, h.kindAttributes(ref.identity.Kind()))
	h.logger.Debugf("forwarding message to %s (forward=%d)", ref.identity.String(), envelope.ForwardCount)
	return nil
}

// deliverLocal runs the message on a local activation and waits for the reply
func (h *host) deliverLocal(ctx context.Context, a *activation, envelope *transport.Envelope) (any, error) {
	item := newWorkItem(ctx, envelope.Message, envelope.Sender)
	if err := h.scheduler.submit(a, item); err != nil {
		return nil, err
	}
	return item.promise.Await(ctx)
}

// deliverRemote sends the envelope to the host of ref. A remote miss becomes errRetryLookup.
func (h *host) deliverRemote(ctx context.Context, ref *ActivationRef, envelope *transport.Envelope) (any, error) {
	if h.transport == nil {
		return nil, gerrors.ErrHostUnreachable
	}

	reply, err := h.transport.Send(ctx, ref.host, envelope)
	if err == nil {
		return reply, nil
	}

	var turnFault *gerrors.TurnFault
	switch {
	case errors.As(err, &turnFault):
		return nil, err
	case errors.Is(err, gerrors.ErrNonExistentActivation):
		return nil, errRetryLookup
	case errors.Is(err, gerrors.ErrHostUnreachable):
		// the host is gone or not listening: the entry cannot be trusted
		h.dirClient.Invalidate(ref.identity, ref.activationID)
		return nil, err
	default:
		return nil, err
	}
}

// handleEnvelope serves a message sent by another host. The receiving host never
// forwards: a message for an activation it does not run is answered with
// ErrNonExistentActivation and the sender decides.
func (h *host) handleEnvelope(ctx context.Context, envelope *transport.Envelope) (any, error) {
	if !h.started.Load() {
		return nil, gerrors.ErrHostNotStarted
	}

	id := identity.New(envelope.Kind, envelope.Key)
	if err := id.Validate(); err != nil {
		return nil, gerrors.NewErrInvalidIdentity(err)
	}

	kind, ok := h.kinds.Get(id.Kind())
	if !ok {
		return nil, gerrors.NewErrKindNotRegistered(id.Kind())
	}

	var target *activation
	if kind.statelessWorker {
		_, worker, err := h.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		target = worker
	} else {
		a, ok := h.catalog.lookup(id)
		if !ok || a.id.String() != envelope.ActivationID {
			h.cleanStaleEntry(ctx, id, identity.ActivationID(envelope.ActivationID))
			return nil, gerrors.NewErrNonExistentActivation(id.String())
		}
		target = a
	}

	reply, err := h.deliverLocal(ctx, target, envelope)
	if err != nil && isRetryable(err) {
		return nil, gerrors.NewErrNonExistentActivation(id.String())
	}
	return reply, err
}
