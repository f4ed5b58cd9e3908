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
	"fmt"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/storage"
)

// maxRegisterAttempts bounds the registrations retried after a stale winner was evicted
const maxRegisterAttempts = 3

// startActivation moves a created activation to Activating and activates it on the worker pool
func (h *host) startActivation(a *activation) {
	a.mu.Lock()
	a.status = statusActivating
	a.mu.Unlock()

	if err := h.workerPool.SubmitWork(func() { h.activate(a) }); err != nil {
		go h.activate(a)
	}
}

// activate registers the activation, loads its state and runs OnActivate.
// Work queued in the meantime starts once the activation is Valid.
func (h *host) activate(a *activation) {
	ctx, cancel := context.WithTimeout(context.Background(), h.activationTimeout)
	defer cancel()

	h.logger.Debugf("activating %s (%s)...", a.identity.String(), a.id)

	if a.kind.statelessWorker {
		a.unregistered.Store(true)
	} else if err := h.register(ctx, a); err != nil {
		if errors.Is(err, errDuplicate) {
			h.logger.Debugf("activation %s of %s lost its registration race", a.id, a.identity.String())
			h.abortActivation(a, newErrLostRace(a.identity.String()))
			return
		}
		h.failActivation(a, err)
		return
	}

	if h.storage != nil {
		loaded, err := h.storage.Load(ctx, a.identity)
		switch {
		case err == nil:
			a.state = newState(loaded)
		case errors.Is(err, storage.ErrStateNotFound):
		default:
			h.failActivation(a, err)
			return
		}
	}

	props := newProps(a, h, h.logger)
	retrier := retry.NewRetrier(h.activationRetries, time.Millisecond, h.activationTimeout)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return safeCall(func() error { return a.actor.OnActivate(ctx, props) })
	}); err != nil {
		h.failActivation(a, err)
		return
	}

	a.mu.Lock()
	a.status = statusValid
	a.mu.Unlock()
	close(a.activated)

	h.metric.ActivationsCreated().Add(context.Background(), 1, h.kindAttributes(a.kind.name))
	h.collector.register(a)
	h.scheduler.start(a)
	h.logger.Debugf("%s (%s) activated", a.identity.String(), a.id)
}

// register writes the directory entry of the activation.
// A winner hosted by a dead host, or a winner that this host does not know, is evicted
// and the registration retried. It returns errDuplicate when a live activation won.
func (h *host) register(ctx context.Context, a *activation) error {
	for range maxRegisterAttempts {
		winner, err := h.dirClient.Register(ctx, a.identity, a.id, h.address)
		if err == nil {
			return nil
		}

		if !errors.Is(err, gerrors.ErrDuplicateActivation) || winner == nil {
			return err
		}

		if !h.isStale(winner) {
			return errDuplicate
		}

		h.logger.Warnf("evicting stale directory entry of %s on host=%s", a.identity.String(), winner.Host)
		if err := h.dirClient.Deregister(ctx, a.identity, winner.ActivationID, 0); err != nil {
			return err
		}
	}
	return errDuplicate
}

// isStale reports whether the entry names an activation that can no longer serve messages
func (h *host) isStale(entry *directory.Entry) bool {
	if entry.Host == h.address {
		_, ok := h.catalog.byID(entry.ActivationID)
		return !ok
	}
	return !h.membership.IsHostAlive(entry.Host)
}

// failActivation discards an activation whose activation failed
func (h *host) failActivation(a *activation, cause error) {
	err := gerrors.NewErrActivationFailure(cause)
	h.logger.Errorf("failed to activate %s (%s): %v", a.identity.String(), a.id, cause)
	h.metric.ActivationsFailed().Add(context.Background(), 1, h.kindAttributes(a.kind.name))

	if !a.unregistered.Load() {
		ctx, cancel := context.WithTimeout(context.Background(), h.deactivationTimeout)
		if derr := h.dirClient.Deregister(ctx, a.identity, a.id, 0); derr != nil {
			h.logger.Warnf("failed to deregister %s (%s): %v", a.identity.String(), a.id, derr)
		}
		cancel()
	}

	h.abortActivation(a, err)
}

// abortActivation invalidates an activation that never became Valid and fails its queued work with err
func (h *host) abortActivation(a *activation, err error) {
	for _, item := range a.invalidate() {
		item.promise.Failure(err)
	}

	h.catalog.remove(a)
	h.collector.unregister(a.id)
	close(a.activated)
	close(a.done)
}

// safeCall runs a lifecycle hook and turns a panic into an error
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case error:
				err = gerrors.NewPanicError(x)
			default:
				err = gerrors.NewPanicError(fmt.Errorf("%#v", r))
			}
		}
	}()
	return fn()
}
