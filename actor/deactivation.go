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

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/errorschain"
)

// beginDeactivation moves the activation to Deactivating and starts the deactivation
// when this call wins the transition. An activation still activating is waited for first.
func (h *host) beginDeactivation(ctx context.Context, a *activation) error {
	for {
		if a.beginDeactivation() {
			h.collector.unregister(a.id)
			go h.runDeactivation(a)
			return nil
		}

		switch a.getStatus() {
		case statusCreated, statusActivating:
			if err := wait(ctx, a.activated); err != nil {
				return err
			}
		case statusValid:
			// became Valid in the meantime
		default:
			return nil
		}
	}
}

// deactivateActivation deactivates a and waits for the end of the deactivation.
// Concurrent callers share the same deactivation: the hook runs once.
func (h *host) deactivateActivation(ctx context.Context, a *activation) error {
	if err := h.beginDeactivation(ctx, a); err != nil {
		return err
	}

	if err := wait(ctx, a.done); err != nil {
		return err
	}
	return a.deactivationErr
}

// runDeactivation waits for the activation to drain then deregisters it, runs
// OnDeactivate and writes the dirty state back. The activation leaves the catalog
// whatever the outcome.
func (h *host) runDeactivation(a *activation) {
	<-a.drained

	ctx, cancel := context.WithTimeout(context.Background(), h.deactivationTimeout)
	defer cancel()

	h.logger.Debugf("deactivating %s (%s)...", a.identity.String(), a.id)

	chain := errorschain.New(errorschain.ReturnAll())
	if !a.unregistered.Load() {
		chain.AddError(h.dirClient.Deregister(ctx, a.identity, a.id, h.deregistrationGrace))
	}

	props := newProps(a, h, h.logger)
	chain.
		AddErrorFn(func() error {
			return safeCall(func() error { return a.actor.OnDeactivate(ctx, props) })
		}).
		AddErrorFn(func() error { return h.writeState(ctx, a) })

	for _, item := range a.invalidate() {
		item.promise.Failure(gerrors.NewErrNonExistentActivation(a.identity.String()))
	}

	h.catalog.remove(a)
	h.collector.unregister(a.id)

	if err := chain.Error(); err != nil {
		a.deactivationErr = gerrors.NewErrDeactivationFailure(err)
		h.logger.Errorf("failed to cleanly deactivate %s (%s): %v", a.identity.String(), a.id, err)
	} else {
		h.logger.Debugf("%s (%s) deactivated", a.identity.String(), a.id)
	}

	close(a.done)
}

// writeState saves the state of a when it changed since it was loaded or last written
func (h *host) writeState(ctx context.Context, a *activation) error {
	if h.storage == nil {
		return nil
	}

	snapshot, dirty, generation := a.state.snapshot()
	if !dirty {
		return nil
	}

	if err := h.storage.Save(ctx, a.identity, snapshot); err != nil {
		return err
	}

	a.state.written(snapshot.Version, generation)
	return nil
}
