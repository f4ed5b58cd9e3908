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

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
)

// resolve returns the activation serving id, creating a local one on a miss.
// The returned activation is nil when the reference is remote.
func (h *host) resolve(ctx context.Context, id *identity.Identity) (*ActivationRef, *activation, error) {
	if err := id.Validate(); err != nil {
		return nil, nil, gerrors.NewErrInvalidIdentity(err)
	}

	kind, ok := h.kinds.Get(id.Kind())
	if !ok {
		return nil, nil, gerrors.NewErrKindNotRegistered(id.Kind())
	}

	create := func() *activation {
		return newActivation(id, kind, h.clock.Now())
	}

	if kind.statelessWorker {
		a, created := h.catalog.pickWorker(id, kind.maxLocalWorkers, create)
		if created {
			h.startActivation(a)
		}
		return localRef(a, h.address), a, nil
	}

	if a, ok := h.catalog.lookup(id); ok {
		return localRef(a, h.address), a, nil
	}

	entry, err := h.dirClient.Lookup(ctx, id)
	switch {
	case err == nil:
		if ref := h.placement(ctx, id, entry); ref != nil {
			return ref, nil, nil
		}
	case errors.Is(err, directory.ErrEntryNotFound):
	default:
		return nil, nil, err
	}

	a, created := h.catalog.getOrCreate(id, create)
	if created {
		h.startActivation(a)
	}
	return localRef(a, h.address), a, nil
}

// placement returns the remote reference named by entry, or nil when the
// activation must be created locally
func (h *host) placement(ctx context.Context, id *identity.Identity, entry *directory.Entry) *ActivationRef {
	if entry.IsTombstone() {
		return nil
	}

	if entry.Host != h.address {
		if h.membership.IsHostAlive(entry.Host) {
			return remoteRef(id, entry.ActivationID, entry.Host)
		}
		h.dirClient.Invalidate(id, entry.ActivationID)
		return nil
	}

	// the directory names this host for an activation it no longer runs
	h.cleanStaleEntry(ctx, id, entry.ActivationID)
	return nil
}

// cleanStaleEntry deregisters the directory entry of an activation this host does not run.
// With lazy deregistration the entry turns into a tombstone for the grace window.
func (h *host) cleanStaleEntry(ctx context.Context, id *identity.Identity, activationID identity.ActivationID) {
	if _, ok := h.catalog.byID(activationID); ok {
		return
	}

	if err := h.dirClient.Deregister(ctx, id, activationID, h.deregistrationGrace); err != nil {
		h.logger.Warnf("failed to clean the stale directory entry of %s (%s): %v", id.String(), activationID, err)
		return
	}
	h.logger.Debugf("stale directory entry of %s (%s) cleaned", id.String(), activationID)
}
