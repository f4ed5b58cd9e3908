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

package directory

import (
	"context"
	"errors"
	"time"

	"github.com/tochemey/silo/identity"
)

// ErrEntryNotFound is returned by Lookup when no entry exists for the identity
var ErrEntryNotFound = errors.New("directory entry not found")

// Entry maps an actor identity to the host running its activation.
type Entry struct {
	Identity     *identity.Identity
	ActivationID identity.ActivationID
	Host         string
	// TombstoneExpiry is set once the activation was deregistered with a grace window.
	// The entry disappears after that instant.
	TombstoneExpiry time.Time
}

// IsTombstone reports whether the entry only survives for the deregistration grace window
func (e *Entry) IsTombstone() bool {
	return e != nil && !e.TombstoneExpiry.IsZero()
}

// Matches reports whether the entry points at the given activation
func (e *Entry) Matches(activationID identity.ActivationID) bool {
	return e != nil && e.ActivationID == activationID
}

// Directory is the cluster wide actor location service.
//
// Register stores a live entry when the identity has no live entry, or when the live
// entry already names activationID. Tombstones never block a registration.
// On conflict Register returns the winning entry together with errors.ErrDuplicateActivation.
//
// Deregister removes the entry only when it still names activationID. With a positive
// grace the entry becomes a tombstone until the grace expires.
type Directory interface {
	Register(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, host string) (*Entry, error)
	Lookup(ctx context.Context, id *identity.Identity) (*Entry, error)
	Deregister(ctx context.Context, id *identity.Identity, activationID identity.ActivationID, grace time.Duration) error
	Close() error
}

// HostPurger is implemented by directories able to drop every entry owned by a host.
// The host runtime uses it when membership reports a host as dead.
type HostPurger interface {
	PurgeHost(ctx context.Context, host string) (int, error)
}
