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
	"sync"
	"time"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/internal/clock"
)

// Memory is an in-process Directory. Hosts sharing a Memory instance behave like
// a cluster sharing a directory service, which makes it the backend of choice in tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*Entry
	clock   clock.Clock
}

var (
	_ Directory  = (*Memory)(nil)
	_ HostPurger = (*Memory)(nil)
)

// MemoryOption configures the Memory directory
type MemoryOption func(*Memory)

// WithMemoryClock sets the clock used to expire tombstones
func WithMemoryClock(c clock.Clock) MemoryOption {
	return func(m *Memory) {
		m.clock = c
	}
}

// NewMemory creates an empty Memory directory
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*Entry),
		clock:   clock.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register implements Directory
func (m *Memory) Register(_ context.Context, id *identity.Identity, activationID identity.ActivationID, host string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.String()
	if current, ok := m.live(key); ok && !current.Matches(activationID) {
		winner := *current
		return &winner, gerrors.ErrDuplicateActivation
	}

	entry := &Entry{Identity: id, ActivationID: activationID, Host: host}
	m.entries[key] = entry
	out := *entry
	return &out, nil
}

// Lookup implements Directory. Tombstones are returned until they expire.
func (m *Memory) Lookup(_ context.Context, id *identity.Identity) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.get(id.String())
	if !ok {
		return nil, ErrEntryNotFound
	}
	out := *entry
	return &out, nil
}

// Deregister implements Directory
func (m *Memory) Deregister(_ context.Context, id *identity.Identity, activationID identity.ActivationID, grace time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.String()
	entry, ok := m.get(key)
	if !ok || !entry.Matches(activationID) {
		return nil
	}

	if grace <= 0 {
		delete(m.entries, key)
		return nil
	}

	if !entry.IsTombstone() {
		tombstone := *entry
		tombstone.TombstoneExpiry = m.clock.Now().Add(grace)
		m.entries[key] = &tombstone
	}
	return nil
}

// PurgeHost implements HostPurger
func (m *Memory) PurgeHost(_ context.Context, host string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for key, entry := range m.entries {
		if entry.Host == host {
			delete(m.entries, key)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of entries, tombstones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		m.get(key)
	}
	return len(m.entries)
}

// Close implements Directory
func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]*Entry)
	m.mu.Unlock()
	return nil
}

// get returns the entry for key, dropping it when its tombstone expired.
// The caller holds the lock.
func (m *Memory) get(key string) (*Entry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if entry.IsTombstone() && !m.clock.Now().Before(entry.TombstoneExpiry) {
		delete(m.entries, key)
		return nil, false
	}
	return entry, true
}

// live returns the non tombstone entry for key. The caller holds the lock.
func (m *Memory) live(key string) (*Entry, bool) {
	entry, ok := m.get(key)
	if !ok || entry.IsTombstone() {
		return nil, false
	}
	return entry, true
}
