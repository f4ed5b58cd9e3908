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
	"sync"

	"github.com/tochemey/silo/storage"
)

// State is the persisted state handle of an activation.
// Set marks the state dirty; the host writes dirty states back on deactivation.
type State struct {
	mu      sync.RWMutex
	data    []byte
	version uint64
	dirty   bool
	// generation counts the calls to Set
	generation uint64
}

func newState(loaded *storage.State) *State {
	if loaded == nil {
		return &State{}
	}
	return &State{data: loaded.Data, version: loaded.Version}
}

// Get returns the current state bytes
func (s *State) Get() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Set replaces the state bytes and marks the state dirty
func (s *State) Set(data []byte) {
	s.mu.Lock()
	s.data = data
	s.dirty = true
	s.generation++
	s.mu.Unlock()
}

// Version returns the version of the last loaded or written state
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// IsDirty reports whether the state changed since it was last loaded or written
func (s *State) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// snapshot returns the storage form of the state, whether it is dirty and its generation
func (s *State) snapshot() (*storage.State, bool, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &storage.State{Data: s.data, Version: s.version}, s.dirty, s.generation
}

// written records a successful write of the snapshot taken at generation.
// A Set racing with the write keeps the state dirty.
func (s *State) written(version, generation uint64) {
	s.mu.Lock()
	s.version = version
	if s.generation == generation {
		s.dirty = false
	}
	s.mu.Unlock()
}
