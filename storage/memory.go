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

package storage

import (
	"context"
	"sync"

	"github.com/tochemey/silo/identity"
)

// Memory keeps states in process
type Memory struct {
	mu     sync.RWMutex
	states map[string]*State
	closed bool
}

var _ Provider = (*Memory)(nil)

// NewMemory creates an empty Memory provider
func NewMemory() *Memory {
	return &Memory{states: make(map[string]*State)}
}

// Load implements Provider
func (m *Memory) Load(ctx context.Context, id *identity.Identity) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrProviderClosed
	}

	state, ok := m.states[id.String()]
	if !ok {
		return nil, ErrStateNotFound
	}
	return state.Clone(), nil
}

// Save implements Provider
func (m *Memory) Save(ctx context.Context, id *identity.Identity, state *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrProviderClosed
	}

	key := id.String()
	var stored uint64
	if current, ok := m.states[key]; ok {
		stored = current.Version
	}

	if state.Version != stored {
		return ErrStateConflict
	}

	state.Version = stored + 1
	m.states[key] = state.Clone()
	return nil
}

// Delete implements Provider
func (m *Memory) Delete(ctx context.Context, id *identity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrProviderClosed
	}
	delete(m.states, id.String())
	return nil
}

// Close implements Provider
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.states = make(map[string]*State)
	m.mu.Unlock()
	return nil
}
