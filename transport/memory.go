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

package transport

import (
	"context"
	"fmt"
	"sync"

	gerrors "github.com/tochemey/silo/errors"
)

// Network is an in-process network connecting memory transports.
// Messages are passed by reference.
type Network struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	down     map[string]struct{}
}

// NewNetwork creates an empty Network
func NewNetwork() *Network {
	return &Network{
		handlers: make(map[string]Handler),
		down:     make(map[string]struct{}),
	}
}

// Transport creates a transport bound to address
func (n *Network) Transport(address string) *Memory {
	return &Memory{network: n, address: address}
}

// Disconnect makes address unreachable until Reconnect is called
func (n *Network) Disconnect(address string) {
	n.mu.Lock()
	n.down[address] = struct{}{}
	n.mu.Unlock()
}

// Reconnect reverts Disconnect
func (n *Network) Reconnect(address string) {
	n.mu.Lock()
	delete(n.down, address)
	n.mu.Unlock()
}

func (n *Network) handler(address string) (Handler, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if _, down := n.down[address]; down {
		return nil, false
	}
	handler, ok := n.handlers[address]
	return handler, ok
}

// Memory is a Transport attached to a Network
type Memory struct {
	network *Network
	address string
}

var _ Transport = (*Memory)(nil)

// Address implements Transport
func (m *Memory) Address() string {
	return m.address
}

// Listen implements Transport
func (m *Memory) Listen(handler Handler) error {
	m.network.mu.Lock()
	defer m.network.mu.Unlock()
	if _, ok := m.network.handlers[m.address]; ok {
		return fmt.Errorf("transport: address %s already in use", m.address)
	}
	m.network.handlers[m.address] = handler
	return nil
}

// Send implements Transport
func (m *Memory) Send(ctx context.Context, host string, envelope *Envelope) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handler, ok := m.network.handler(host)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrHostUnreachable, host)
	}

	copied := *envelope
	return handler(ctx, &copied)
}

// Close implements Transport
func (m *Memory) Close() error {
	m.network.mu.Lock()
	delete(m.network.handlers, m.address)
	m.network.mu.Unlock()
	return nil
}
