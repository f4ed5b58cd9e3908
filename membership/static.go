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

package membership

import (
	"slices"
	"sync"
)

// Static is a Provider driven by hand. Hosts never marked dead are considered alive.
// It suits single process clusters and tests simulating host failures.
type Static struct {
	mu        sync.RWMutex
	hosts     map[string]Status
	listeners []func(Event)
}

var _ Provider = (*Static)(nil)

// NewStatic creates a Static provider knowing the given alive hosts
func NewStatic(hosts ...string) *Static {
	s := &Static{hosts: make(map[string]Status, len(hosts))}
	for _, host := range hosts {
		s.hosts[host] = Alive
	}
	return s
}

// IsHostAlive implements Provider
func (s *Static) IsHostAlive(host string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.hosts[host]
	return !ok || status == Alive
}

// OnHostStatusChanged implements Provider
func (s *Static) OnHostStatusChanged(listener func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Members implements Provider
func (s *Static) Members() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]string, 0, len(s.hosts))
	for host, status := range s.hosts {
		if status == Alive {
			members = append(members, host)
		}
	}
	slices.Sort(members)
	return members
}

// MarkAlive declares host alive
func (s *Static) MarkAlive(host string) {
	s.set(host, Alive)
}

// MarkDead declares host dead
func (s *Static) MarkDead(host string) {
	s.set(host, Dead)
}

func (s *Static) set(host string, status Status) {
	s.mu.Lock()
	previous, ok := s.hosts[host]
	s.hosts[host] = status
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if ok && previous == status {
		return
	}

	for _, listener := range listeners {
		listener(Event{Host: host, Status: status})
	}
}
