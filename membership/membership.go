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

// Status is the liveness of a host as seen by the membership
type Status int

const (
	// Alive means the host takes part in the cluster
	Alive Status = iota
	// Dead means the host left or was declared failed
	Dead
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Event notifies a host status change
type Event struct {
	Host   string
	Status Status
}

// Provider is the membership oracle consumed by the host runtime.
// Host names are the transport addresses of the hosts.
type Provider interface {
	// IsHostAlive reports whether the host is currently considered alive
	IsHostAlive(host string) bool
	// OnHostStatusChanged registers a listener called on every status change.
	// Listeners must not block.
	OnHostStatusChanged(listener func(Event))
	// Members returns the alive hosts
	Members() []string
}
