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

package stats

import (
	"fmt"
	"sort"

	"go.uber.org/atomic"

	"github.com/tochemey/silo/internal/xsync"
)

// Fetcher computes the current value of a statistic
type Fetcher func() string

// Statistic is a named value computed on demand.
type Statistic struct {
	name    string
	fetcher Fetcher
}

// Name returns the statistic name
func (s *Statistic) Name() string {
	return s.name
}

// Value calls the fetcher. A fetcher that panics yields an empty value.
func (s *Statistic) Value() (value string) {
	defer func() {
		if r := recover(); r != nil {
			value = ""
		}
	}()
	return s.fetcher()
}

// String returns "name=value"
func (s *Statistic) String() string {
	return fmt.Sprintf("%s=%s", s.name, s.Value())
}

// Registry holds the named statistics of one host.
// A host creates its registry at construction and closes it when it stops;
// nothing is shared between hosts of the same process.
type Registry struct {
	statistics *xsync.Map[string, *Statistic]
	closed     *atomic.Bool
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		statistics: xsync.NewMap[string, *Statistic](),
		closed:     atomic.NewBool(false),
	}
}

// FindOrCreate returns the statistic registered under name, registering fetcher
// when it does not exist yet. It returns nil once the registry is closed.
func (r *Registry) FindOrCreate(name string, fetcher Fetcher) *Statistic {
	if r.closed.Load() {
		return nil
	}
	stat, _ := r.statistics.GetOrSet(name, &Statistic{name: name, fetcher: fetcher})
	return stat
}

// Find returns the statistic registered under name
func (r *Registry) Find(name string) (*Statistic, bool) {
	return r.statistics.Get(name)
}

// Delete removes the statistic registered under name
func (r *Registry) Delete(name string) bool {
	return r.statistics.Delete(name)
}

// Snapshot returns the current value of every statistic
func (r *Registry) Snapshot() map[string]string {
	out := make(map[string]string, r.statistics.Len())
	r.statistics.Range(func(name string, stat *Statistic) {
		out[name] = stat.Value()
	})
	return out
}

// Names returns the sorted statistic names
func (r *Registry) Names() []string {
	names := make([]string, 0, r.statistics.Len())
	r.statistics.Range(func(name string, _ *Statistic) {
		names = append(names, name)
	})
	sort.Strings(names)
	return names
}

// Close drops every statistic. The registry refuses new statistics afterwards.
func (r *Registry) Close() {
	r.closed.Store(true)
	r.statistics.Reset()
}
