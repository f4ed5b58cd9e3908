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

package shardedmap

import (
	"runtime"
	"sync"

	"github.com/zeebo/xxh3"
)

const maxShards = 64

type shard[V any] struct {
	sync.RWMutex
	m map[string]V
}

// Map is a string keyed concurrent map split into shards picked by xxh3.
// Reads take a shard read lock only; writes serialize per shard.
type Map[V any] struct {
	shards []*shard[V]
}

// New creates a Map sized to the number of CPUs
func New[V any]() *Map[V] {
	count := runtime.NumCPU() * 4
	if count > maxShards {
		count = maxShards
	}

	shards := make([]*shard[V], count)
	for i := range shards {
		shards[i] = &shard[V]{m: make(map[string]V)}
	}
	return &Map[V]{shards: shards}
}

// Load returns the value stored for key
func (x *Map[V]) Load(key string) (V, bool) {
	s := x.shardOf(key)
	s.RLock()
	value, ok := s.m[key]
	s.RUnlock()
	return value, ok
}

// Store sets the value for key
func (x *Map[V]) Store(key string, value V) {
	s := x.shardOf(key)
	s.Lock()
	s.m[key] = value
	s.Unlock()
}

// LoadOrCompute returns the existing value for key. When the key is absent,
// compute is called under the shard lock and its result is stored.
// The boolean reports whether the value was loaded.
func (x *Map[V]) LoadOrCompute(key string, compute func() V) (V, bool) {
	s := x.shardOf(key)
	s.RLock()
	value, ok := s.m[key]
	s.RUnlock()
	if ok {
		return value, true
	}

	s.Lock()
	defer s.Unlock()
	if value, ok = s.m[key]; ok {
		return value, true
	}
	value = compute()
	s.m[key] = value
	return value, false
}

// Delete removes key
func (x *Map[V]) Delete(key string) {
	s := x.shardOf(key)
	s.Lock()
	delete(s.m, key)
	s.Unlock()
}

// DeleteFunc removes key when match returns true for its current value.
func (x *Map[V]) DeleteFunc(key string, match func(V) bool) bool {
	s := x.shardOf(key)
	s.Lock()
	defer s.Unlock()
	value, ok := s.m[key]
	if !ok || !match(value) {
		return false
	}
	delete(s.m, key)
	return true
}

// Range calls f for each entry until f returns false.
// f must not write to the map.
func (x *Map[V]) Range(f func(key string, value V) bool) {
	for _, s := range x.shards {
		s.RLock()
		for k, v := range s.m {
			if !f(k, v) {
				s.RUnlock()
				return
			}
		}
		s.RUnlock()
	}
}

// Len returns the number of entries
func (x *Map[V]) Len() int {
	total := 0
	for _, s := range x.shards {
		s.RLock()
		total += len(s.m)
		s.RUnlock()
	}
	return total
}

// Reset removes every entry
func (x *Map[V]) Reset() {
	for _, s := range x.shards {
		s.Lock()
		s.m = make(map[string]V)
		s.Unlock()
	}
}

func (x *Map[V]) shardOf(key string) *shard[V] {
	return x.shards[xxh3.HashString(key)%uint64(len(x.shards))]
}
