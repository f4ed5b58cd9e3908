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
	"math"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/internal/shardedmap"
	"github.com/tochemey/silo/internal/xsync"
)

// workerGroup holds the local activations of a stateless worker identity in creation order
type workerGroup struct {
	mu      sync.Mutex
	workers []*activation
	// set once the group left the catalog
	dead bool
}

// catalog owns the activations of the host.
// An activation is reachable from the catalog until it turns Invalid.
type catalog struct {
	// single activation kinds keyed by identity
	activations *shardedmap.Map[*activation]
	// stateless worker groups keyed by identity
	workers *shardedmap.Map[*workerGroup]
	// every activation keyed by activation id
	index  *shardedmap.Map[*activation]
	counts *xsync.Map[string, *atomic.Int64]
}

func newCatalog() *catalog {
	return &catalog{
		activations: shardedmap.New[*activation](),
		workers:     shardedmap.New[*workerGroup](),
		index:       shardedmap.New[*activation](),
		counts:      xsync.NewMap[string, *atomic.Int64](),
	}
}

// lookup returns the activation of a single activation identity
func (c *catalog) lookup(id *identity.Identity) (*activation, bool) {
	a, ok := c.activations.Load(id.String())
	if !ok || a.getStatus() == statusInvalid {
		return nil, false
	}
	return a, true
}

// byID returns the activation with the given id
func (c *catalog) byID(id identity.ActivationID) (*activation, bool) {
	return c.index.Load(id.String())
}

// getOrCreate returns the activation of id, creating it with create on a miss.
// The boolean reports whether the activation was created.
func (c *catalog) getOrCreate(id *identity.Identity, create func() *activation) (*activation, bool) {
	key := id.String()
	for {
		a, loaded := c.activations.LoadOrCompute(key, create)
		if !loaded {
			c.add(a)
			return a, true
		}

		if a.getStatus() != statusInvalid {
			return a, false
		}

		// an Invalid activation is about to leave the catalog
		c.activations.DeleteFunc(key, func(current *activation) bool { return current == a })
	}
}

// pickWorker returns the stateless worker to run the next message of id.
// The first idle worker in creation order wins. A new worker is created when every
// worker is busy and the group is below maxWorkers, otherwise the least loaded one is used.
func (c *catalog) pickWorker(id *identity.Identity, maxWorkers int, create func() *activation) (*activation, bool) {
	key := id.String()
	for {
		group, _ := c.workers.LoadOrCompute(key, func() *workerGroup { return new(workerGroup) })

		group.mu.Lock()
		if group.dead {
			group.mu.Unlock()
			c.workers.DeleteFunc(key, func(current *workerGroup) bool { return current == group })
			continue
		}

		var (
			leastLoaded *activation
			minLoad     = math.MaxInt
			accepting   int
		)

		for _, worker := range group.workers {
			load, ok := worker.load()
			if !ok {
				continue
			}

			accepting++
			if load == 0 {
				group.mu.Unlock()
				return worker, false
			}

			if load < minLoad {
				minLoad = load
				leastLoaded = worker
			}
		}

		if accepting < maxWorkers || leastLoaded == nil {
			worker := create()
			group.workers = append(group.workers, worker)
			group.mu.Unlock()
			c.add(worker)
			return worker, true
		}

		group.mu.Unlock()
		return leastLoaded, false
	}
}

// localWorkers returns the stateless workers of id in creation order
func (c *catalog) localWorkers(id *identity.Identity) []*activation {
	group, ok := c.workers.Load(id.String())
	if !ok {
		return nil
	}

	group.mu.Lock()
	defer group.mu.Unlock()
	workers := make([]*activation, len(group.workers))
	copy(workers, group.workers)
	return workers
}

// remove drops the activation from the catalog. Only the first call has an effect.
func (c *catalog) remove(a *activation) bool {
	if !a.removed.CompareAndSwap(false, true) {
		return false
	}

	key := a.identity.String()
	if a.kind.statelessWorker {
		if group, ok := c.workers.Load(key); ok {
			group.mu.Lock()
			for i, worker := range group.workers {
				if worker == a {
					group.workers = append(group.workers[:i:i], group.workers[i+1:]...)
					break
				}
			}

			if len(group.workers) == 0 {
				group.dead = true
				c.workers.DeleteFunc(key, func(current *workerGroup) bool { return current == group })
			}
			group.mu.Unlock()
		}
	} else {
		c.activations.DeleteFunc(key, func(current *activation) bool { return current == a })
	}

	c.index.DeleteFunc(a.id.String(), func(current *activation) bool { return current == a })
	c.counter(a.kind.name).Dec()
	return true
}

// all returns every activation of the catalog
func (c *catalog) all() []*activation {
	activations := make([]*activation, 0, c.index.Len())
	c.index.Range(func(_ string, a *activation) bool {
		activations = append(activations, a)
		return true
	})
	return activations
}

// count returns the number of activations of kind
func (c *catalog) count(kind string) int {
	counter, ok := c.counts.Get(kind)
	if !ok {
		return 0
	}
	return int(counter.Load())
}

// countsByKind returns the number of activations per kind
func (c *catalog) countsByKind() map[string]int64 {
	counts := make(map[string]int64, c.counts.Len())
	c.counts.Range(func(kind string, counter *atomic.Int64) {
		counts[kind] = counter.Load()
	})
	return counts
}

// total returns the number of activations
func (c *catalog) total() int {
	return c.index.Len()
}

func (c *catalog) add(a *activation) {
	c.index.Store(a.id.String(), a)
	c.counter(a.kind.name).Inc()
}

func (c *catalog) counter(kind string) *atomic.Int64 {
	counter, _ := c.counts.GetOrSet(kind, atomic.NewInt64(0))
	return counter
}
