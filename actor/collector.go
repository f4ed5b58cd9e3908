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
	cheaps "container/heap"
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/log"
)

const collectionJobKey = "silo-collection"

// collector reclaims idle activations.
//
// Activations are grouped in buckets by ticket, the collection quantum at which they
// become eligible: ticket = ceil((lastActive + ageLimit) / quantum). Every activity
// moves the activation to its new bucket. A tick pops the due buckets only, so its cost
// follows the number of activations that reached their deadline.
type collector struct {
	host    *host
	quantum time.Duration
	clock   clock.Clock
	logger  log.Logger

	mu      sync.Mutex
	buckets map[int64]mapset.Set[identity.ActivationID]
	tickets map[identity.ActivationID]int64
	// due holds the ticket of every bucket, smallest first. A ticket whose
	// bucket emptied stays until popped.
	due ticketHeap

	quartzScheduler quartz.Scheduler
	started         atomic.Bool
}

func newCollector(h *host) *collector {
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	return &collector{
		host:            h,
		quantum:         h.collectionQuantum,
		clock:           h.clock,
		logger:          h.logger.Named("collector"),
		buckets:         make(map[int64]mapset.Set[identity.ActivationID]),
		tickets:         make(map[identity.ActivationID]int64),
		quartzScheduler: quartzScheduler,
	}
}

// start schedules the periodic collection tick
func (c *collector) start(ctx context.Context) error {
	c.quartzScheduler.Start(context.WithoutCancel(ctx))
	c.started.Store(c.quartzScheduler.IsStarted())

	tick := job.NewFunctionJob[int](func(ctx context.Context) (int, error) {
		return c.tick(ctx), nil
	})

	detail := quartz.NewJobDetail(tick, quartz.NewJobKey(collectionJobKey))
	return c.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(c.quantum))
}

// stop cancels the periodic tick and waits for a running one
func (c *collector) stop(ctx context.Context) {
	if !c.started.Load() {
		return
	}

	_ = c.quartzScheduler.Clear()
	c.quartzScheduler.Stop()
	c.quartzScheduler.Wait(ctx)
	c.started.Store(c.quartzScheduler.IsStarted())
}

// register buckets a collectible activation from its last-active timestamp
func (c *collector) register(a *activation) {
	if !a.kind.isCollectible() {
		return
	}

	ticket := c.ticketOf(a)
	c.mu.Lock()
	c.placeLocked(a.id, ticket)
	c.mu.Unlock()
}

// touch moves a bucketed activation to the bucket of its new deadline
func (c *collector) touch(a *activation) {
	if !a.kind.isCollectible() {
		return
	}

	ticket := c.ticketOf(a)
	c.mu.Lock()
	if _, ok := c.tickets[a.id]; ok {
		c.placeLocked(a.id, ticket)
	}
	c.mu.Unlock()
}

// unregister drops the activation from its bucket
func (c *collector) unregister(id identity.ActivationID) {
	c.mu.Lock()
	c.removeLocked(id)
	c.mu.Unlock()
}

// bucketCount returns the number of non empty buckets
func (c *collector) bucketCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

// size returns the number of bucketed activations
func (c *collector) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickets)
}

// tick collects the activations of every due bucket and returns how many were collected.
// Busy or recently touched activations go back to a bucket computed from their timestamp.
func (c *collector) tick(ctx context.Context) int {
	now := c.clock.Now()
	current := now.UnixNano() / c.quantum.Nanoseconds()

	c.mu.Lock()
	candidates := make([]identity.ActivationID, 0)
	for c.due.Len() > 0 && c.due[0] <= current {
		ticket := cheaps.Pop(&c.due).(int64)
		bucket, ok := c.buckets[ticket]
		if !ok {
			continue
		}

		for _, id := range bucket.ToSlice() {
			candidates = append(candidates, id)
			delete(c.tickets, id)
		}
		delete(c.buckets, ticket)
	}
	c.mu.Unlock()

	if len(candidates) == 0 {
		return 0
	}

	victims := make([]*activation, 0, len(candidates))
	for _, id := range candidates {
		a, ok := c.host.catalog.byID(id)
		if !ok {
			continue
		}

		if a.idleFor(now) < a.kind.ageLimit() || !a.tryIdle() {
			c.register(a)
			continue
		}
		victims = append(victims, a)
	}

	collected, _ := c.collect(ctx, victims)
	c.record(ctx, now, collected)
	return collected
}

// forceCollection collects every bucketed activation idle for at least threshold,
// whatever the age limit of its kind.
func (c *collector) forceCollection(ctx context.Context, threshold time.Duration) (int, error) {
	now := c.clock.Now()

	c.mu.Lock()
	ids := make([]identity.ActivationID, 0, len(c.tickets))
	for id := range c.tickets {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	victims := make([]*activation, 0)
	for _, id := range ids {
		a, ok := c.host.catalog.byID(id)
		if !ok || a.idleFor(now) < threshold {
			continue
		}

		if a.tryIdle() {
			c.unregister(id)
			victims = append(victims, a)
		}
	}

	collected, err := c.collect(ctx, victims)
	c.record(ctx, now, collected)
	return collected, err
}

// collect runs the deactivation of the victims concurrently.
// The deactivations keep running when ctx is done; only the wait is abandoned.
func (c *collector) collect(ctx context.Context, victims []*activation) (int, error) {
	if len(victims) == 0 {
		return 0, nil
	}

	var (
		collected atomic.Int64
		eg        errgroup.Group
		done      = make(chan struct{})
	)

	for _, a := range victims {
		eg.Go(func() error {
			c.host.runDeactivation(a)
			collected.Inc()
			return nil
		})
	}

	go func() {
		_ = eg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return int(collected.Load()), nil
	case <-ctx.Done():
		return int(collected.Load()), ctx.Err()
	}
}

func (c *collector) record(ctx context.Context, start time.Time, collected int) {
	if collected == 0 {
		return
	}

	c.logger.Infof("collected %d idle activation(s)", collected)
	c.host.metric.ActivationsCollected().Add(context.WithoutCancel(ctx), int64(collected))
	c.host.metric.CollectionDuration().Record(context.WithoutCancel(ctx), c.clock.Now().Sub(start).Seconds())
}

func (c *collector) ticketOf(a *activation) int64 {
	quantum := c.quantum.Nanoseconds()
	deadline := a.lastActive.Load() + a.kind.ageLimit().Nanoseconds()
	return (deadline + quantum - 1) / quantum
}

func (c *collector) placeLocked(id identity.ActivationID, ticket int64) {
	if current, ok := c.tickets[id]; ok {
		if current == ticket {
			return
		}
		c.removeLocked(id)
	}

	bucket, ok := c.buckets[ticket]
	if !ok {
		bucket = mapset.NewThreadUnsafeSet[identity.ActivationID]()
		c.buckets[ticket] = bucket
		cheaps.Push(&c.due, ticket)
	}
	bucket.Add(id)
	c.tickets[id] = ticket
}

func (c *collector) removeLocked(id identity.ActivationID) {
	ticket, ok := c.tickets[id]
	if !ok {
		return
	}

	delete(c.tickets, id)
	if bucket, ok := c.buckets[ticket]; ok {
		bucket.Remove(id)
		if bucket.Cardinality() == 0 {
			delete(c.buckets, ticket)
		}
	}
}

// ticketHeap is a min-heap of bucket tickets
type ticketHeap []int64

func (h ticketHeap) Len() int           { return len(h) }
func (h ticketHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h ticketHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *ticketHeap) Push(x any) {
	*h = append(*h, x.(int64))
}

func (h *ticketHeap) Pop() any {
	old := *h
	n := len(old)
	ticket := old[n-1]
	*h = old[:n-1]
	return ticket
}
