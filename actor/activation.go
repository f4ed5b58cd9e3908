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
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/silo/future"
	"github.com/tochemey/silo/identity"
)

// activationStatus is the lifecycle state of an activation
type activationStatus int

const (
	statusCreated activationStatus = iota
	statusActivating
	statusValid
	statusDeactivating
	statusInvalid
)

func (s activationStatus) String() string {
	switch s {
	case statusCreated:
		return "Created"
	case statusActivating:
		return "Activating"
	case statusValid:
		return "Valid"
	case statusDeactivating:
		return "Deactivating"
	case statusInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// workItem is one message dispatch queued against an activation
type workItem struct {
	ctx     context.Context
	message any
	sender  string
	promise *future.Promise
}

func newWorkItem(ctx context.Context, message any, sender string) *workItem {
	return &workItem{
		ctx:     context.WithoutCancel(ctx),
		message: message,
		sender:  sender,
		promise: future.NewPromise(),
	}
}

// activation is one in-memory instance of an actor on this host.
// Its queue, counters and status are guarded by mu.
type activation struct {
	id       identity.ActivationID
	identity *identity.Identity
	kind     *kindDescriptor
	actor    Actor
	state    *State

	mu        sync.Mutex
	status    activationStatus
	queue     []*workItem
	executing int
	pinned    int

	// unix nanoseconds of the latest turn start or end
	lastActive atomic.Int64
	// set once the activation left the catalog
	removed atomic.Bool
	// set when the directory entry was never written or was dropped on purpose
	unregistered atomic.Bool

	activated     chan struct{}
	drained       chan struct{}
	drainedClosed bool
	done          chan struct{}

	deactivationErr error
}

func newActivation(id *identity.Identity, kind *kindDescriptor, now time.Time) *activation {
	a := &activation{
		id:        identity.NewActivationID(),
		identity:  id,
		kind:      kind,
		actor:     kind.factory(id),
		state:     newState(nil),
		status:    statusCreated,
		activated: make(chan struct{}),
		drained:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	a.lastActive.Store(now.UnixNano())
	return a
}

// touch moves the last-active timestamp forward. It never moves it backward.
func (a *activation) touch(now time.Time) {
	next := now.UnixNano()
	for {
		current := a.lastActive.Load()
		if next <= current || a.lastActive.CompareAndSwap(current, next) {
			return
		}
	}
}

func (a *activation) lastActiveTime() time.Time {
	return time.Unix(0, a.lastActive.Load())
}

func (a *activation) idleFor(now time.Time) time.Duration {
	return now.Sub(a.lastActiveTime())
}

func (a *activation) getStatus() activationStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *activation) isBusyLocked() bool {
	return len(a.queue) > 0 || a.executing > 0 || a.pinned > 0
}

// load returns the amount of work held by the activation and whether it still accepts work
func (a *activation) load() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	accepting := a.status == statusCreated || a.status == statusActivating || a.status == statusValid
	return len(a.queue) + a.executing + a.pinned, accepting
}

// tryIdle moves a Valid, idle and unpinned activation to Deactivating atomically
func (a *activation) tryIdle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != statusValid || a.isBusyLocked() {
		return false
	}
	a.status = statusDeactivating
	a.notifyIdleLocked()
	return true
}

// beginDeactivation moves a Valid activation to Deactivating whatever its load.
// Only the caller that observes true runs the deactivation.
func (a *activation) beginDeactivation() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status != statusValid {
		return false
	}
	a.status = statusDeactivating
	a.notifyIdleLocked()
	return true
}

// notifyIdleLocked closes drained once a deactivating activation has no more work
func (a *activation) notifyIdleLocked() {
	if a.status == statusDeactivating && !a.drainedClosed && !a.isBusyLocked() {
		a.drainedClosed = true
		close(a.drained)
	}
}

// pin keeps the activation busy until the returned function is called
func (a *activation) pin() func() {
	a.mu.Lock()
	a.pinned++
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			a.pinned--
			a.notifyIdleLocked()
			a.mu.Unlock()
		})
	}
}

// invalidate marks the activation Invalid and returns the work it still queues
func (a *activation) invalidate() []*workItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = statusInvalid
	pending := a.queue
	a.queue = nil
	if !a.drainedClosed {
		a.drainedClosed = true
		close(a.drained)
	}
	return pending
}

// wait blocks until ch is closed or ctx is done
func wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
