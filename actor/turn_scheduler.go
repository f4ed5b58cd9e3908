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
	"errors"
	"fmt"
	"runtime"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/internal/workerpool"
	"github.com/tochemey/silo/log"
)

// turnScheduler runs the work items of the activations on the host worker pool.
// A non-reentrant activation runs one item at a time in FIFO order. A reentrant
// activation runs up to its max in-flight items concurrently.
type turnScheduler struct {
	host       *host
	workerPool *workerpool.WorkerPool
	clock      clock.Clock
	logger     log.Logger
}

func newTurnScheduler(h *host) *turnScheduler {
	return &turnScheduler{
		host:       h,
		workerPool: h.workerPool,
		clock:      h.clock,
		logger:     h.logger.Named("scheduler"),
	}
}

// submit enqueues item. Items queued before the activation turns Valid start once it does.
// It returns errDeactivating when the activation no longer accepts work.
func (s *turnScheduler) submit(a *activation, item *workItem) error {
	a.mu.Lock()
	switch a.status {
	case statusCreated, statusActivating:
		a.queue = append(a.queue, item)
		a.mu.Unlock()
		return nil
	case statusValid:
		a.queue = append(a.queue, item)
		next := s.startableLocked(a)
		a.mu.Unlock()
		s.launch(a, next)
		return nil
	default:
		a.mu.Unlock()
		return errDeactivating
	}
}

// start runs the work queued while the activation was activating
func (s *turnScheduler) start(a *activation) {
	a.mu.Lock()
	next := s.startableLocked(a)
	a.mu.Unlock()
	s.launch(a, next)
}

// startableLocked dequeues the items allowed to start now and counts them as executing.
// A Deactivating activation keeps draining its queue.
func (s *turnScheduler) startableLocked(a *activation) []*workItem {
	if a.status != statusValid && a.status != statusDeactivating {
		return nil
	}

	count := len(a.queue)
	if limit := a.kind.maxInFlight(); limit > 0 {
		count = min(count, limit-a.executing)
	}

	if count <= 0 {
		return nil
	}

	items := make([]*workItem, count)
	copy(items, a.queue[:count])
	clear(a.queue[:count])
	a.queue = a.queue[count:]
	a.executing += count
	return items
}

func (s *turnScheduler) launch(a *activation, items []*workItem) {
	for _, item := range items {
		if err := s.workerPool.SubmitWork(func() { s.runLoop(a, item) }); err != nil {
			go s.runLoop(a, item)
		}
	}
}

// runLoop executes item then keeps draining the activation lane on the same goroutine.
// The executing count drops before the caller is completed.
func (s *turnScheduler) runLoop(a *activation, item *workItem) {
	for item != nil {
		value, err := s.execute(a, item)
		s.touch(a)

		a.mu.Lock()
		a.executing--
		next := s.startableLocked(a)
		a.notifyIdleLocked()
		a.mu.Unlock()

		item.promise.Complete(value, err)
		if len(next) == 0 {
			return
		}

		item = next[0]
		s.launch(a, next[1:])
	}
}

func (s *turnScheduler) touch(a *activation) {
	a.touch(s.clock.Now())
	s.host.collector.touch(a)
}

// execute runs one turn. A failed turn yields a TurnFault.
func (s *turnScheduler) execute(a *activation, item *workItem) (any, error) {
	s.touch(a)

	receiveContext := newReceiveContext(item.ctx, item.message, item.sender, a, s.host)
	value, err := s.invoke(a, receiveContext)
	if err == nil {
		return value, nil
	}

	var turnFault *gerrors.TurnFault
	if !errors.As(err, &turnFault) {
		err = gerrors.NewTurnFault(err)
	}

	s.host.metric.TurnsFaulted().Add(context.Background(), 1, s.host.kindAttributes(a.kind.name))
	s.logger.Errorf("turn on %s failed: %v", a.identity.String(), err)

	if errors.Is(err, gerrors.ErrFatalTurn) {
		s.logger.Warnf("fatal turn on %s, deactivating activation %s", a.identity.String(), a.id)
		go s.host.deactivateActivation(context.Background(), a)
	}
	return nil, err
}

// invoke calls Receive and turns a panic into an error
func (s *turnScheduler) invoke(a *activation, receiveContext *ReceiveContext) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var cause error
			switch x := r.(type) {
			case error:
				cause = x
			default:
				cause = fmt.Errorf("%#v", r)
			}

			if s.logger.Enabled(log.DebugLevel) {
				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]
				s.logger.Debugf("panic on %s: %s", a.identity.String(), stack)
			}
			value, err = nil, gerrors.NewPanicError(cause)
		}
	}()
	return a.actor.Receive(receiveContext)
}
