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

package workerpool

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrPoolNotRunning is returned when a task is submitted before Start or after Stop
var ErrPoolNotRunning = errors.New("worker pool is not running")

const defaultIdleLifetime = 5 * time.Second

type worker struct {
	tasks    chan func()
	lastUsed time.Time
}

// WorkerPool runs tasks on reusable goroutines. Idle workers are parked and
// handed the next task; a new worker is spawned only when none is idle.
type WorkerPool struct {
	mu           sync.Mutex
	idle         []*worker
	backlog      []func()
	running      bool
	stopSig      chan struct{}
	wg           sync.WaitGroup
	idleLifetime time.Duration
	maxWorkers   int
	spawned      *atomic.Int64
}

// New creates a WorkerPool. Call Start before submitting work.
func New(opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		idleLifetime: defaultIdleLifetime,
		spawned:      atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt.Apply(pool)
	}
	return pool
}

// Start starts the pool and its idle worker reaper
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.running {
		return
	}
	wp.running = true
	wp.stopSig = make(chan struct{})
	wp.wg.Add(1)
	go wp.reap(wp.stopSig)
}

// Stop refuses new tasks, releases the idle workers and waits for the busy
// ones to return from their current task. Queued tasks are dropped.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	close(wp.stopSig)
	for _, w := range wp.idle {
		close(w.tasks)
	}
	wp.idle = nil
	wp.backlog = nil
	wp.mu.Unlock()
	wp.wg.Wait()
}

// SubmitWork runs task on a worker
func (wp *WorkerPool) SubmitWork(task func()) error {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return ErrPoolNotRunning
	}

	if n := len(wp.idle); n > 0 {
		w := wp.idle[n-1]
		wp.idle[n-1] = nil
		wp.idle = wp.idle[:n-1]
		wp.mu.Unlock()
		w.tasks <- task
		return nil
	}

	if wp.maxWorkers > 0 && int(wp.spawned.Load()) >= wp.maxWorkers {
		wp.backlog = append(wp.backlog, task)
		wp.mu.Unlock()
		return nil
	}

	w := &worker{tasks: make(chan func(), 1)}
	wp.spawned.Inc()
	wp.wg.Add(1)
	wp.mu.Unlock()

	w.tasks <- task
	go wp.run(w)
	return nil
}

// Workers returns the number of live workers
func (wp *WorkerPool) Workers() int {
	return int(wp.spawned.Load())
}

func (wp *WorkerPool) run(w *worker) {
	defer func() {
		wp.spawned.Dec()
		wp.wg.Done()
	}()

	for task := range w.tasks {
		task()
		for {
			next, ok := wp.park(w)
			if !ok {
				return
			}
			if next == nil {
				break
			}
			next()
		}
	}
}

// park takes the next backlog task or parks the worker as idle.
// It returns false when the pool is stopped.
func (wp *WorkerPool) park(w *worker) (func(), bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if !wp.running {
		return nil, false
	}
	if len(wp.backlog) > 0 {
		next := wp.backlog[0]
		wp.backlog[0] = nil
		wp.backlog = wp.backlog[1:]
		return next, true
	}
	w.lastUsed = time.Now()
	wp.idle = append(wp.idle, w)
	return nil, true
}

func (wp *WorkerPool) reap(stop <-chan struct{}) {
	defer wp.wg.Done()
	ticker := time.NewTicker(wp.idleLifetime)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			wp.mu.Lock()
			// idle is ordered by lastUsed, oldest first
			cut := 0
			for cut < len(wp.idle) && now.Sub(wp.idle[cut].lastUsed) >= wp.idleLifetime {
				close(wp.idle[cut].tasks)
				cut++
			}
			wp.idle = append(wp.idle[:0], wp.idle[cut:]...)
			wp.mu.Unlock()
		}
	}
}
