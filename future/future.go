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

package future

import (
	"context"
	"sync"
)

// Future is a value that becomes available once a turn completes.
//
// Example:
//
//	fut, err := host.Submit(ctx, ref, &Deposit{Amount: 10})
//	if err != nil {
//	    return err
//	}
//	balance, err := fut.Await(ctx)
type Future interface {
	// Await blocks until the Future is completed or ctx is done.
	// A canceled wait does not consume the result: a later Await still observes it.
	Await(ctx context.Context) (any, error)
	// Done is closed once the result is available.
	Done() <-chan struct{}
	// Result returns the outcome, or nil while the Future is pending.
	Result() *Result
}

// Promise is the write side of a Future. Only the first completion counts.
type Promise struct {
	once   sync.Once
	done   chan struct{}
	result *Result
}

var _ Future = (*Promise)(nil)

// NewPromise creates a pending Promise
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// New runs task on its own goroutine and returns its Future
func New(task func() (any, error)) Future {
	promise := NewPromise()
	go func() {
		promise.Complete(task())
	}()
	return promise
}

// Success completes the Promise with value
func (p *Promise) Success(value any) {
	p.Complete(value, nil)
}

// Failure completes the Promise with err
func (p *Promise) Failure(err error) {
	p.Complete(nil, err)
}

// Complete completes the Promise with either value or err.
// It reports whether this call completed it.
func (p *Promise) Complete(value any, err error) bool {
	completed := false
	p.once.Do(func() {
		if err != nil {
			value = nil
		}
		p.result = &Result{success: value, failure: err}
		close(p.done)
		completed = true
	})
	return completed
}

// Future returns the read side
func (p *Promise) Future() Future {
	return p
}

// Await implements Future
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.result.success, p.result.failure
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done implements Future
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Result implements Future
func (p *Promise) Result() *Result {
	select {
	case <-p.done:
		return p.result
	default:
		return nil
	}
}
