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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/log"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type ping struct{}

type pong struct {
	count        int
	activationID identity.ActivationID
	host         string
}

type block struct {
	started chan<- struct{}
	release <-chan struct{}
}

type fail struct {
	err error
}

type boom struct{}

type deactivateOnIdle struct{}

type setState struct {
	data []byte
}

type getState struct{}

type pinFor struct {
	release <-chan struct{}
}

// monitor observes the lifecycle of the test actors of one kind
type monitor struct {
	activations   atomic.Int64
	deactivations atomic.Int64
	inFlight      atomic.Int64
	maxInFlight   atomic.Int64

	activateErr   error
	activateGate  chan struct{}
	deactivateErr error
	// closed by the first OnDeactivate when set
	deactivateStarted chan struct{}
	deactivateGate    chan struct{}
}

func newMonitor() *monitor {
	return &monitor{}
}

type testActor struct {
	monitor *monitor
	count   int
	order   []int
}

var _ Actor = (*testActor)(nil)

func (x *testActor) OnActivate(ctx context.Context, _ *Props) error {
	x.monitor.activations.Inc()
	if x.monitor.activateGate != nil {
		select {
		case <-x.monitor.activateGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return x.monitor.activateErr
}

func (x *testActor) Receive(ctx *ReceiveContext) (any, error) {
	inFlight := x.monitor.inFlight.Inc()
	defer x.monitor.inFlight.Dec()
	for {
		current := x.monitor.maxInFlight.Load()
		if inFlight <= current || x.monitor.maxInFlight.CompareAndSwap(current, inFlight) {
			break
		}
	}

	switch msg := ctx.Message().(type) {
	case *ping:
		x.count++
		return &pong{count: x.count, activationID: ctx.ActivationID(), host: ctx.Host().Address()}, nil
	case int:
		x.order = append(x.order, msg)
		return len(x.order), nil
	case *block:
		if msg.started != nil {
			msg.started <- struct{}{}
		}
		<-msg.release
		return ctx.ActivationID(), nil
	case *fail:
		return nil, msg.err
	case *boom:
		panic("boom")
	case *deactivateOnIdle:
		ctx.DeactivateOnIdle()
		return nil, nil
	case *setState:
		ctx.State().Set(msg.data)
		return nil, nil
	case *getState:
		return ctx.State().Get(), nil
	case *pinFor:
		unpin := ctx.Pin()
		go func() {
			<-msg.release
			unpin()
		}()
		return nil, nil
	default:
		return nil, errors.New("unhandled message")
	}
}

func (x *testActor) OnDeactivate(_ context.Context, _ *Props) error {
	if x.monitor.deactivations.Inc() == 1 && x.monitor.deactivateStarted != nil {
		close(x.monitor.deactivateStarted)
	}
	if x.monitor.deactivateGate != nil {
		<-x.monitor.deactivateGate
	}
	return x.monitor.deactivateErr
}

func (p *monitor) factory() Factory {
	return func(*identity.Identity) Actor {
		return &testActor{monitor: p}
	}
}

// newTestHost creates and starts a host that logs nothing
func newTestHost(t *testing.T, name string, opts ...Option) *host {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	h, err := NewHost(name, opts...)
	require.NoError(t, err)
	require.NoError(t, h.Start(t.Context()))
	t.Cleanup(func() {
		_ = h.Stop(context.Background())
	})
	return h.(*host)
}

// newCollectionHost creates a host on a fake clock with a one second quantum
func newCollectionHost(t *testing.T, opts ...Option) (*host, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	opts = append([]Option{
		WithClock(fake),
		WithCollectionQuantum(time.Second),
		WithDefaultAgeLimit(10 * time.Second),
	}, opts...)
	return newTestHost(t, "collection-host", opts...), fake
}

func sendPing(t *testing.T, h Host, id *identity.Identity) *pong {
	t.Helper()
	reply, err := h.Send(t.Context(), id, new(ping))
	require.NoError(t, err)
	require.IsType(t, new(pong), reply)
	return reply.(*pong)
}
