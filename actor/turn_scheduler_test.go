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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/future"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/reentrancy"
)

func TestTurnScheduler(t *testing.T) {
	t.Run("With non-reentrant activation runs turns in FIFO order", func(t *testing.T) {
		h := newTestHost(t, "fifo")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("fifo", p.factory()))

		id := identity.New("fifo", "1")
		ref, err := h.Resolve(t.Context(), id)
		require.NoError(t, err)

		const count = 200
		futures := make([]future.Future, 0, count)
		for i := range count {
			fut, err := h.Submit(t.Context(), ref, i)
			require.NoError(t, err)
			futures = append(futures, fut)
		}

		for i, fut := range futures {
			reply, err := fut.Await(t.Context())
			require.NoError(t, err)
			assert.Equal(t, i+1, reply)
		}

		a, ok := h.catalog.lookup(id)
		require.True(t, ok)
		actor := a.actor.(*testActor)
		expected := make([]int, count)
		for i := range expected {
			expected[i] = i
		}
		assert.Equal(t, expected, actor.order)
		assert.EqualValues(t, 1, p.maxInFlight.Load())
	})
	t.Run("With non-reentrant activation a blocked turn holds the queue", func(t *testing.T) {
		h := newTestHost(t, "blocking")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("blocking", p.factory()))

		ref, err := h.Resolve(t.Context(), identity.New("blocking", "1"))
		require.NoError(t, err)

		started := make(chan struct{}, 1)
		release := make(chan struct{})
		blocked, err := h.Submit(t.Context(), ref, &block{started: started, release: release})
		require.NoError(t, err)
		<-started

		queued, err := h.Submit(t.Context(), ref, new(ping))
		require.NoError(t, err)

		select {
		case <-queued.Done():
			t.Fatal("queued turn ran while the previous one was blocked")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		_, err = blocked.Await(t.Context())
		require.NoError(t, err)
		reply, err := queued.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, reply.(*pong).count)
	})
	t.Run("With reentrant activation runs turns concurrently", func(t *testing.T) {
		h := newTestHost(t, "reentrant")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("reentrant", p.factory(),
			WithReentrancy(reentrancy.New(reentrancy.WithMode(reentrancy.AllowAll)))))

		ref, err := h.Resolve(t.Context(), identity.New("reentrant", "1"))
		require.NoError(t, err)

		const count = 5
		started := make(chan struct{}, count)
		release := make(chan struct{})
		futures := make([]future.Future, 0, count)
		for range count {
			fut, err := h.Submit(t.Context(), ref, &block{started: started, release: release})
			require.NoError(t, err)
			futures = append(futures, fut)
		}

		for range count {
			<-started
		}
		assert.EqualValues(t, count, p.inFlight.Load())

		close(release)
		for _, fut := range futures {
			_, err := fut.Await(t.Context())
			require.NoError(t, err)
		}
	})
	t.Run("With reentrant activation honors the max in-flight", func(t *testing.T) {
		h := newTestHost(t, "capped")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("capped", p.factory(),
			WithReentrancy(reentrancy.New(reentrancy.WithMode(reentrancy.AllowAll), reentrancy.WithMaxInFlight(2)))))

		ref, err := h.Resolve(t.Context(), identity.New("capped", "1"))
		require.NoError(t, err)

		started := make(chan struct{}, 10)
		release := make(chan struct{})
		futures := make([]future.Future, 0, 6)
		for range 6 {
			fut, err := h.Submit(t.Context(), ref, &block{started: started, release: release})
			require.NoError(t, err)
			futures = append(futures, fut)
		}

		<-started
		<-started
		select {
		case <-started:
			t.Fatal("more turns than the max in-flight started")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		for _, fut := range futures {
			_, err := fut.Await(t.Context())
			require.NoError(t, err)
		}
		assert.EqualValues(t, 2, p.maxInFlight.Load())
	})
	t.Run("With a failing turn only that turn fails", func(t *testing.T) {
		h := newTestHost(t, "faults")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("faults", p.factory()))

		id := identity.New("faults", "1")
		first := sendPing(t, h, id)

		cause := errors.New("invalid amount")
		_, err := h.Send(t.Context(), id, &fail{err: cause})
		require.Error(t, err)
		var turnFault *gerrors.TurnFault
		require.ErrorAs(t, err, &turnFault)
		assert.ErrorIs(t, err, cause)

		second := sendPing(t, h, id)
		assert.Equal(t, first.activationID, second.activationID)
		assert.Equal(t, 2, second.count)
	})
	t.Run("With a panicking turn the host keeps running", func(t *testing.T) {
		h := newTestHost(t, "panics")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("panics", p.factory()))

		id := identity.New("panics", "1")
		first := sendPing(t, h, id)

		_, err := h.Send(t.Context(), id, new(boom))
		require.Error(t, err)
		var turnFault *gerrors.TurnFault
		var panicErr *gerrors.PanicError
		require.ErrorAs(t, err, &turnFault)
		require.ErrorAs(t, err, &panicErr)

		second := sendPing(t, h, id)
		assert.Equal(t, first.activationID, second.activationID)
	})
	t.Run("With a fatal turn the activation is deactivated", func(t *testing.T) {
		h := newTestHost(t, "fatal")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("fatal", p.factory()))

		id := identity.New("fatal", "1")
		first := sendPing(t, h, id)

		_, err := h.Send(t.Context(), id, &fail{err: fmt.Errorf("corrupted balance: %w", gerrors.ErrFatalTurn)})
		require.ErrorIs(t, err, gerrors.ErrFatalTurn)

		require.Eventually(t, func() bool { return h.ActivationCount("fatal") == 0 }, time.Second, 10*time.Millisecond)
		assert.EqualValues(t, 1, p.deactivations.Load())

		second := sendPing(t, h, id)
		assert.NotEqual(t, first.activationID, second.activationID)
		assert.Equal(t, 1, second.count)
	})
	t.Run("With a stale reference Submit fails", func(t *testing.T) {
		h := newTestHost(t, "stale")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("stale", p.factory()))

		id := identity.New("stale", "1")
		ref, err := h.Resolve(t.Context(), id)
		require.NoError(t, err)
		require.NoError(t, h.Deactivate(t.Context(), id))

		_, err = h.Submit(t.Context(), ref, new(ping))
		require.ErrorIs(t, err, gerrors.ErrNonExistentActivation)
	})
}
