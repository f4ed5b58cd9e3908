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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/storage"
)

func TestDeactivation(t *testing.T) {
	t.Run("With concurrent explicit deactivations the hook runs once", func(t *testing.T) {
		h := newTestHost(t, "explicit")
		p := newMonitor()
		p.deactivateGate = make(chan struct{})
		require.NoError(t, h.RegisterKind("explicit", p.factory()))

		id := identity.New("explicit", "1")
		sendPing(t, h, id)

		const callers = 10
		var wg sync.WaitGroup
		errs := make(chan error, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- h.Deactivate(context.Background(), id)
			}()
		}

		require.Eventually(t, func() bool { return p.deactivations.Load() == 1 }, time.Second, 5*time.Millisecond)
		close(p.deactivateGate)
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		assert.EqualValues(t, 1, p.deactivations.Load())
		assert.Zero(t, h.ActivationCount("explicit"))
	})
	t.Run("With collector and explicit deactivation racing the hook runs once", func(t *testing.T) {
		h, fake := newCollectionHost(t)
		p := newMonitor()
		p.deactivateStarted = make(chan struct{})
		p.deactivateGate = make(chan struct{})
		require.NoError(t, h.RegisterKind("racing", p.factory()))

		id := identity.New("racing", "1")
		sendPing(t, h, id)
		fake.Advance(time.Minute)

		collected := make(chan int, 1)
		go func() {
			collected <- h.collector.tick(context.Background())
		}()
		<-p.deactivateStarted

		explicit := make(chan error, 1)
		go func() {
			explicit <- h.Deactivate(context.Background(), id)
		}()

		select {
		case <-explicit:
			t.Fatal("explicit deactivation completed before the running one")
		case <-time.After(50 * time.Millisecond):
		}

		close(p.deactivateGate)
		require.NoError(t, <-explicit)
		<-collected
		assert.EqualValues(t, 1, p.deactivations.Load())
		assert.Zero(t, h.ActivationCount("racing"))
	})
	t.Run("With explicit deactivation first the collector skips the activation", func(t *testing.T) {
		h, fake := newCollectionHost(t)
		p := newMonitor()
		p.deactivateStarted = make(chan struct{})
		p.deactivateGate = make(chan struct{})
		require.NoError(t, h.RegisterKind("skipped", p.factory()))

		id := identity.New("skipped", "1")
		sendPing(t, h, id)

		explicit := make(chan error, 1)
		go func() {
			explicit <- h.Deactivate(context.Background(), id)
		}()
		<-p.deactivateStarted

		fake.Advance(time.Minute)
		assert.Zero(t, h.collector.tick(t.Context()))
		collected, err := h.ForceCollection(t.Context(), 0)
		require.NoError(t, err)
		assert.Zero(t, collected)

		close(p.deactivateGate)
		require.NoError(t, <-explicit)
		assert.EqualValues(t, 1, p.deactivations.Load())
	})
	t.Run("With queued work the deactivation drains it first", func(t *testing.T) {
		h := newTestHost(t, "drain")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("drain", p.factory()))

		id := identity.New("drain", "1")
		ref, err := h.Resolve(t.Context(), id)
		require.NoError(t, err)

		started := make(chan struct{}, 1)
		release := make(chan struct{})
		blocked, err := h.Submit(t.Context(), ref, &block{started: started, release: release})
		require.NoError(t, err)
		<-started
		queued, err := h.Submit(t.Context(), ref, new(ping))
		require.NoError(t, err)

		drained, err := h.Quiesce(t.Context(), ref)
		require.NoError(t, err)

		// no new work once quiescing
		_, err = h.Submit(t.Context(), ref, new(ping))
		require.ErrorIs(t, err, gerrors.ErrNonExistentActivation)

		select {
		case <-drained:
			t.Fatal("drained with a running turn")
		case <-time.After(50 * time.Millisecond):
		}
		assert.Zero(t, p.deactivations.Load())

		close(release)
		<-drained
		_, err = blocked.Await(t.Context())
		require.NoError(t, err)
		reply, err := queued.Await(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, reply.(*pong).count)

		require.Eventually(t, func() bool { return h.ActivationCount("drain") == 0 }, time.Second, 10*time.Millisecond)
		assert.EqualValues(t, 1, p.deactivations.Load())
	})
	t.Run("With DeactivateOnIdle the turn completes first", func(t *testing.T) {
		h := newTestHost(t, "on-idle")
		p := newMonitor()
		require.NoError(t, h.RegisterKind("on-idle", p.factory()))

		id := identity.New("on-idle", "1")
		first := sendPing(t, h, id)
		_, err := h.Send(t.Context(), id, new(deactivateOnIdle))
		require.NoError(t, err)

		require.Eventually(t, func() bool { return h.ActivationCount("on-idle") == 0 }, time.Second, 10*time.Millisecond)
		second := sendPing(t, h, id)
		assert.NotEqual(t, first.activationID, second.activationID)
	})
	t.Run("With a failing hook the activation is discarded anyway", func(t *testing.T) {
		h := newTestHost(t, "failing")
		p := newMonitor()
		p.deactivateErr = errors.New("flush failed")
		require.NoError(t, h.RegisterKind("failing", p.factory()))

		id := identity.New("failing", "1")
		sendPing(t, h, id)

		err := h.Deactivate(t.Context(), id)
		require.ErrorIs(t, err, gerrors.ErrDeactivationFailure)
		assert.Zero(t, h.ActivationCount("failing"))

		_, err = h.dirClient.LookupFresh(t.Context(), id)
		assert.Error(t, err)
	})
	t.Run("With Deactivate on an unknown actor it is a no-op", func(t *testing.T) {
		h := newTestHost(t, "unknown")
		require.NoError(t, h.RegisterKind("unknown", newMonitor().factory()))
		require.NoError(t, h.Deactivate(t.Context(), identity.New("unknown", "1")))
	})
	t.Run("With Quiesce on a remote reference", func(t *testing.T) {
		h := newTestHost(t, "quiesce")
		_, err := h.Quiesce(t.Context(), remoteRef(identity.New("kind", "1"), identity.NewActivationID(), "elsewhere"))
		require.ErrorIs(t, err, gerrors.ErrRemoteActivation)
	})
}

func TestStatePersistence(t *testing.T) {
	provider := storage.NewMemory()
	h := newTestHost(t, "stateful", WithStorage(provider))
	p := newMonitor()
	require.NoError(t, h.RegisterKind("account", p.factory()))

	id := identity.New("account", "42")
	_, err := h.Send(t.Context(), id, &setState{data: []byte("balance=10")})
	require.NoError(t, err)
	require.NoError(t, h.Deactivate(t.Context(), id))

	saved, err := provider.Load(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("balance=10"), saved.Data)
	assert.EqualValues(t, 1, saved.Version)

	reply, err := h.Send(t.Context(), id, new(getState))
	require.NoError(t, err)
	assert.Equal(t, []byte("balance=10"), reply)

	// a clean state is not written again
	require.NoError(t, h.Deactivate(t.Context(), id))
	saved, err = provider.Load(t.Context(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, saved.Version)
}
