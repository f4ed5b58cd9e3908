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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
)

func TestActivation(t *testing.T) {
	t.Run("With an older timestamp last-active does not move backward", func(t *testing.T) {
		h, fake := newCollectionHost(t)
		require.NoError(t, h.RegisterKind("clocked", newMonitor().factory()))

		id := identity.New("clocked", "1")
		sendPing(t, h, id)
		a, ok := h.catalog.lookup(id)
		require.True(t, ok)

		later := fake.Now().Add(5 * time.Second)
		a.touch(later)
		h.collector.touch(a)
		ticket := ticketOf(h, a)

		a.touch(fake.Now())
		h.collector.touch(a)
		assert.True(t, a.lastActiveTime().Equal(later))
		assert.Equal(t, ticket, ticketOf(h, a))
		assert.Zero(t, a.idleFor(later))
	})
	t.Run("With status names", func(t *testing.T) {
		assert.Equal(t, "Valid", statusValid.String())
		assert.Equal(t, "Unknown", activationStatus(42).String())
	})
	t.Run("With pin the activation is busy until unpinned", func(t *testing.T) {
		kind := newKindDescriptor("pinned", newMonitor().factory(), time.Hour)
		a := newActivation(identity.New("pinned", "1"), kind, epoch)
		a.status = statusValid

		unpin := a.pin()
		assert.False(t, a.tryIdle())

		unpin()
		unpin()
		assert.True(t, a.tryIdle())
		assert.Equal(t, statusDeactivating, a.getStatus())
		select {
		case <-a.drained:
		default:
			t.Fatal("drained is still open")
		}
	})
}

func TestTicketHeap(t *testing.T) {
	var tickets ticketHeap
	for _, ticket := range []int64{7, 3, 9, 3, 1} {
		cheaps.Push(&tickets, ticket)
	}

	popped := make([]int64, 0, tickets.Len())
	for tickets.Len() > 0 {
		popped = append(popped, cheaps.Pop(&tickets).(int64))
	}
	assert.Equal(t, []int64{1, 3, 3, 7, 9}, popped)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errDeactivating))
	assert.True(t, isRetryable(errRetryLookup))
	assert.True(t, isRetryable(newErrLostRace("account/1")))
	assert.False(t, isRetryable(gerrors.NewErrNonExistentActivation("account/1")))
	assert.False(t, isRetryable(nil))
}

func ticketOf(h *host, a *activation) int64 {
	h.collector.mu.Lock()
	defer h.collector.mu.Unlock()
	return h.collector.tickets[a.id]
}
