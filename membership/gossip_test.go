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

package membership

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/atomic"

	"github.com/tochemey/silo/log"
)

func newGossip(t *testing.T, seeds ...string) (*Gossip, string) {
	t.Helper()
	ports := dynaport.Get(2)
	gossipAddr := net.JoinHostPort("127.0.0.1", strconv.Itoa(ports[0]))

	provider, err := NewGossip(&GossipConfig{
		Name:     fmt.Sprintf("127.0.0.1:%d", ports[1]),
		BindAddr: "127.0.0.1",
		BindPort: ports[0],
		Seeds:    seeds,
		Logger:   log.DiscardLogger,
	})
	require.NoError(t, err)
	return provider, gossipAddr
}

func TestNewGossip(t *testing.T) {
	t.Run("With nil config", func(t *testing.T) {
		provider, err := NewGossip(nil)
		require.Error(t, err)
		assert.Nil(t, provider)
	})
	t.Run("With invalid config", func(t *testing.T) {
		provider, err := NewGossip(&GossipConfig{Name: "host"})
		require.Error(t, err)
		assert.Nil(t, provider)
	})
}

func TestGossip(t *testing.T) {
	ctx := context.Background()

	first, seed := newGossip(t)
	require.NoError(t, first.Start(ctx))

	joined := atomic.NewInt32(0)
	left := atomic.NewInt32(0)
	first.OnHostStatusChanged(func(event Event) {
		if event.Status == Alive {
			joined.Inc()
			return
		}
		left.Inc()
	})

	second, _ := newGossip(t, seed)
	require.NoError(t, second.Start(ctx))

	require.Eventually(t, func() bool {
		return first.IsHostAlive(second.config.Name) && second.IsHostAlive(first.config.Name)
	}, 5*time.Second, 50*time.Millisecond)

	assert.Len(t, first.Members(), 2)
	assert.True(t, first.IsHostAlive(first.config.Name))
	assert.EqualValues(t, 1, joined.Load())

	require.NoError(t, second.Stop(ctx))
	require.NoError(t, second.Stop(ctx))

	require.Eventually(t, func() bool {
		return !first.IsHostAlive(second.config.Name)
	}, 10*time.Second, 50*time.Millisecond)
	assert.EqualValues(t, 1, left.Load())
	assert.Equal(t, []string{first.config.Name}, first.Members())

	require.NoError(t, first.Stop(ctx))
}
