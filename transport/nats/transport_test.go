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

package nats

import (
	"context"
	"strings"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/transport"
)

type greet struct {
	Name string
}

type greeted struct {
	Greeting string
	Count    int
}

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	})

	require.NoError(t, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}

	return serv
}

func newTransport(t *testing.T, url, address string) *Transport {
	t.Helper()
	tr, err := New(&Config{
		URL:     url,
		Address: address,
		Types:   []any{new(greet), new(greeted), new(string)},
		Logger:  log.DiscardLogger,
	})
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	t.Run("With nil config", func(t *testing.T) {
		tr, err := New(nil)
		require.Error(t, err)
		assert.Nil(t, tr)
	})
	t.Run("With invalid config", func(t *testing.T) {
		tr, err := New(&Config{URL: "nats://127.0.0.1:4222"})
		require.Error(t, err)
		assert.Nil(t, tr)
	})
}

func TestTransport(t *testing.T) {
	srv := startNatsServer(t)
	defer srv.Shutdown()

	ctx := context.Background()
	server := newTransport(t, srv.ClientURL(), "127.0.0.1:9001")
	client := newTransport(t, srv.ClientURL(), "127.0.0.1:9002")

	require.NoError(t, server.Listen(func(_ context.Context, envelope *transport.Envelope) (any, error) {
		switch msg := envelope.Message.(type) {
		case *greet:
			return &greeted{Greeting: "hello " + msg.Name, Count: envelope.ForwardCount}, nil
		case string:
			return strings.Repeat(msg, 2048), nil
		case nil:
			return nil, gerrors.NewErrNonExistentActivation(envelope.Kind + "/" + envelope.Key)
		default:
			return nil, gerrors.NewTurnFault(assert.AnError)
		}
	}))
	require.Error(t, server.Listen(nil))

	t.Run("With typed reply", func(t *testing.T) {
		reply, err := client.Send(ctx, server.Address(), &transport.Envelope{
			Kind:         "user",
			Key:          "alice",
			Sender:       client.Address(),
			ForwardCount: 1,
			Message:      &greet{Name: "alice"},
		})
		require.NoError(t, err)
		actual, ok := reply.(*greeted)
		require.True(t, ok)
		assert.Equal(t, "hello alice", actual.Greeting)
		assert.Equal(t, 1, actual.Count)
	})
	t.Run("With compressed reply", func(t *testing.T) {
		reply, err := client.Send(ctx, server.Address(), &transport.Envelope{Kind: "user", Key: "alice", Message: "ab"})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("ab", 2048), reply)
	})
	t.Run("With remote error", func(t *testing.T) {
		_, err := client.Send(ctx, server.Address(), &transport.Envelope{Kind: "user", Key: "alice"})
		require.ErrorIs(t, err, gerrors.ErrNonExistentActivation)

		_, err = client.Send(ctx, server.Address(), &transport.Envelope{Kind: "user", Key: "alice", Message: new(greeted)})
		var turnFault *gerrors.TurnFault
		require.ErrorAs(t, err, &turnFault)
	})
	t.Run("With unregistered type", func(t *testing.T) {
		_, err := client.Send(ctx, server.Address(), &transport.Envelope{Kind: "user", Key: "alice", Message: 42})
		require.ErrorIs(t, err, ErrTypeNotRegistered)
	})
	t.Run("With unreachable host", func(t *testing.T) {
		_, err := client.Send(ctx, "127.0.0.1:9999", &transport.Envelope{Kind: "user", Key: "alice"})
		require.ErrorIs(t, err, gerrors.ErrHostUnreachable)
	})

	require.NoError(t, server.Close())
	require.NoError(t, server.Close())
	require.NoError(t, client.Close())

	_, err := client.Send(ctx, server.Address(), &transport.Envelope{})
	require.ErrorIs(t, err, gerrors.ErrTransportClosed)
	require.ErrorIs(t, server.Listen(nil), gerrors.ErrTransportClosed)
}

func TestCodec(t *testing.T) {
	c := newCodec(new(greet))

	t.Run("With invalid frames", func(t *testing.T) {
		_, err := c.decodeEnvelope(nil)
		require.ErrorIs(t, err, ErrInvalidFrame)
		_, err = c.decodeEnvelope([]byte{9, 1, 2})
		require.ErrorIs(t, err, ErrInvalidFrame)
		_, err = c.decodeEnvelope([]byte{flagZstd, 1, 2})
		require.ErrorIs(t, err, ErrInvalidFrame)
	})
	t.Run("With value message", func(t *testing.T) {
		data, err := c.encodeEnvelope(&transport.Envelope{Kind: "user", Key: "bob", Message: greet{Name: "bob"}})
		require.NoError(t, err)
		envelope, err := c.decodeEnvelope(data)
		require.NoError(t, err)
		assert.Equal(t, greet{Name: "bob"}, envelope.Message)
	})
	t.Run("With unregistered reply", func(t *testing.T) {
		data, err := c.encodeReply(new(greeted), nil)
		require.NoError(t, err)
		_, err = c.decodeReply(data)
		var internal *gerrors.InternalError
		require.ErrorAs(t, err, &internal)
	})
}
