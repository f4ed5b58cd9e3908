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

package natskv

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/identity"
)

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
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

	t.Cleanup(serv.Shutdown)
	return serv
}

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	srv := startNatsServer(t)
	dir, err := New(&Config{URL: srv.ClientURL()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })
	return dir
}

func TestNew(t *testing.T) {
	t.Run("With nil config", func(t *testing.T) {
		dir, err := New(nil)
		require.Error(t, err)
		assert.Nil(t, dir)
	})
	t.Run("With invalid config", func(t *testing.T) {
		dir, err := New(&Config{})
		require.Error(t, err)
		assert.Nil(t, dir)
	})
	t.Run("With existing bucket", func(t *testing.T) {
		srv := startNatsServer(t)
		first, err := New(&Config{URL: srv.ClientURL(), Bucket: "shared"})
		require.NoError(t, err)
		second, err := New(&Config{URL: srv.ClientURL(), Bucket: "shared"})
		require.NoError(t, err)
		assert.NoError(t, first.Close())
		assert.NoError(t, second.Close())
		assert.NoError(t, second.Close())
	})
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	id := identity.New("user", "alice@example.com")

	t.Run("With register and lookup", func(t *testing.T) {
		dir := newDirectory(t)
		activationID := identity.NewActivationID()

		_, err := dir.Register(ctx, id, activationID, "host-1:1000")
		require.NoError(t, err)

		found, err := dir.Lookup(ctx, id)
		require.NoError(t, err)
		assert.True(t, found.Matches(activationID))
		assert.True(t, found.Identity.Equal(id))
		assert.Equal(t, "host-1:1000", found.Host)
	})
	t.Run("With lookup of unknown identity", func(t *testing.T) {
		dir := newDirectory(t)
		_, err := dir.Lookup(ctx, id)
		assert.ErrorIs(t, err, directory.ErrEntryNotFound)
	})
	t.Run("With duplicate registration", func(t *testing.T) {
		dir := newDirectory(t)
		first := identity.NewActivationID()
		_, err := dir.Register(ctx, id, first, "host-1:1000")
		require.NoError(t, err)

		winner, err := dir.Register(ctx, id, identity.NewActivationID(), "host-2:1000")
		require.ErrorIs(t, err, gerrors.ErrDuplicateActivation)
		assert.True(t, winner.Matches(first))
	})
	t.Run("With deregister then register again", func(t *testing.T) {
		dir := newDirectory(t)
		activationID := identity.NewActivationID()
		_, err := dir.Register(ctx, id, activationID, "host-1:1000")
		require.NoError(t, err)
		require.NoError(t, dir.Deregister(ctx, id, activationID, 0))

		_, err = dir.Lookup(ctx, id)
		require.ErrorIs(t, err, directory.ErrEntryNotFound)

		next := identity.NewActivationID()
		_, err = dir.Register(ctx, id, next, "host-2:1000")
		require.NoError(t, err)
	})
	t.Run("With tombstone", func(t *testing.T) {
		dir := newDirectory(t)
		activationID := identity.NewActivationID()
		_, err := dir.Register(ctx, id, activationID, "host-1:1000")
		require.NoError(t, err)
		require.NoError(t, dir.Deregister(ctx, id, activationID, 200*time.Millisecond))

		found, err := dir.Lookup(ctx, id)
		require.NoError(t, err)
		assert.True(t, found.IsTombstone())

		require.Eventually(t, func() bool {
			_, err := dir.Lookup(ctx, id)
			return err != nil
		}, 2*time.Second, 20*time.Millisecond)
	})
	t.Run("With tombstone overwritten by a new registration", func(t *testing.T) {
		dir := newDirectory(t)
		activationID := identity.NewActivationID()
		_, err := dir.Register(ctx, id, activationID, "host-1:1000")
		require.NoError(t, err)
		require.NoError(t, dir.Deregister(ctx, id, activationID, time.Minute))

		next := identity.NewActivationID()
		entry, err := dir.Register(ctx, id, next, "host-2:1000")
		require.NoError(t, err)
		assert.True(t, entry.Matches(next))
	})
	t.Run("With purge host", func(t *testing.T) {
		dir := newDirectory(t)
		purged, err := dir.PurgeHost(ctx, "host-1:1000")
		require.NoError(t, err)
		assert.Zero(t, purged)

		_, err = dir.Register(ctx, identity.New("user", "a"), identity.NewActivationID(), "host-1:1000")
		require.NoError(t, err)
		_, err = dir.Register(ctx, identity.New("user", "b"), identity.NewActivationID(), "host-2:1000")
		require.NoError(t, err)

		purged, err = dir.PurgeHost(ctx, "host-1:1000")
		require.NoError(t, err)
		assert.Equal(t, 1, purged)
		_, err = dir.Lookup(ctx, identity.New("user", "a"))
		assert.ErrorIs(t, err, directory.ErrEntryNotFound)
	})
}
