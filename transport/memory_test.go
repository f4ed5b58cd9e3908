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

package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/silo/errors"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()

	t.Run("With request reply", func(t *testing.T) {
		network := NewNetwork()
		server := network.Transport("host-1:1000")
		client := network.Transport("host-2:1000")

		require.NoError(t, server.Listen(func(_ context.Context, envelope *Envelope) (any, error) {
			envelope.ForwardCount++
			return envelope.Message.(string) + " pong", nil
		}))
		require.Error(t, server.Listen(nil))

		envelope := &Envelope{Kind: "user", Key: "alice", Message: "ping"}
		reply, err := client.Send(ctx, server.Address(), envelope)
		require.NoError(t, err)
		assert.Equal(t, "ping pong", reply)
		// the receiver works on its own copy
		assert.Zero(t, envelope.ForwardCount)
	})
	t.Run("With unreachable host", func(t *testing.T) {
		network := NewNetwork()
		server := network.Transport("host-1:1000")
		client := network.Transport("host-2:1000")

		_, err := client.Send(ctx, server.Address(), &Envelope{})
		require.ErrorIs(t, err, gerrors.ErrHostUnreachable)

		require.NoError(t, server.Listen(func(context.Context, *Envelope) (any, error) { return nil, nil }))
		network.Disconnect(server.Address())
		_, err = client.Send(ctx, server.Address(), &Envelope{})
		require.ErrorIs(t, err, gerrors.ErrHostUnreachable)

		network.Reconnect(server.Address())
		_, err = client.Send(ctx, server.Address(), &Envelope{})
		require.NoError(t, err)

		require.NoError(t, server.Close())
		_, err = client.Send(ctx, server.Address(), &Envelope{})
		require.ErrorIs(t, err, gerrors.ErrHostUnreachable)
	})
	t.Run("With canceled context", func(t *testing.T) {
		network := NewNetwork()
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := network.Transport("a").Send(cancelCtx, "b", &Envelope{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCodes(t *testing.T) {
	cause := errors.New("boom")
	testCases := []struct {
		name  string
		err   error
		code  Code
		check error
	}{
		{name: "none", err: nil, code: CodeNone},
		{name: "non existent", err: gerrors.NewErrNonExistentActivation("user/a"), code: CodeNonExistentActivation, check: gerrors.ErrNonExistentActivation},
		{name: "forwarding exhausted", err: gerrors.NewErrForwardingExhausted("user/a", 2), code: CodeNonExistentActivation, check: gerrors.ErrNonExistentActivation},
		{name: "activation failure", err: gerrors.NewErrActivationFailure(cause), code: CodeActivationFailure, check: gerrors.ErrActivationFailure},
		{name: "kind not registered", err: gerrors.NewErrKindNotRegistered("user"), code: CodeKindNotRegistered, check: gerrors.ErrKindNotRegistered},
		{name: "host unreachable", err: gerrors.ErrHostUnreachable, code: CodeHostUnreachable, check: gerrors.ErrHostUnreachable},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code := CodeOf(tc.err)
			assert.Equal(t, tc.code, code)
			rebuilt := ErrorOf(code, "remote")
			if tc.check == nil {
				assert.NoError(t, rebuilt)
				return
			}
			assert.ErrorIs(t, rebuilt, tc.check)
		})
	}

	t.Run("turn fault", func(t *testing.T) {
		code := CodeOf(gerrors.NewTurnFault(cause))
		require.Equal(t, CodeTurnFault, code)
		var turnFault *gerrors.TurnFault
		assert.ErrorAs(t, ErrorOf(code, "boom"), &turnFault)
	})
	t.Run("internal", func(t *testing.T) {
		code := CodeOf(cause)
		require.Equal(t, CodeInternal, code)
		var internal *gerrors.InternalError
		assert.ErrorAs(t, ErrorOf(code, "boom"), &internal)
	})
}
