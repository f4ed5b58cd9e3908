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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	t.Run("With unknown host", func(t *testing.T) {
		provider := NewStatic()
		assert.True(t, provider.IsHostAlive("127.0.0.1:9000"))
		assert.Empty(t, provider.Members())
	})
	t.Run("With status changes", func(t *testing.T) {
		provider := NewStatic("b:1", "a:1")
		assert.Equal(t, []string{"a:1", "b:1"}, provider.Members())

		var events []Event
		provider.OnHostStatusChanged(func(event Event) {
			events = append(events, event)
		})

		provider.MarkDead("a:1")
		provider.MarkDead("a:1")
		assert.False(t, provider.IsHostAlive("a:1"))
		assert.Equal(t, []string{"b:1"}, provider.Members())

		provider.MarkAlive("a:1")
		assert.True(t, provider.IsHostAlive("a:1"))

		require.Len(t, events, 2)
		assert.Equal(t, Event{Host: "a:1", Status: Dead}, events[0])
		assert.Equal(t, Event{Host: "a:1", Status: Alive}, events[1])
	})
	t.Run("With status names", func(t *testing.T) {
		assert.Equal(t, "alive", Alive.String())
		assert.Equal(t, "dead", Dead.String())
		assert.Equal(t, "unknown", Status(7).String())
	})
}
