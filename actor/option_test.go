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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tochemey/silo/directory"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/membership"
	"github.com/tochemey/silo/storage"
)

func TestOption(t *testing.T) {
	dir := directory.NewMemory()
	store := storage.NewMemory()
	static := membership.NewStatic("a", "b")
	fake := clock.NewFake(epoch)
	provider := noop.NewMeterProvider()

	testCases := []struct {
		name     string
		option   Option
		expected *host
	}{
		{
			name:     "WithLogger",
			option:   WithLogger(log.DiscardLogger),
			expected: &host{logger: log.DiscardLogger},
		},
		{
			name:     "WithHostAddress",
			option:   WithHostAddress("10.0.0.1:3000"),
			expected: &host{address: "10.0.0.1:3000"},
		},
		{
			name:     "WithCollectionQuantum",
			option:   WithCollectionQuantum(time.Second),
			expected: &host{collectionQuantum: time.Second},
		},
		{
			name:     "WithDefaultAgeLimit",
			option:   WithDefaultAgeLimit(time.Hour),
			expected: &host{defaultAgeLimit: time.Hour},
		},
		{
			name:     "WithMinimumAgeLimitEnforcement",
			option:   WithMinimumAgeLimitEnforcement(true),
			expected: &host{enforceMinimumAgeLimit: true},
		},
		{
			name:     "WithMaxForwardCount",
			option:   WithMaxForwardCount(5),
			expected: &host{maxForwardCount: 5},
		},
		{
			name:     "WithLazyDeregistration",
			option:   WithLazyDeregistration(time.Minute),
			expected: &host{deregistrationGrace: time.Minute},
		},
		{
			name:     "WithActivationTimeout",
			option:   WithActivationTimeout(time.Second),
			expected: &host{activationTimeout: time.Second},
		},
		{
			name:     "WithDeactivationTimeout",
			option:   WithDeactivationTimeout(time.Second),
			expected: &host{deactivationTimeout: time.Second},
		},
		{
			name:     "WithActivationRetries",
			option:   WithActivationRetries(7),
			expected: &host{activationRetries: 7},
		},
		{
			name:     "WithDirectory",
			option:   WithDirectory(dir),
			expected: &host{directory: dir},
		},
		{
			name:     "WithDirectoryCacheSize",
			option:   WithDirectoryCacheSize(16),
			expected: &host{directoryCacheSize: 16},
		},
		{
			name:     "WithStorage",
			option:   WithStorage(store),
			expected: &host{storage: store},
		},
		{
			name:     "WithMembership",
			option:   WithMembership(static),
			expected: &host{membership: static},
		},
		{
			name:     "WithClock",
			option:   WithClock(fake),
			expected: &host{clock: fake},
		},
		{
			name:     "WithMeterProvider",
			option:   WithMeterProvider(provider),
			expected: &host{meterProvider: provider},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var h host
			tc.option.Apply(&h)
			assert.Equal(t, tc.expected.logger, h.logger)
			assert.Equal(t, tc.expected.address, h.address)
			assert.Equal(t, tc.expected.collectionQuantum, h.collectionQuantum)
			assert.Equal(t, tc.expected.defaultAgeLimit, h.defaultAgeLimit)
			assert.Equal(t, tc.expected.enforceMinimumAgeLimit, h.enforceMinimumAgeLimit)
			assert.Equal(t, tc.expected.maxForwardCount, h.maxForwardCount)
			assert.Equal(t, tc.expected.deregistrationGrace, h.deregistrationGrace)
			assert.Equal(t, tc.expected.activationTimeout, h.activationTimeout)
			assert.Equal(t, tc.expected.deactivationTimeout, h.deactivationTimeout)
			assert.Equal(t, tc.expected.activationRetries, h.activationRetries)
			assert.Equal(t, tc.expected.directory, h.directory)
			assert.Equal(t, tc.expected.directoryCacheSize, h.directoryCacheSize)
			assert.Equal(t, tc.expected.storage, h.storage)
			assert.Equal(t, tc.expected.membership, h.membership)
			assert.Equal(t, tc.expected.clock, h.clock)
			assert.Equal(t, tc.expected.meterProvider, h.meterProvider)
		})
	}
}
