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
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/silo/directory"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/membership"
	"github.com/tochemey/silo/storage"
	"github.com/tochemey/silo/transport"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(h *host)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*host)

func (f OptionFunc) Apply(h *host) {
	f(h)
}

// WithLogger sets the host logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(h *host) {
		h.logger = logger
	})
}

// WithHostAddress sets the address the host registers its activations with.
// It is ignored when a transport is set: the transport address wins.
func WithHostAddress(address string) Option {
	return OptionFunc(func(h *host) {
		h.address = address
	})
}

// WithCollectionQuantum sets the interval of the collection ticks.
// Activations become eligible with that granularity.
func WithCollectionQuantum(quantum time.Duration) Option {
	return OptionFunc(func(h *host) {
		h.collectionQuantum = quantum
	})
}

// WithDefaultAgeLimit sets the idle duration after which activations are collected
// when their kind does not override it. Zero disables collection.
func WithDefaultAgeLimit(ageLimit time.Duration) Option {
	return OptionFunc(func(h *host) {
		h.defaultAgeLimit = ageLimit
	})
}

// WithMinimumAgeLimitEnforcement toggles the rejection of age limits below twice the collection quantum
func WithMinimumAgeLimitEnforcement(enforce bool) Option {
	return OptionFunc(func(h *host) {
		h.enforceMinimumAgeLimit = enforce
	})
}

// WithMaxForwardCount sets how many times a message is forwarded after it
// missed its activation. Zero fails such messages immediately.
func WithMaxForwardCount(count int) Option {
	return OptionFunc(func(h *host) {
		h.maxForwardCount = count
	})
}

// WithLazyDeregistration keeps the directory entry of a deactivated activation as
// a tombstone for the grace window
func WithLazyDeregistration(grace time.Duration) Option {
	return OptionFunc(func(h *host) {
		h.deregistrationGrace = grace
	})
}

// WithActivationTimeout sets the time budget of OnActivate, retries included
func WithActivationTimeout(timeout time.Duration) Option {
	return OptionFunc(func(h *host) {
		h.activationTimeout = timeout
	})
}

// WithDeactivationTimeout sets the time budget of OnDeactivate and the state write back
func WithDeactivationTimeout(timeout time.Duration) Option {
	return OptionFunc(func(h *host) {
		h.deactivationTimeout = timeout
	})
}

// WithActivationRetries sets how many times OnActivate is attempted
func WithActivationRetries(retries int) Option {
	return OptionFunc(func(h *host) {
		h.activationRetries = retries
	})
}

// WithDirectory sets the actor directory. The caller keeps ownership of it.
func WithDirectory(dir directory.Directory) Option {
	return OptionFunc(func(h *host) {
		h.directory = dir
	})
}

// WithDirectoryCacheSize sets the number of entries cached by the directory client
func WithDirectoryCacheSize(size int) Option {
	return OptionFunc(func(h *host) {
		h.directoryCacheSize = size
	})
}

// WithStorage sets the state storage provider. The caller keeps ownership of it.
func WithStorage(provider storage.Provider) Option {
	return OptionFunc(func(h *host) {
		h.storage = provider
	})
}

// WithMembership sets the membership provider
func WithMembership(provider membership.Provider) Option {
	return OptionFunc(func(h *host) {
		h.membership = provider
	})
}

// WithTransport sets the transport used to reach other hosts.
// The host closes it on Stop.
func WithTransport(t transport.Transport) Option {
	return OptionFunc(func(h *host) {
		h.transport = t
	})
}

// WithClock sets the clock used for last-active timestamps and collection
func WithClock(c clock.Clock) Option {
	return OptionFunc(func(h *host) {
		h.clock = c
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(h *host) {
		h.meterProvider = provider
	})
}
