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
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/silo/directory"
	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/future"
	"github.com/tochemey/silo/identity"
	"github.com/tochemey/silo/internal/clock"
	"github.com/tochemey/silo/internal/errorschain"
	hostmetric "github.com/tochemey/silo/internal/metric"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/internal/workerpool"
	"github.com/tochemey/silo/internal/xsync"
	"github.com/tochemey/silo/log"
	"github.com/tochemey/silo/membership"
	"github.com/tochemey/silo/stats"
	"github.com/tochemey/silo/storage"
	"github.com/tochemey/silo/transport"
)

// Host runs the activations of virtual actors.
//
// Actors are never created explicitly: the first message sent to an actor identity
// activates it on the host that resolved it, unless the directory already knows an
// activation elsewhere in the cluster. Idle activations are collected after the age
// limit of their kind.
type Host interface {
	// Name returns the host name
	Name() string
	// Address returns the address this host registers its activations with
	Address() string
	// Start starts the host
	Start(ctx context.Context) error
	// Stop deactivates every local activation and releases the resources of the host.
	// A stopped host cannot be started again.
	Stop(ctx context.Context) error
	// RegisterKind registers an actor kind and the factory of its actors
	RegisterKind(kind string, factory Factory, opts ...KindOption) error
	// Resolve returns the activation of id, creating a local one when no live activation exists
	Resolve(ctx context.Context, id *identity.Identity) (*ActivationRef, error)
	// Submit queues message for the referenced activation and returns immediately.
	// The Future completes with the reply of the turn.
	// A stale reference yields errors.ErrNonExistentActivation.
	Submit(ctx context.Context, ref *ActivationRef, message any) (future.Future, error)
	// Quiesce stops the referenced local activation from accepting new work and starts
	// its deactivation. The returned channel is closed once it has no in-flight
	// and no queued work.
	Quiesce(ctx context.Context, ref *ActivationRef) (<-chan struct{}, error)
	// Send delivers message to the actor id and waits for the reply.
	// Messages that miss their activation are resolved again and forwarded
	// up to the configured maximum forward count.
	Send(ctx context.Context, id *identity.Identity, message any) (any, error)
	// Deactivate deactivates the local activation of id and waits for its completion
	Deactivate(ctx context.Context, id *identity.Identity) error
	// ForceCollection collects every collectible activation idle for at least ageThreshold
	// and returns how many were collected
	ForceCollection(ctx context.Context, ageThreshold time.Duration) (int, error)
	// ActivationCount returns the number of local activations of kind
	ActivationCount(kind string) int
	// Statistics returns the statistics registry of the host
	Statistics() *stats.Registry
	// Logger returns the host logger
	Logger() log.Logger
}

// host implements Host
type host struct {
	name    string
	address string
	logger  log.Logger

	collectionQuantum      time.Duration
	defaultAgeLimit        time.Duration
	enforceMinimumAgeLimit bool
	maxForwardCount        int
	deregistrationGrace    time.Duration
	activationTimeout      time.Duration
	deactivationTimeout    time.Duration
	activationRetries      int
	directoryCacheSize     int

	directory     directory.Directory
	ownsDirectory bool
	storage       storage.Provider
	membership    membership.Provider
	transport     transport.Transport
	clock         clock.Clock
	meterProvider metric.MeterProvider

	kinds      *xsync.Map[string, *kindDescriptor]
	catalog    *catalog
	dirClient  *directory.Client
	scheduler  *turnScheduler
	collector  *collector
	workerPool *workerpool.WorkerPool
	statistics *stats.Registry

	metric             *hostmetric.HostMetric
	metricRegistration metric.Registration
	forwarded          atomic.Int64

	startMu sync.Mutex
	started atomic.Bool
	stopped atomic.Bool
}

// enforce compilation error
var _ Host = (*host)(nil)

// NewHost creates a host. Without options the host keeps its activations local:
// it uses an in-memory directory, no storage and no transport.
func NewHost(name string, opts ...Option) (Host, error) {
	h := &host{
		name:                   name,
		logger:                 log.DefaultLogger,
		collectionQuantum:      DefaultCollectionQuantum,
		defaultAgeLimit:        DefaultAgeLimit,
		enforceMinimumAgeLimit: true,
		maxForwardCount:        DefaultMaxForwardCount,
		activationTimeout:      DefaultActivationTimeout,
		deactivationTimeout:    DefaultDeactivationTimeout,
		activationRetries:      DefaultActivationRetries,
		directoryCacheSize:     directory.DefaultCacheSize,
		clock:                  clock.New(),
		kinds:                  xsync.NewMap[string, *kindDescriptor](),
		catalog:                newCatalog(),
		statistics:             stats.NewRegistry(),
	}

	for _, opt := range opts {
		opt.Apply(h)
	}

	if err := h.validate(); err != nil {
		return nil, err
	}

	if h.transport != nil {
		h.address = h.transport.Address()
	}

	if h.address == "" {
		h.address = h.name
	}

	if h.directory == nil {
		h.directory = directory.NewMemory(directory.WithMemoryClock(h.clock))
		h.ownsDirectory = true
	}

	if h.membership == nil {
		h.membership = membership.NewStatic(h.address)
	}

	dirClient, err := directory.NewClient(h.directory, h.directoryCacheSize, h.logger.Named("directory"))
	if err != nil {
		return nil, err
	}

	h.dirClient = dirClient
	h.workerPool = workerpool.New(workerpool.WithIdleWorkerLifetime(time.Second))
	h.scheduler = newTurnScheduler(h)
	h.collector = newCollector(h)

	if err := h.registerMetrics(); err != nil {
		return nil, err
	}

	h.registerStatistics()
	return h, nil
}

// Name returns the host name
func (h *host) Name() string {
	return h.name
}

// Address returns the address this host registers its activations with
func (h *host) Address() string {
	return h.address
}

// Logger returns the host logger
func (h *host) Logger() log.Logger {
	return h.logger
}

// Statistics returns the statistics registry of the host
func (h *host) Statistics() *stats.Registry {
	return h.statistics
}

// Start starts the host
func (h *host) Start(ctx context.Context) error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.stopped.Load() {
		return gerrors.ErrHostStopped
	}

	if h.started.Load() {
		return gerrors.ErrHostAlreadyStarted
	}

	h.logger.Infof("starting host=%s at address=%s...", h.name, h.address)

	h.workerPool.Start()
	if h.transport != nil {
		if err := h.transport.Listen(h.handleEnvelope); err != nil {
			h.workerPool.Stop()
			return err
		}
	}

	h.membership.OnHostStatusChanged(h.onHostStatusChanged)
	if err := h.collector.start(ctx); err != nil {
		h.workerPool.Stop()
		return err
	}

	h.started.Store(true)
	h.logger.Infof("host=%s started", h.name)
	return nil
}

// Stop deactivates every local activation and releases the resources of the host
func (h *host) Stop(ctx context.Context) error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if !h.started.Load() {
		return gerrors.ErrHostNotStarted
	}

	h.logger.Infof("stopping host=%s...", h.name)
	h.started.Store(false)
	h.stopped.Store(true)
	h.collector.stop(ctx)

	activations := h.catalog.all()
	var eg errgroup.Group
	for _, a := range activations {
		eg.Go(func() error {
			return h.deactivateActivation(ctx, a)
		})
	}

	chain := errorschain.New(errorschain.ReturnAll()).
		AddError(eg.Wait())

	if h.transport != nil {
		chain.AddError(h.transport.Close())
	}

	h.workerPool.Stop()
	chain.AddError(h.metricRegistration.Unregister())
	h.statistics.Close()

	if h.ownsDirectory {
		chain.AddError(h.directory.Close())
	}

	if err := chain.Error(); err != nil {
		h.logger.Errorf("host=%s stopped with errors: %v", h.name, err)
		return err
	}

	h.logger.Infof("host=%s stopped. %d activation(s) deactivated", h.name, len(activations))
	return nil
}

// RegisterKind registers an actor kind and the factory of its actors
func (h *host) RegisterKind(kind string, factory Factory, opts ...KindOption) error {
	descriptor := newKindDescriptor(kind, factory, h.defaultAgeLimit, opts...)
	if err := descriptor.validate(h.collectionQuantum, h.enforceMinimumAgeLimit); err != nil {
		return err
	}

	if _, loaded := h.kinds.GetOrSet(kind, descriptor); loaded {
		return gerrors.ErrKindAlreadyRegistered
	}

	h.registerKindStatistic(kind)
	h.logger.Infof("kind=%s registered on host=%s", kind, h.name)
	return nil
}

// Resolve returns the activation of id, creating a local one when no live activation exists
func (h *host) Resolve(ctx context.Context, id *identity.Identity) (*ActivationRef, error) {
	if !h.started.Load() {
		return nil, gerrors.ErrHostNotStarted
	}

	ref, _, err := h.resolve(ctx, id)
	return ref, err
}

// Submit queues message for the referenced activation
func (h *host) Submit(ctx context.Context, ref *ActivationRef, message any) (future.Future, error) {
	if !h.started.Load() {
		return nil, gerrors.ErrHostNotStarted
	}

	if !ref.IsLocal() {
		if h.transport == nil {
			return nil, gerrors.ErrHostUnreachable
		}

		envelope := &transport.Envelope{
			Kind:         ref.identity.Kind(),
			Key:          ref.identity.Key(),
			ActivationID: ref.activationID.String(),
			Sender:       h.address,
			Message:      message,
		}

		return future.New(func() (any, error) {
			return h.transport.Send(ctx, ref.host, envelope)
		}), nil
	}

	a, ok := h.catalog.byID(ref.activationID)
	if !ok {
		return nil, gerrors.NewErrNonExistentActivation(ref.String())
	}

	item := newWorkItem(ctx, message, h.address)
	if err := h.scheduler.submit(a, item); err != nil {
		return nil, gerrors.NewErrNonExistentActivation(ref.String())
	}
	return item.promise.Future(), nil
}

// Quiesce stops the referenced activation from accepting new work and starts its deactivation
func (h *host) Quiesce(ctx context.Context, ref *ActivationRef) (<-chan struct{}, error) {
	if !h.started.Load() {
		return nil, gerrors.ErrHostNotStarted
	}

	if !ref.IsLocal() {
		return nil, gerrors.ErrRemoteActivation
	}

	a, ok := h.catalog.byID(ref.activationID)
	if !ok {
		return nil, gerrors.NewErrNonExistentActivation(ref.String())
	}

	if err := h.beginDeactivation(ctx, a); err != nil {
		return nil, err
	}
	return a.drained, nil
}

// Send delivers message to the actor id and waits for the reply
func (h *host) Send(ctx context.Context, id *identity.Identity, message any) (any, error) {
	if !h.started.Load() {
		return nil, gerrors.ErrHostNotStarted
	}

	envelope := &transport.Envelope{
		Kind:    id.Kind(),
		Key:     id.Key(),
		Sender:  h.address,
		Message: message,
	}
	return h.dispatch(ctx, id, envelope)
}

// Deactivate deactivates the local activation of id and waits for its completion.
// It is a no-op when the actor has no local activation.
func (h *host) Deactivate(ctx context.Context, id *identity.Identity) error {
	if !h.started.Load() {
		return gerrors.ErrHostNotStarted
	}

	kind, ok := h.kinds.Get(id.Kind())
	if !ok {
		return gerrors.NewErrKindNotRegistered(id.Kind())
	}

	if kind.statelessWorker {
		chain := errorschain.New(errorschain.ReturnAll())
		for _, worker := range h.catalog.localWorkers(id) {
			chain.AddError(h.deactivateActivation(ctx, worker))
		}
		return chain.Error()
	}

	a, ok := h.catalog.lookup(id)
	if !ok {
		return nil
	}
	return h.deactivateActivation(ctx, a)
}

// ForceCollection collects every collectible activation idle for at least ageThreshold
func (h *host) ForceCollection(ctx context.Context, ageThreshold time.Duration) (int, error) {
	if !h.started.Load() {
		return 0, gerrors.ErrHostNotStarted
	}

	if err := validation.NewNonNegativeDurationValidator("ageThreshold", ageThreshold).Validate(); err != nil {
		return 0, err
	}

	h.logger.Infof("forcing the collection of activations idle for at least %s", ageThreshold)
	return h.collector.forceCollection(ctx, ageThreshold)
}

// ActivationCount returns the number of local activations of kind
func (h *host) ActivationCount(kind string) int {
	return h.catalog.count(kind)
}

// onHostStatusChanged forgets the locations pointing at a dead host
func (h *host) onHostStatusChanged(event membership.Event) {
	if event.Status != membership.Dead || event.Host == h.address {
		return
	}

	dropped := h.dirClient.InvalidateHost(event.Host)
	h.logger.Infof("host=%s is dead, %d cached location(s) dropped", event.Host, dropped)

	purger, ok := h.directory.(directory.HostPurger)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.deactivationTimeout)
		defer cancel()
		purged, err := purger.PurgeHost(ctx, event.Host)
		if err != nil {
			h.logger.Warnf("failed to purge the directory entries of host=%s: %v", event.Host, err)
			return
		}
		h.logger.Debugf("%d directory entrie(s) of host=%s purged", purged, event.Host)
	}()
}

// dropActivation removes the local activation of id without touching the directory.
// The directory keeps pointing at an activation that no longer exists.
func (h *host) dropActivation(id *identity.Identity) bool {
	a, ok := h.catalog.lookup(id)
	if !ok || !a.beginDeactivation() {
		return false
	}

	a.unregistered.Store(true)
	for _, item := range a.invalidate() {
		item.promise.Failure(gerrors.NewErrNonExistentActivation(id.String()))
	}

	h.catalog.remove(a)
	h.collector.unregister(a.id)
	close(a.done)
	return true
}

func (h *host) validate() error {
	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("name", h.name)).
		AddValidator(validation.NewPositiveDurationValidator("collectionQuantum", h.collectionQuantum)).
		AddValidator(validation.NewNonNegativeDurationValidator("defaultAgeLimit", h.defaultAgeLimit)).
		AddValidator(validation.NewNonNegativeDurationValidator("deregistrationGrace", h.deregistrationGrace)).
		AddValidator(validation.NewPositiveDurationValidator("activationTimeout", h.activationTimeout)).
		AddValidator(validation.NewPositiveDurationValidator("deactivationTimeout", h.deactivationTimeout)).
		AddAssertion(h.maxForwardCount >= 0, "the max forward count must not be negative").
		AddAssertion(h.activationRetries > 0, "the activation retries must be positive").
		AddAssertion(h.directoryCacheSize > 0, "the directory cache size must be positive").
		AddAssertion(h.logger != nil, "the logger is required").
		AddAssertion(h.clock != nil, "the clock is required").
		AddAssertion(!h.enforceMinimumAgeLimit || h.defaultAgeLimit == 0 || h.defaultAgeLimit >= 2*h.collectionQuantum,
			"the default age limit must be at least twice the collection quantum").
		Validate()
}
