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
	"regexp"
	"time"

	gerrors "github.com/tochemey/silo/errors"
	"github.com/tochemey/silo/internal/validation"
	"github.com/tochemey/silo/passivation"
	"github.com/tochemey/silo/reentrancy"
)

var kindNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_\.]*$`)

// KindOption configures an actor kind at registration time
type KindOption interface {
	// Apply sets the KindOption value of a kind descriptor.
	Apply(kind *kindDescriptor)
}

// enforce compilation error
var _ KindOption = KindOptionFunc(nil)

// KindOptionFunc implements the KindOption interface.
type KindOptionFunc func(kind *kindDescriptor)

// Apply applies the kind option
func (f KindOptionFunc) Apply(kind *kindDescriptor) {
	f(kind)
}

// WithAgeLimit overrides the host default age limit for the kind.
// An age limit of zero disables idle collection for the kind.
func WithAgeLimit(ageLimit time.Duration) KindOption {
	return KindOptionFunc(func(kind *kindDescriptor) {
		kind.strategy = passivation.NewTimeBasedStrategy(ageLimit)
	})
}

// WithLongLived excludes the kind from idle collection
func WithLongLived() KindOption {
	return KindOptionFunc(func(kind *kindDescriptor) {
		kind.strategy = passivation.NewLongLivedStrategy()
	})
}

// WithReentrancy sets the reentrancy policy of the kind
func WithReentrancy(policy *reentrancy.Reentrancy) KindOption {
	return KindOptionFunc(func(kind *kindDescriptor) {
		kind.reentrancy = policy
	})
}

// WithStatelessWorker makes the kind a stateless worker. The host keeps up to maxLocal
// activations per identity, never registers them in the directory and always places
// them locally. Messages go to the first idle activation in creation order, and a new
// activation is only created when all existing ones are busy.
func WithStatelessWorker(maxLocal int) KindOption {
	return KindOptionFunc(func(kind *kindDescriptor) {
		kind.statelessWorker = true
		kind.maxLocalWorkers = maxLocal
	})
}

// kindDescriptor is the capability table entry of an actor kind.
// It is immutable once registered.
type kindDescriptor struct {
	name            string
	factory         Factory
	strategy        passivation.Strategy
	reentrancy      *reentrancy.Reentrancy
	statelessWorker bool
	maxLocalWorkers int
}

func newKindDescriptor(name string, factory Factory, defaultAgeLimit time.Duration, opts ...KindOption) *kindDescriptor {
	kind := &kindDescriptor{
		name:       name,
		factory:    factory,
		strategy:   passivation.NewTimeBasedStrategy(defaultAgeLimit),
		reentrancy: reentrancy.New(),
	}
	for _, opt := range opts {
		opt.Apply(kind)
	}
	return kind
}

// validate checks the kind against the host collection settings
func (k *kindDescriptor) validate(quantum time.Duration, enforceMinimum bool) error {
	err := validation.New(validation.FailFast()).
		AddValidator(validation.NewPatternValidator("kind", kindNamePattern, k.name)).
		AddAssertion(k.factory != nil, "actor factory is required").
		AddAssertion(k.reentrancy != nil, "reentrancy policy is required").
		AddAssertion(!k.statelessWorker || k.maxLocalWorkers > 0, "stateless worker requires a positive max local activations").
		Validate()
	if err != nil {
		return err
	}

	if err := k.reentrancy.Validate(); err != nil {
		return err
	}

	ageLimit := k.ageLimit()
	if enforceMinimum && ageLimit > 0 && ageLimit < 2*quantum {
		return gerrors.NewErrInvalidAgeLimit(k.name, ageLimit, 2*quantum)
	}
	return nil
}

// ageLimit returns the idle duration after which activations are collected, zero for never
func (k *kindDescriptor) ageLimit() time.Duration {
	if k.strategy == nil {
		return 0
	}
	return k.strategy.AgeLimit()
}

func (k *kindDescriptor) isCollectible() bool {
	return passivation.IsCollectible(k.strategy)
}

func (k *kindDescriptor) isReentrant() bool {
	return k.reentrancy.IsReentrant()
}

func (k *kindDescriptor) maxInFlight() int {
	if !k.isReentrant() {
		return 1
	}
	return k.reentrancy.MaxInFlight()
}
