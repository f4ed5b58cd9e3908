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

package passivation

import (
	"fmt"
	"time"
)

// Strategy decides whether the activations of an actor kind are reclaimed by idle collection.
type Strategy interface {
	fmt.Stringer
	Name() string
	// AgeLimit returns how long an activation may stay idle before it becomes
	// eligible for collection. Zero means never collected.
	AgeLimit() time.Duration
}

// TimeBasedStrategy makes activations eligible once they have been idle for the age limit.
// An age limit of zero disables collection for the kind.
type TimeBasedStrategy struct {
	ageLimit time.Duration
}

var _ Strategy = (*TimeBasedStrategy)(nil)

// NewTimeBasedStrategy creates a TimeBasedStrategy
//
// Example:
//
//	strategy := passivation.NewTimeBasedStrategy(10 * time.Minute)
func NewTimeBasedStrategy(ageLimit time.Duration) *TimeBasedStrategy {
	if ageLimit < 0 {
		ageLimit = 0
	}
	return &TimeBasedStrategy{ageLimit: ageLimit}
}

// AgeLimit implements Strategy
func (t *TimeBasedStrategy) AgeLimit() time.Duration {
	return t.ageLimit
}

// String implements Strategy
func (t *TimeBasedStrategy) String() string {
	return fmt.Sprintf("Time-Based with age limit of %s", t.ageLimit)
}

// Name implements Strategy
func (t *TimeBasedStrategy) Name() string {
	return "TimeBased"
}

// LongLivedStrategy excludes the kind from idle collection. Its activations only
// leave the host through explicit deactivation or host shutdown.
type LongLivedStrategy struct{}

var _ Strategy = (*LongLivedStrategy)(nil)

// NewLongLivedStrategy creates a LongLivedStrategy
func NewLongLivedStrategy() *LongLivedStrategy {
	return &LongLivedStrategy{}
}

// AgeLimit implements Strategy
func (l *LongLivedStrategy) AgeLimit() time.Duration {
	return 0
}

// String implements Strategy
func (l *LongLivedStrategy) String() string {
	return "Long Lived"
}

// Name implements Strategy
func (l *LongLivedStrategy) Name() string {
	return "LongLived"
}

// IsCollectible reports whether activations governed by strategy are ever collected
func IsCollectible(strategy Strategy) bool {
	return strategy != nil && strategy.AgeLimit() > 0
}
