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

package metric

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the name of the meter of the host instruments
const InstrumentationName = "github.com/tochemey/silo"

// DefaultMeter returns the meter of the global otel meter provider
func DefaultMeter() metric.Meter {
	return otel.GetMeterProvider().Meter(InstrumentationName)
}

// HostMetric groups the OpenTelemetry instruments of a host.
//
// Instruments:
//   - silo.activations.count      (Int64ObservableUpDownCounter)
//   - silo.activations.created    (Int64Counter)
//   - silo.activations.failed     (Int64Counter)
//   - silo.activations.collected  (Int64Counter)
//   - silo.turns.faulted          (Int64Counter)
//   - silo.messages.forwarded     (Int64Counter)
//   - silo.collection.duration    (Float64Histogram, unit "s")
type HostMetric struct {
	activationsCount     metric.Int64ObservableUpDownCounter
	activationsCreated   metric.Int64Counter
	activationsFailed    metric.Int64Counter
	activationsCollected metric.Int64Counter
	turnsFaulted         metric.Int64Counter
	messagesForwarded    metric.Int64Counter
	collectionDuration   metric.Float64Histogram
}

// NewHostMetric creates the host instruments using meter.
// It returns the first instrument creation error.
func NewHostMetric(meter metric.Meter) (*HostMetric, error) {
	var (
		instruments HostMetric
		err         error
	)

	if instruments.activationsCount, err = meter.Int64ObservableUpDownCounter(
		"silo.activations.count",
		metric.WithDescription("Number of live activations on the host"),
	); err != nil {
		return nil, err
	}

	if instruments.activationsCreated, err = meter.Int64Counter(
		"silo.activations.created",
		metric.WithDescription("Total number of activations that reached the valid state"),
	); err != nil {
		return nil, err
	}

	if instruments.activationsFailed, err = meter.Int64Counter(
		"silo.activations.failed",
		metric.WithDescription("Total number of activations whose activation hook failed"),
	); err != nil {
		return nil, err
	}

	if instruments.activationsCollected, err = meter.Int64Counter(
		"silo.activations.collected",
		metric.WithDescription("Total number of activations reclaimed by idle collection"),
	); err != nil {
		return nil, err
	}

	if instruments.turnsFaulted, err = meter.Int64Counter(
		"silo.turns.faulted",
		metric.WithDescription("Total number of turns that failed"),
	); err != nil {
		return nil, err
	}

	if instruments.messagesForwarded, err = meter.Int64Counter(
		"silo.messages.forwarded",
		metric.WithDescription("Total number of messages forwarded after a stale lookup"),
	); err != nil {
		return nil, err
	}

	if instruments.collectionDuration, err = meter.Float64Histogram(
		"silo.collection.duration",
		metric.WithDescription("Duration of a collection pass"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ActivationsCount is observed through Meter.RegisterCallback
func (x *HostMetric) ActivationsCount() metric.Int64ObservableUpDownCounter {
	return x.activationsCount
}

// ActivationsCreated counts activations that reached the valid state
func (x *HostMetric) ActivationsCreated() metric.Int64Counter {
	return x.activationsCreated
}

// ActivationsFailed counts failed activation attempts
func (x *HostMetric) ActivationsFailed() metric.Int64Counter {
	return x.activationsFailed
}

// ActivationsCollected counts activations reclaimed by collection
func (x *HostMetric) ActivationsCollected() metric.Int64Counter {
	return x.activationsCollected
}

// TurnsFaulted counts failed turns
func (x *HostMetric) TurnsFaulted() metric.Int64Counter {
	return x.turnsFaulted
}

// MessagesForwarded counts forwarded messages
func (x *HostMetric) MessagesForwarded() metric.Int64Counter {
	return x.messagesForwarded
}

// CollectionDuration records the duration of each collection pass
func (x *HostMetric) CollectionDuration() metric.Float64Histogram {
	return x.collectionDuration
}
