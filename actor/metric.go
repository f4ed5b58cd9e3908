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
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/silo/internal/metric"
)

const (
	statActivationsTotal  = "activations.total"
	statActivationsPrefix = "activations.kind."
	statCollectorBuckets  = "collector.buckets"
	statCollectorSize     = "collector.activations"
	statMessagesForwarded = "messages.forwarded"
	statDirectoryCached   = "directory.cached"
)

// registerMetrics creates the host instruments and observes the activation counts per kind
func (h *host) registerMetrics() error {
	meter := metric.DefaultMeter()
	if h.meterProvider != nil {
		meter = h.meterProvider.Meter(metric.InstrumentationName)
	}

	metrics, err := metric.NewHostMetric(meter)
	if err != nil {
		return err
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		for kind, count := range h.catalog.countsByKind() {
			observer.ObserveInt64(metrics.ActivationsCount(), count, h.kindAttributes(kind))
		}
		return nil
	}, metrics.ActivationsCount())
	if err != nil {
		return err
	}

	h.metric = metrics
	h.metricRegistration = registration
	return nil
}

// kindAttributes returns the measurement option tagging a measurement with the actor kind
func (h *host) kindAttributes(kind string) otelmetric.MeasurementOption {
	return otelmetric.WithAttributes(
		attribute.String("host", h.name),
		attribute.String("kind", kind),
	)
}

// registerStatistics exposes the host counters through the statistics registry
func (h *host) registerStatistics() {
	h.statistics.FindOrCreate(statActivationsTotal, func() string {
		return strconv.Itoa(h.catalog.total())
	})
	h.statistics.FindOrCreate(statCollectorBuckets, func() string {
		return strconv.Itoa(h.collector.bucketCount())
	})
	h.statistics.FindOrCreate(statCollectorSize, func() string {
		return strconv.Itoa(h.collector.size())
	})
	h.statistics.FindOrCreate(statMessagesForwarded, func() string {
		return strconv.FormatInt(h.forwarded.Load(), 10)
	})
	h.statistics.FindOrCreate(statDirectoryCached, func() string {
		return strconv.Itoa(h.dirClient.Len())
	})
}

// registerKindStatistic exposes the activation count of kind
func (h *host) registerKindStatistic(kind string) {
	h.statistics.FindOrCreate(statActivationsPrefix+kind, func() string {
		return strconv.Itoa(h.catalog.count(kind))
	})
}
