// Copyright 2025 Gatewatch Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics defines and implements a generic interface to interact
// with different metric backends. The interfaces are taken from the
// go-kit/kit project, so all backends supported by go-kit are trivial to
// plug in.
//
// Components that keep metrics accept the interfaces defined here and do
// not care about the backend. A nil metric is always valid and discards
// the measurement; the package-level helper functions below are nil-safe
// so callers do not have to guard every update.
package metrics

import (
	"time"
)

// Counter describes a metric that accumulates values monotonically.
type Counter interface {
	With(labelValues ...string) Counter
	Add(delta float64)
}

// Gauge describes a metric that takes specific values over time.
type Gauge interface {
	With(labelValues ...string) Gauge
	Set(value float64)
	Add(delta float64)
}

// Histogram describes a metric that takes repeated observations of the same
// kind of thing, and produces a statistical summary of those observations,
// typically expressed as quantiles or buckets.
type Histogram interface {
	With(labelValues ...string) Histogram
	Observe(value float64)
}

// CounterWith returns a counter with the labels applied. If the input
// counter is nil, nil is returned.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// CounterAdd increases the passed counter by the amount specified, if the
// counter is non-nil.
func CounterAdd(c Counter, delta float64) {
	if c != nil {
		c.Add(delta)
	}
}

// CounterInc increases the passed counter by 1, if the counter is non-nil.
func CounterInc(c Counter) {
	CounterAdd(c, 1)
}

// GaugeWith returns a gauge with the labels applied. If the input gauge is
// nil, nil is returned.
func GaugeWith(g Gauge, labelValues ...string) Gauge {
	if g == nil {
		return nil
	}
	return g.With(labelValues...)
}

// GaugeSet sets the passed gauge to the value specified, if the gauge is
// non-nil.
func GaugeSet(g Gauge, value float64) {
	if g != nil {
		g.Set(value)
	}
}

// GaugeAdd increases the passed gauge by the amount specified, if the gauge
// is non-nil.
func GaugeAdd(g Gauge, delta float64) {
	if g != nil {
		g.Add(delta)
	}
}

// GaugeSetTimestamp sets the passed gauge to the timestamp in seconds since
// the UNIX epoch, if the gauge is non-nil.
func GaugeSetTimestamp(g Gauge, ts time.Time) {
	if g != nil {
		g.Set(float64(ts.UnixNano() / 1e9))
	}
}

// GaugeSetCurrentTime sets the passed gauge to the current time in seconds
// since the UNIX epoch, if the gauge is non-nil.
func GaugeSetCurrentTime(g Gauge) {
	GaugeSetTimestamp(g, time.Now())
}

// HistogramWith returns a histogram with the labels applied. If the input
// histogram is nil, nil is returned.
func HistogramWith(h Histogram, labelValues ...string) Histogram {
	if h == nil {
		return nil
	}
	return h.With(labelValues...)
}

// HistogramObserve adds an observation to the histogram, if the histogram
// is non-nil.
func HistogramObserve(h Histogram, value float64) {
	if h != nil {
		h.Observe(value)
	}
}
