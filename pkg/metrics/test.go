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

package metrics

import (
	"sort"
	"strings"
	"sync"
)

type testValues struct {
	mtx    sync.Mutex
	values map[string]float64
}

func newTestValues() *testValues {
	return &testValues{values: make(map[string]float64)}
}

func (v *testValues) add(key string, delta float64) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.values[key] += delta
}

func (v *testValues) set(key string, value float64) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.values[key] = value
}

func (v *testValues) value(key string) float64 {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.values[key]
}

// labelsKey computes a canonical key for a label set, so metrics derived
// via With calls in different orders refer to the same series.
func labelsKey(labelValues []string) string {
	pairs := make([]string, 0, len(labelValues)/2+1)
	for i := 0; i+1 < len(labelValues); i += 2 {
		pairs = append(pairs, labelValues[i]+"="+labelValues[i+1])
	}
	if len(labelValues)%2 != 0 {
		pairs = append(pairs, labelValues[len(labelValues)-1]+"=")
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

// TestCounter implements the Counter interface for testing purposes. The
// current value can be read with CounterValue.
type TestCounter struct {
	values *testValues
	labels []string
}

// NewTestCounter creates a counter for testing purposes. Counters derived
// from it via With share the same backing store, with one value per label
// set.
func NewTestCounter() *TestCounter {
	return &TestCounter{values: newTestValues()}
}

// With returns a counter tracking the value for the extended label set.
func (c *TestCounter) With(labelValues ...string) Counter {
	return &TestCounter{
		values: c.values,
		labels: append(append([]string{}, c.labels...), labelValues...),
	}
}

// Add increases the counter by delta.
func (c *TestCounter) Add(delta float64) {
	c.values.add(labelsKey(c.labels), delta)
}

// TestGauge implements the Gauge interface for testing purposes. The
// current value can be read with GaugeValue.
type TestGauge struct {
	values *testValues
	labels []string
}

// NewTestGauge creates a gauge for testing purposes. Gauges derived from it
// via With share the same backing store, with one value per label set.
func NewTestGauge() *TestGauge {
	return &TestGauge{values: newTestValues()}
}

// With returns a gauge tracking the value for the extended label set.
func (g *TestGauge) With(labelValues ...string) Gauge {
	return &TestGauge{
		values: g.values,
		labels: append(append([]string{}, g.labels...), labelValues...),
	}
}

// Set sets the gauge to value.
func (g *TestGauge) Set(value float64) {
	g.values.set(labelsKey(g.labels), value)
}

// Add increases the gauge by delta.
func (g *TestGauge) Add(delta float64) {
	g.values.add(labelsKey(g.labels), delta)
}

// CounterValue reads the current value of a counter created with
// NewTestCounter. The function panics if the counter is of a different
// type.
func CounterValue(c Counter) float64 {
	tc := c.(*TestCounter)
	return tc.values.value(labelsKey(tc.labels))
}

// GaugeValue reads the current value of a gauge created with NewTestGauge.
// The function panics if the gauge is of a different type.
func GaugeValue(g Gauge) float64 {
	tg := g.(*TestGauge)
	return tg.values.value(labelsKey(tg.labels))
}
