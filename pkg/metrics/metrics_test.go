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

package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/pkg/metrics"
)

func TestTestCounterLabels(t *testing.T) {
	c := metrics.NewTestCounter()
	metrics.CounterInc(c.With("result", "ok"))
	metrics.CounterAdd(c.With("result", "err"), 3)
	metrics.CounterInc(c.With("result", "ok"))

	assert.Equal(t, 2.0, metrics.CounterValue(c.With("result", "ok")))
	assert.Equal(t, 3.0, metrics.CounterValue(c.With("result", "err")))
	assert.Equal(t, 0.0, metrics.CounterValue(c))
}

func TestTestCounterLabelOrder(t *testing.T) {
	c := metrics.NewTestCounter()
	metrics.CounterInc(c.With("a", "1", "b", "2"))
	assert.Equal(t, 1.0, metrics.CounterValue(c.With("b", "2", "a", "1")))
}

func TestTestGauge(t *testing.T) {
	g := metrics.NewTestGauge()
	metrics.GaugeSet(g, 42)
	metrics.GaugeAdd(g, -2)
	assert.Equal(t, 40.0, metrics.GaugeValue(g))

	sub := g.With("state", "up")
	metrics.GaugeSet(sub, 1)
	assert.Equal(t, 1.0, metrics.GaugeValue(sub))
	assert.Equal(t, 40.0, metrics.GaugeValue(g))
}

func TestNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.CounterInc(nil)
		metrics.CounterAdd(nil, 1)
		metrics.GaugeSet(nil, 1)
		metrics.GaugeAdd(nil, 1)
		metrics.GaugeSetCurrentTime(nil)
		metrics.HistogramObserve(nil, 1)
	})
	assert.Nil(t, metrics.CounterWith(nil, "a", "b"))
	assert.Nil(t, metrics.GaugeWith(nil, "a", "b"))
	assert.Nil(t, metrics.HistogramWith(nil, "a", "b"))
}
