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

package boundary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gatewatch/gatewatch/pkg/private/prom"
)

// These are the metrics exposed by the boundary daemon.
var (
	WatcherCyclesTotalMeta = MetricMeta{
		Name:   "boundary_watcher_cycles_total",
		Help:   "Total number of watcher pipeline cycles, by result.",
		Labels: []string{"result"},
	}
	WatcherFailuresStreakMeta = MetricMeta{
		Name:   "boundary_watcher_failures_streak",
		Help:   "Number of consecutive failed watcher cycles.",
		Labels: []string{},
	}
	ActiveGenerationMeta = MetricMeta{
		Name:   "boundary_active_generation",
		Help:   "Generation of the active routing table.",
		Labels: []string{},
	}
	SourceStalenessMeta = MetricMeta{
		Name:   "boundary_source_staleness_seconds",
		Help:   "Age of the source timestamp of the last validated routing table.",
		Labels: []string{},
	}
	FetchesTotalMeta = MetricMeta{
		Name:   "boundary_fetches_total",
		Help:   "Total number of routing table fetches, by result.",
		Labels: []string{"result"},
	}
	FetchPayloadBytesMeta = MetricMeta{
		Name:   "boundary_fetch_payload_bytes",
		Help:   "Size of the fetched routing table payloads.",
		Labels: []string{},
	}
)

type MetricMeta struct {
	Name   string
	Help   string
	Labels []string
}

func (mm *MetricMeta) NewCounterVec() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: mm.Name,
			Help: mm.Help,
		},
		mm.Labels,
	)
}

func (mm *MetricMeta) NewGaugeVec() *prometheus.GaugeVec {
	return promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: mm.Name,
			Help: mm.Help,
		},
		mm.Labels,
	)
}

func (mm *MetricMeta) NewHistogramVec(buckets []float64) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    mm.Name,
			Help:    mm.Help,
			Buckets: buckets,
		},
		mm.Labels,
	)
}

// Metrics defines the metrics exported by the boundary daemon.
type Metrics struct {
	// Watcher Metrics
	WatcherCyclesTotal    *prometheus.CounterVec
	WatcherFailuresStreak *prometheus.GaugeVec
	ActiveGeneration      *prometheus.GaugeVec
	SourceStaleness       *prometheus.GaugeVec

	// Fetch Metrics
	FetchesTotal      *prometheus.CounterVec
	FetchPayloadBytes *prometheus.HistogramVec
}

// NewMetrics initializes the metrics for the boundary daemon and registers
// them with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		WatcherCyclesTotal:    WatcherCyclesTotalMeta.NewCounterVec(),
		WatcherFailuresStreak: WatcherFailuresStreakMeta.NewGaugeVec(),
		ActiveGeneration:      ActiveGenerationMeta.NewGaugeVec(),
		SourceStaleness:       SourceStalenessMeta.NewGaugeVec(),
		FetchesTotal:          FetchesTotalMeta.NewCounterVec(),
		FetchPayloadBytes:     FetchPayloadBytesMeta.NewHistogramVec(prom.DefaultSizeBuckets),
	}
}
