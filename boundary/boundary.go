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

// Package boundary implements the boundary daemon. It keeps the routing
// table of a reverse proxy in sync with the control plane: snapshots are
// fetched over HTTP, validated, rendered into the artifact the proxy
// consumes, installed atomically, and activated with a graceful proxy
// reload.
package boundary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/boundary/dataplane"
	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/metrics"
	"github.com/gatewatch/gatewatch/pkg/private/prom"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/private/periodic"
	"github.com/gatewatch/gatewatch/private/service"
)

// stalenessCheckInterval is the cadence at which the age of the active
// snapshot is measured and exported.
const stalenessCheckInterval = 10 * time.Second

type Boundary struct {
	// ID is the ID of this boundary daemon.
	ID string

	// Sources is the ordered list of control-plane endpoints serving the
	// routing table snapshot.
	Sources []string
	// PollInterval is the interval between refresh attempts.
	PollInterval time.Duration
	// FetchTimeout bounds a single fetch attempt against one source.
	FetchTimeout time.Duration
	// BackoffMax caps the exponential backoff after consecutive failures.
	BackoffMax time.Duration
	// SourceTTL is how long the last healthy source stays preferred.
	SourceTTL time.Duration
	// StalenessThreshold is the age of the active snapshot beyond which a
	// staleness warning is logged. Zero disables the warning.
	StalenessThreshold time.Duration
	// StuckThreshold is the number of consecutive failed refresh attempts
	// after which the watcher reports itself as stuck.
	StuckThreshold int

	// ArtifactPath is the destination path of the rendered routing artifact.
	ArtifactPath string
	// CheckCommand validates the installed artifact before the proxy is
	// signaled.
	CheckCommand []string
	// ReloadCommand signals the reverse proxy to pick up the artifact.
	ReloadCommand []string
	// CommandTimeout bounds a single check or reload command invocation.
	CommandTimeout time.Duration
	// ReloadDryRun stops after a successful artifact check without
	// signaling the proxy.
	ReloadDryRun bool

	// PollTrigger can be used to trigger an out-of-band refresh cycle.
	PollTrigger <-chan struct{}
	// HTTPEndpoints is a map of http endpoints.
	HTTPEndpoints service.StatusPages
	// HTTPServeMux is the http server mux that is used to expose boundary
	// http endpoints.
	HTTPServeMux *http.ServeMux

	// Metrics are the metrics exported by the boundary daemon.
	Metrics *Metrics

	// mtx protects the fields below.
	mtx       sync.Mutex
	running   bool
	watcher   *control.Watcher
	published *control.PublishedTable
}

func (b *Boundary) Run(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Debug("Boundary starting up...")

	// *************************************************************************
	// Set up the refresh pipeline. The source client fetches snapshots from
	// the control plane, the installer owns the artifact on disk, and the
	// reloader drives the proxy check and reload commands. The watcher
	// periodically runs the pipeline and keeps the last good table active.
	// *************************************************************************
	sourceClient := &control.SourceClient{
		Sources:   b.Sources,
		Timeout:   b.FetchTimeout,
		SourceTTL: b.SourceTTL,
		Metrics:   CreateSourceClientMetrics(b.Metrics),
	}
	installer := &dataplane.Installer{
		ArtifactPath: b.ArtifactPath,
	}
	reloader := &dataplane.Reloader{
		CheckCommand:   b.CheckCommand,
		ReloadCommand:  b.ReloadCommand,
		CommandTimeout: b.CommandTimeout,
		Rollback:       installer,
		DryRun:         b.ReloadDryRun,
	}
	published := &control.PublishedTable{}
	watcher := &control.Watcher{
		Fetcher:        sourceClient,
		Validator:      control.TableValidator{},
		Renderer:       dataplane.Renderer{},
		Installer:      installer,
		Reloader:       reloader,
		Published:      published,
		PollInterval:   b.PollInterval,
		BackoffMax:     b.BackoffMax,
		StuckThreshold: b.StuckThreshold,
		Trigger:        b.PollTrigger,
		Metrics:        CreateWatcherMetrics(b.Metrics),
	}
	if err := b.markRunning(watcher, published); err != nil {
		return err
	}

	go func() {
		defer log.HandlePanic()
		if err := watcher.Run(ctx); err != nil {
			panic(err)
		}
	}()
	logger.Debug("Routing table watcher started.")

	// Periodically measure how old the active snapshot is. Stale tables stay
	// active, staleness is only surfaced to metrics and logs.
	var stalenessGauge metrics.Gauge
	if b.Metrics != nil {
		stalenessGauge = metrics.NewPromGauge(b.Metrics.SourceStaleness)
	}
	var wasStale bool
	stalenessMonitor := periodic.Start(periodic.Func{
		Task: func(ctx context.Context) {
			status := watcher.Status()
			if status.SourceTimestamp.IsZero() {
				return
			}
			age := time.Since(status.SourceTimestamp)
			metrics.GaugeSet(stalenessGauge, age.Seconds())
			stale := b.StalenessThreshold != 0 && age > b.StalenessThreshold
			if stale && !wasStale {
				log.FromCtx(ctx).Info("Routing table snapshot is stale",
					"age", age, "threshold", b.StalenessThreshold)
			}
			wasStale = stale
		},
		TaskName: "staleness_monitor",
	}, stalenessCheckInterval, stalenessCheckInterval)
	defer stalenessMonitor.Stop()
	logger.Debug("Staleness monitor started.")

	b.HTTPEndpoints["status"] = service.StatusPage{
		Info:    "watcher status (state, active generation, failure streak)",
		Handler: b.StatusHandler(),
	}
	b.HTTPEndpoints["routes"] = service.StatusPage{
		Info:    "active routing table",
		Handler: b.RoutesHandler(),
	}
	b.HTTPEndpoints["routes/diagnostics"] = service.StatusPage{
		Info:    "routing table diagnostics",
		Handler: b.RoutesDiagnosticsHandler(),
	}
	if err := b.HTTPEndpoints.Register(b.HTTPServeMux, b.ID); err != nil {
		return serrors.Wrap("registering HTTP pages", err)
	}
	<-ctx.Done()
	return nil
}

// markRunning guards against double starts and makes the pipeline handles
// available to the HTTP handlers.
func (b *Boundary) markRunning(w *control.Watcher, p *control.PublishedTable) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.running {
		return serrors.New("is running")
	}
	b.running = true
	b.watcher = w
	b.published = p
	return nil
}

func (b *Boundary) watcherInstance() *control.Watcher {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.watcher
}

func (b *Boundary) publishedTable() *control.PublishedTable {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.published
}

// DiagnosticsWrite writes human readable diagnostics to the writer.
func (b *Boundary) DiagnosticsWrite(w io.Writer) {
	watcher := b.watcherInstance()
	if watcher == nil {
		io.WriteString(w, "Watcher not running.\n")
		return
	}
	watcher.DiagnosticsWrite(w)
}

// StatusHandler returns an http handler that writes the watcher status as
// JSON.
func (b *Boundary) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		watcher := b.watcherInstance()
		if watcher == nil {
			http.Error(w, "watcher not running", http.StatusServiceUnavailable)
			return
		}
		jsonData, err := json.MarshalIndent(watcher.Status(), "", "    ")
		if err != nil {
			log.Error("json marshalling", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(jsonData)
	}
}

// RoutesHandler returns an http handler that writes the active routing
// table as JSON.
func (b *Boundary) RoutesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		published := b.publishedTable()
		if published == nil {
			http.Error(w, "watcher not running", http.StatusServiceUnavailable)
			return
		}
		table := published.Load()
		if table == nil {
			http.Error(w, "no routing table active", http.StatusServiceUnavailable)
			return
		}
		jsonData, err := json.MarshalIndent(table, "", "    ")
		if err != nil {
			log.Error("json marshalling", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(jsonData)
	}
}

// RoutesDiagnosticsHandler returns an http handler that writes human
// readable diagnostics of the watcher and the active routing table.
func (b *Boundary) RoutesDiagnosticsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.DiagnosticsWrite(w)
	}
}

func CreateWatcherMetrics(m *Metrics) control.WatcherMetrics {
	if m == nil {
		return control.WatcherMetrics{}
	}
	return control.WatcherMetrics{
		Cycles: func(result string) metrics.Counter {
			return metrics.NewPromCounter(m.WatcherCyclesTotal).
				With(prom.LabelResult, result)
		},
		FailureStreak:    metrics.NewPromGauge(m.WatcherFailuresStreak),
		ActiveGeneration: metrics.NewPromGauge(m.ActiveGeneration),
	}
}

func CreateSourceClientMetrics(m *Metrics) control.SourceClientMetrics {
	if m == nil {
		return control.SourceClientMetrics{}
	}
	fetches := metrics.NewPromCounter(m.FetchesTotal)
	return control.SourceClientMetrics{
		FetchesOK:     fetches.With(prom.LabelResult, prom.Success),
		FetchesFailed: fetches.With(prom.LabelResult, prom.ErrUnavailable),
		PayloadBytes:  metrics.NewPromHistogram(m.FetchPayloadBytes),
	}
}
