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

package control

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/metrics"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/pkg/private/util"
	"github.com/gatewatch/gatewatch/private/tracing"
	"github.com/gatewatch/gatewatch/private/worker"
)

const (
	// defaultPollInterval is the default time between consecutive poll cycles.
	defaultPollInterval = 15 * time.Second
	// defaultBackoffMax caps the backoff between cycles after consecutive
	// failures.
	defaultBackoffMax = 5 * time.Minute
	// defaultStuckThreshold is the default failure streak at which the
	// watcher reports itself as stuck.
	defaultStuckThreshold = 10
)

var (
	// ErrFetch indicates a cycle failed while fetching from the control plane.
	ErrFetch = serrors.New("fetching routing table")
	// ErrValidation indicates the fetched routing table was rejected.
	ErrValidation = serrors.New("validating routing table")
	// ErrInstall indicates rendering or installing the artifact failed.
	ErrInstall = serrors.New("installing routing artifact")
	// ErrReload indicates the proxy check or reload failed.
	ErrReload = serrors.New("reloading proxy")
)

// State identifies the pipeline stage the watcher is currently in.
type State string

// States the watcher moves through during a cycle. Between cycles the
// watcher is idle.
const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateValidating State = "validating"
	StateRendering  State = "rendering"
	StateInstalling State = "installing"
	StateReloading  State = "reloading"
)

// Cycle result labels reported through WatcherMetrics.Cycles and tracing.
const (
	ResultUpdated       = "ok_updated"
	ResultUnchanged     = "ok_unchanged"
	ResultErrFetch      = "err_fetch"
	ResultErrValidation = "err_validation"
	ResultErrInstall    = "err_install"
	ResultErrReload     = "err_reload"
)

// Fetcher retrieves the current routing table from the control plane.
type Fetcher interface {
	Fetch(ctx context.Context) (*RoutingTable, error)
}

// Validator decides whether a fetched routing table may replace the active
// one. The active table is nil until the first table has been activated.
type Validator interface {
	Validate(table, active *RoutingTable) error
}

// Renderer serializes a routing table into the artifact consumed by the
// reverse proxy.
type Renderer interface {
	Render(table *RoutingTable) ([]byte, error)
}

// Installer atomically installs a rendered artifact. The boolean return
// reports whether the destination changed; installing bytes identical to
// the currently installed artifact changes nothing.
type Installer interface {
	Install(ctx context.Context, artifact []byte) (bool, error)
}

// Reloader makes the reverse proxy pick up the installed artifact.
type Reloader interface {
	Reload(ctx context.Context) error
}

// WatcherMetrics contains the metrics the Watcher reports.
type WatcherMetrics struct {
	// Cycles returns a counter for finished cycles with the given result
	// label. If nil, cycle results are not counted.
	Cycles func(result string) metrics.Counter
	// FailureStreak is the number of consecutive failed cycles.
	FailureStreak metrics.Gauge
	// ActiveGeneration is the generation of the active routing table.
	ActiveGeneration metrics.Gauge
}

// Status is a point-in-time snapshot of the watcher for observers such as
// the management API.
type Status struct {
	// State is the pipeline stage the watcher is currently in.
	State State `json:"state"`
	// ActiveGeneration is the generation of the active routing table. It is
	// zero until the first table has been activated.
	ActiveGeneration uint64 `json:"active_generation"`
	// ActiveDigest is the digest of the active routing table.
	ActiveDigest string `json:"active_digest,omitempty"`
	// SourceTimestamp is the source timestamp of the last routing table that
	// passed validation, whether or not it changed the active table.
	SourceTimestamp time.Time `json:"source_timestamp"`
	// LastSuccess is when the last cycle finished successfully.
	LastSuccess time.Time `json:"last_success"`
	// LastError describes the most recent cycle failure, empty after a
	// successful cycle.
	LastError string `json:"last_error,omitempty"`
	// FailureStreak is the number of consecutive failed cycles.
	FailureStreak int `json:"failure_streak"`
	// Stuck is set once the failure streak reaches the stuck threshold.
	Stuck bool `json:"stuck"`
}

// Watcher keeps the reverse proxy in sync with the control plane. Every
// cycle it fetches the routing table, validates it against the active one,
// renders it, installs the artifact and reloads the proxy.
//
// A failure in any stage ends the cycle without touching the active table;
// the proxy keeps serving the last successfully activated table while the
// watcher retries with capped exponential backoff. A fetched table whose
// content equals the active one ends the cycle early and resets the failure
// streak without touching the dataplane.
type Watcher struct {
	// Fetcher retrieves routing tables from the control plane. Must not be nil.
	Fetcher Fetcher
	// Validator decides whether a fetched table is acceptable. Must not be nil.
	Validator Validator
	// Renderer serializes accepted tables. Must not be nil.
	Renderer Renderer
	// Installer installs rendered artifacts. Must not be nil.
	Installer Installer
	// Reloader signals the proxy after an install. Must not be nil.
	Reloader Reloader
	// Published is where activated tables are published for observers. If
	// nil, tables are only tracked internally.
	Published *PublishedTable
	// PollInterval is the time between consecutive cycles. If zero, this
	// defaults to 15 seconds.
	PollInterval time.Duration
	// BackoffMax caps the backoff after consecutive failures. If zero, this
	// defaults to 5 minutes.
	BackoffMax time.Duration
	// StuckThreshold is the failure streak at which the watcher reports
	// itself as stuck. If zero, this defaults to 10.
	StuckThreshold int
	// Trigger causes an immediate cycle when it receives, bypassing both
	// the poll cadence and any backoff. Optional.
	Trigger <-chan struct{}
	// Metrics can be used to report watcher activity. If not initialized,
	// no metrics are reported.
	Metrics WatcherMetrics

	// active is the last activated table. It is only accessed by the run
	// loop.
	active *RoutingTable
	// notBefore delays the next regular cycle while backing off. It is only
	// accessed by the run loop.
	notBefore time.Time
	// reloadPending marks that the installed artifact has not been picked
	// up by the proxy yet. It is only accessed by the run loop.
	reloadPending bool

	// stateMtx protects the status snapshot below.
	stateMtx sync.RWMutex
	status   Status

	workerBase worker.Base
}

// Run drives the update pipeline until the context expires. A cycle that is
// in flight when the context expires finishes before Run returns, so an
// artifact is never left half installed and the proxy is never left with a
// pending reload. It must only be called once.
func (w *Watcher) Run(ctx context.Context) error {
	return w.workerBase.RunWrapper(ctx, w.setup, w.run)
}

func (w *Watcher) run(ctx context.Context) error {
	ctx, logger := log.WithLabels(ctx, "debug_id", log.NewDebugID().String())
	logger.Info("Starting routing table watcher", "poll_interval", w.PollInterval)
	defer logger.Info("Stopped routing table watcher")

	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()
	w.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if time.Now().Before(w.notBefore) {
				continue
			}
			w.runCycle(ctx)
			w.drainTick(ticker)
		case <-w.Trigger:
			logger.Debug("Out-of-band cycle triggered")
			w.runCycle(ctx)
			w.drainTick(ticker)
		}
	}
}

func (w *Watcher) runCycle(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "boundary.watcher.cycle")
	defer span.Finish()
	defer w.setState(StateIdle)
	logger := log.FromCtx(ctx)

	result, err := w.cycle(ctx)
	if err != nil && ctx.Err() != nil {
		logger.Debug("Cycle aborted by shutdown", "err", err)
		return
	}
	tracing.ResultLabel(span, result)
	tracing.Error(span, err)
	w.countCycle(result)
	if err == nil {
		w.clearFailure()
		return
	}
	streak, stuck := w.recordFailure(err)
	w.notBefore = time.Now().Add(w.backoffAfter(streak))
	if stuck {
		logger.Error("Watcher is stuck, keeping last-known-good table",
			"consecutive_failures", streak, "err", err)
		return
	}
	logger.Info("Cycle failed, keeping last-known-good table",
		"consecutive_failures", streak, "err", err)
}

// cycle runs one pass of the update pipeline and reports the result label
// for metrics and tracing.
func (w *Watcher) cycle(ctx context.Context) (string, error) {
	logger := log.FromCtx(ctx)

	w.setState(StateFetching)
	table, err := w.Fetcher.Fetch(ctx)
	if err != nil {
		return ResultErrFetch, serrors.Join(ErrFetch, err)
	}
	w.setState(StateValidating)
	if err := w.Validator.Validate(table, w.active); err != nil {
		return ResultErrValidation, serrors.Join(ErrValidation, err)
	}
	w.observeSource(table.SourceTimestamp)
	if table.Equal(w.active) && !w.reloadPending {
		logger.Debug("Routing table unchanged", "generation", table.Generation)
		return ResultUnchanged, nil
	}
	w.setState(StateRendering)
	artifact, err := w.Renderer.Render(table)
	if err != nil {
		return ResultErrInstall, serrors.Join(ErrInstall, err)
	}
	w.setState(StateInstalling)
	installed, err := w.Installer.Install(ctx, artifact)
	if err != nil {
		return ResultErrInstall, serrors.Join(ErrInstall, err)
	}
	if installed || w.reloadPending {
		w.setState(StateReloading)
		if err := w.Reloader.Reload(ctx); err != nil {
			// The artifact is on disk but the proxy has not picked it up.
			// The reload is retried on the next cycle even if nothing new
			// gets installed.
			w.reloadPending = true
			return ResultErrReload, serrors.Join(ErrReload, err)
		}
		w.reloadPending = false
	}
	w.activate(ctx, table, installed)
	return ResultUpdated, nil
}

// activate makes table the active routing table and publishes it.
func (w *Watcher) activate(ctx context.Context, table *RoutingTable, installed bool) {
	w.active = table
	if w.Published != nil {
		w.Published.Publish(table)
	}
	metrics.GaugeSet(w.Metrics.ActiveGeneration, float64(table.Generation))
	w.stateMtx.Lock()
	w.status.ActiveGeneration = table.Generation
	w.status.ActiveDigest = table.Digest()
	w.stateMtx.Unlock()
	log.FromCtx(ctx).Info("Activated routing table", "table", table, "installed", installed)
}

// drainTick drops a tick that fired while a cycle was running. Missed ticks
// are skipped, not queued.
func (w *Watcher) drainTick(ticker *time.Ticker) {
	select {
	case <-ticker.C:
	default:
	}
}

// backoffAfter computes the delay before the next regular cycle after the
// given failure streak. The first failure is retried at the regular poll
// cadence; from then on the delay doubles per consecutive failure, capped
// at BackoffMax. Out-of-band triggers are not delayed.
func (w *Watcher) backoffAfter(streak int) time.Duration {
	if streak <= 1 {
		return 0
	}
	backoff := w.PollInterval
	for i := 2; i <= streak; i++ {
		backoff *= 2
		if backoff >= w.BackoffMax {
			return w.BackoffMax
		}
	}
	return backoff
}

// Status returns a snapshot of the current watcher state.
func (w *Watcher) Status() Status {
	w.stateMtx.RLock()
	defer w.stateMtx.RUnlock()
	return w.status
}

// DiagnosticsWrite writes the watcher state followed by the active routing
// table to the writer.
func (w *Watcher) DiagnosticsWrite(wr io.Writer) {
	status := w.Status()
	fmt.Fprintf(wr, "State: %s\n", status.State)
	fmt.Fprintf(wr, "Failure streak: %d\n", status.FailureStreak)
	if status.Stuck {
		fmt.Fprintf(wr, "Stuck: %s\n", status.LastError)
	} else if status.LastError != "" {
		fmt.Fprintf(wr, "Last error: %s\n", status.LastError)
	}
	if !status.LastSuccess.IsZero() {
		fmt.Fprintf(wr, "Last success: %s\n", util.TimeToString(status.LastSuccess))
	}
	fmt.Fprintln(wr)
	if w.Published != nil {
		w.Published.DiagnosticsWrite(wr)
	}
}

func (w *Watcher) setState(state State) {
	w.stateMtx.Lock()
	defer w.stateMtx.Unlock()
	w.status.State = state
}

func (w *Watcher) observeSource(sourceTimestamp time.Time) {
	w.stateMtx.Lock()
	defer w.stateMtx.Unlock()
	w.status.SourceTimestamp = sourceTimestamp
}

func (w *Watcher) clearFailure() {
	w.notBefore = time.Time{}
	metrics.GaugeSet(w.Metrics.FailureStreak, 0)
	w.stateMtx.Lock()
	defer w.stateMtx.Unlock()
	w.status.FailureStreak = 0
	w.status.Stuck = false
	w.status.LastError = ""
	w.status.LastSuccess = time.Now()
}

func (w *Watcher) recordFailure(err error) (int, bool) {
	w.stateMtx.Lock()
	defer w.stateMtx.Unlock()
	w.status.FailureStreak++
	w.status.Stuck = w.status.FailureStreak >= w.StuckThreshold
	w.status.LastError = err.Error()
	metrics.GaugeSet(w.Metrics.FailureStreak, float64(w.status.FailureStreak))
	return w.status.FailureStreak, w.status.Stuck
}

func (w *Watcher) countCycle(result string) {
	if w.Metrics.Cycles == nil {
		return
	}
	metrics.CounterInc(w.Metrics.Cycles(result))
}

func (w *Watcher) setup(ctx context.Context) error {
	if w.Fetcher == nil {
		return serrors.New("fetcher must not be nil")
	}
	if w.Validator == nil {
		return serrors.New("validator must not be nil")
	}
	if w.Renderer == nil {
		return serrors.New("renderer must not be nil")
	}
	if w.Installer == nil {
		return serrors.New("installer must not be nil")
	}
	if w.Reloader == nil {
		return serrors.New("reloader must not be nil")
	}
	if w.PollInterval == 0 {
		w.PollInterval = defaultPollInterval
	}
	if w.BackoffMax == 0 {
		w.BackoffMax = defaultBackoffMax
	}
	if w.StuckThreshold <= 0 {
		w.StuckThreshold = defaultStuckThreshold
	}
	w.setState(StateIdle)
	return nil
}
