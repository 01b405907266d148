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

package control_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/boundary/control/mock_control"
	"github.com/gatewatch/gatewatch/boundary/dataplane"
	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/log/testlog"
	"github.com/gatewatch/gatewatch/pkg/metrics"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// snapshot builds a well-formed two subnet routing table.
func snapshot(generation uint64, stamp time.Time) *control.RoutingTable {
	return &control.RoutingTable{
		Generation: generation,
		Subnets: []control.Subnet{
			{
				ID:         "uzr34-subnet",
				RangeStart: 0,
				RangeEnd:   1 << 20,
				Nodes: []control.Endpoint{
					{Host: "10.0.1.10", Port: 8443, Protocol: "https"},
					{Host: "10.0.1.11", Port: 8443, Protocol: "https"},
				},
			},
			{
				ID:         "tdb26-subnet",
				RangeStart: 1 << 20,
				RangeEnd:   1 << 21,
				Nodes: []control.Endpoint{
					{Host: "10.0.2.10", Port: 8443, Protocol: "https"},
				},
			},
		},
		SourceTimestamp: stamp,
	}
}

// artifactMatcher matches the installed artifact against the table it must
// have been rendered from.
type artifactMatcher struct {
	Table *control.RoutingTable
}

func (m artifactMatcher) Matches(x any) bool {
	raw, ok := x.([]byte)
	if !ok {
		return false
	}
	want, err := dataplane.Renderer{}.Render(m.Table)
	if err != nil {
		return false
	}
	return cmp.Equal(raw, want)
}

func (m artifactMatcher) String() string {
	return fmt.Sprintf("artifact rendered from generation %d", m.Table.Generation)
}

// startWatcher runs the watcher in the background. The returned stop
// function blocks until the watcher has terminated and can be called more
// than once.
func startWatcher(t *testing.T, w *control.Watcher) (stop func()) {
	ctx, cancel := context.WithCancel(
		log.CtxWith(context.Background(), testlog.NewLogger(t)))
	g, errCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(errCtx)
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, g.Wait())
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func waitStatus(t *testing.T, w *control.Watcher,
	cond func(control.Status) bool) control.Status {

	t.Helper()
	var status control.Status
	require.Eventually(t, func() bool {
		status = w.Status()
		return cond(status)
	}, 5*time.Second, 10*time.Millisecond)
	return status
}

func TestWatcherUpdateFlow(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stamp := time.Unix(1700000000, 0).UTC()
	gen1 := snapshot(1, stamp)
	gen1Restamped := snapshot(1, stamp.Add(30*time.Second))
	gen2Broken := snapshot(2, stamp.Add(time.Minute))
	gen2Broken.Subnets[1].Nodes = nil
	gen2 := snapshot(2, stamp.Add(2*time.Minute))
	gen2.Subnets[0].Nodes = gen2.Subnets[0].Nodes[:1]

	fetcher := mock_control.NewMockFetcher(ctrl)
	installer := mock_control.NewMockInstaller(ctrl)
	reloader := mock_control.NewMockReloader(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen1, nil),
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen1Restamped, nil),
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen2Broken, nil),
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen2, nil),
	)
	gomock.InOrder(
		installer.EXPECT().
			Install(gomock.Any(), artifactMatcher{Table: gen1}).Return(true, nil),
		installer.EXPECT().
			Install(gomock.Any(), artifactMatcher{Table: gen2}).Return(true, nil),
	)
	reloader.EXPECT().Reload(gomock.Any()).Return(nil).Times(2)

	published := &control.PublishedTable{}
	cycles := metrics.NewTestCounter()
	trigger := make(chan struct{})
	w := &control.Watcher{
		Fetcher:      fetcher,
		Validator:    control.TableValidator{},
		Renderer:     dataplane.Renderer{},
		Installer:    installer,
		Reloader:     reloader,
		Published:    published,
		PollInterval: time.Hour,
		Trigger:      trigger,
		Metrics: control.WatcherMetrics{
			Cycles: func(result string) metrics.Counter {
				return cycles.With("result", result)
			},
			FailureStreak:    metrics.NewTestGauge(),
			ActiveGeneration: metrics.NewTestGauge(),
		},
	}
	stop := startWatcher(t, w)
	defer stop()

	// The first cycle runs immediately and activates generation 1.
	status := waitStatus(t, w, func(s control.Status) bool {
		return s.ActiveGeneration == 1
	})
	assert.Zero(t, status.FailureStreak)
	require.NotNil(t, published.Load())
	assert.True(t, published.Load().Equal(gen1))

	// A re-stamped snapshot with identical content ends the cycle without
	// touching the dataplane; the source timestamp still advances.
	prev := status.LastSuccess
	trigger <- struct{}{}
	status = waitStatus(t, w, func(s control.Status) bool {
		return s.LastSuccess.After(prev)
	})
	assert.EqualValues(t, 1, status.ActiveGeneration)
	assert.Equal(t, stamp.Add(30*time.Second), status.SourceTimestamp)

	// A snapshot with an empty node list is rejected and generation 1
	// stays active.
	trigger <- struct{}{}
	status = waitStatus(t, w, func(s control.Status) bool {
		return s.FailureStreak == 1
	})
	assert.EqualValues(t, 1, status.ActiveGeneration)
	assert.True(t, published.Load().Equal(gen1))
	assert.False(t, status.Stuck)
	assert.NotEmpty(t, status.LastError)

	// The next valid snapshot converges to generation 2 and clears the
	// failure streak.
	trigger <- struct{}{}
	status = waitStatus(t, w, func(s control.Status) bool {
		return s.ActiveGeneration == 2
	})
	assert.Zero(t, status.FailureStreak)
	assert.Empty(t, status.LastError)
	assert.True(t, published.Load().Equal(gen2))

	stop()

	assert.Equal(t, 2.0, metrics.CounterValue(cycles.With("result", control.ResultUpdated)))
	assert.Equal(t, 1.0, metrics.CounterValue(cycles.With("result", control.ResultUnchanged)))
	assert.Equal(t, 1.0, metrics.CounterValue(cycles.With("result", control.ResultErrValidation)))
}

func TestWatcherReloadFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stamp := time.Unix(1700000000, 0).UTC()
	gen1 := snapshot(1, stamp)
	gen2 := snapshot(2, stamp.Add(time.Minute))
	gen2.Subnets[0].Nodes = gen2.Subnets[0].Nodes[:1]

	fetcher := mock_control.NewMockFetcher(ctrl)
	installer := mock_control.NewMockInstaller(ctrl)
	reloader := mock_control.NewMockReloader(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen1, nil),
		fetcher.EXPECT().Fetch(gomock.Any()).Return(gen2, nil).Times(2),
	)
	gomock.InOrder(
		installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(true, nil),
		installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(true, nil),
		// The artifact is already on disk when the reload is retried.
		installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(false, nil),
	)
	gomock.InOrder(
		reloader.EXPECT().Reload(gomock.Any()).Return(nil),
		reloader.EXPECT().Reload(gomock.Any()).Return(serrors.New("proxy reload refused")),
		reloader.EXPECT().Reload(gomock.Any()).Return(nil),
	)

	cycles := metrics.NewTestCounter()
	trigger := make(chan struct{})
	w := &control.Watcher{
		Fetcher:      fetcher,
		Validator:    control.TableValidator{},
		Renderer:     dataplane.Renderer{},
		Installer:    installer,
		Reloader:     reloader,
		PollInterval: time.Hour,
		Trigger:      trigger,
		Metrics: control.WatcherMetrics{
			Cycles: func(result string) metrics.Counter {
				return cycles.With("result", result)
			},
		},
	}
	stop := startWatcher(t, w)
	defer stop()

	waitStatus(t, w, func(s control.Status) bool {
		return s.ActiveGeneration == 1
	})

	// The reload failure keeps generation 1 active.
	trigger <- struct{}{}
	status := waitStatus(t, w, func(s control.Status) bool {
		return s.FailureStreak == 1
	})
	assert.EqualValues(t, 1, status.ActiveGeneration)

	// The retry reloads the proxy although nothing new was installed, and
	// only then activates generation 2.
	trigger <- struct{}{}
	status = waitStatus(t, w, func(s control.Status) bool {
		return s.ActiveGeneration == 2
	})
	assert.Zero(t, status.FailureStreak)

	stop()

	assert.Equal(t, 1.0, metrics.CounterValue(cycles.With("result", control.ResultErrReload)))
	assert.Equal(t, 2.0, metrics.CounterValue(cycles.With("result", control.ResultUpdated)))
}

func TestWatcherBackoff(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var fetches int32
	fetcher := mock_control.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).DoAndReturn(
		func(context.Context) (*control.RoutingTable, error) {
			atomic.AddInt32(&fetches, 1)
			return nil, serrors.New("control plane down")
		},
	).AnyTimes()

	trigger := make(chan struct{})
	w := &control.Watcher{
		Fetcher:        fetcher,
		Validator:      control.TableValidator{},
		Renderer:       dataplane.Renderer{},
		Installer:      mock_control.NewMockInstaller(ctrl),
		Reloader:       mock_control.NewMockReloader(ctrl),
		PollInterval:   20 * time.Millisecond,
		BackoffMax:     10 * time.Second,
		StuckThreshold: 3,
		Trigger:        trigger,
	}
	stop := startWatcher(t, w)
	defer stop()

	// Consecutive failures back the cadence off. Without backoff roughly
	// thirty ticks would fire in this window.
	time.Sleep(600 * time.Millisecond)
	attempts := atomic.LoadInt32(&fetches)
	assert.GreaterOrEqual(t, attempts, int32(3))
	assert.LessOrEqual(t, attempts, int32(8))

	status := w.Status()
	assert.True(t, status.Stuck)
	assert.GreaterOrEqual(t, status.FailureStreak, 3)
	assert.Zero(t, status.ActiveGeneration)

	// A trigger bypasses the backoff.
	before := atomic.LoadInt32(&fetches)
	trigger <- struct{}{}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fetches) > before
	}, time.Second, 5*time.Millisecond)
}

func TestWatcherSkipsPendingTicks(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stamp := time.Unix(1700000000, 0).UTC()

	var fetches int32
	fetcher := mock_control.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (*control.RoutingTable, error) {
			atomic.AddInt32(&fetches, 1)
			select {
			case <-time.After(120 * time.Millisecond):
			case <-ctx.Done():
			}
			return snapshot(1, stamp), nil
		},
	).AnyTimes()
	installer := mock_control.NewMockInstaller(ctrl)
	installer.EXPECT().Install(gomock.Any(), gomock.Any()).Return(true, nil)
	reloader := mock_control.NewMockReloader(ctrl)
	reloader.EXPECT().Reload(gomock.Any()).Return(nil)

	w := &control.Watcher{
		Fetcher:      fetcher,
		Validator:    control.TableValidator{},
		Renderer:     dataplane.Renderer{},
		Installer:    installer,
		Reloader:     reloader,
		PollInterval: 20 * time.Millisecond,
	}
	stop := startWatcher(t, w)
	defer stop()

	// Each cycle spans several poll intervals. Ticks that fire while a
	// cycle is running are dropped, so the number of cycles tracks the
	// cycle duration, not the tick count.
	time.Sleep(600 * time.Millisecond)
	attempts := atomic.LoadInt32(&fetches)
	assert.GreaterOrEqual(t, attempts, int32(3))
	assert.LessOrEqual(t, attempts, int32(6))
}

func TestWatcherAlreadyRunning(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_control.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any()).
		Return(nil, serrors.New("control plane down")).AnyTimes()

	w := &control.Watcher{
		Fetcher:      fetcher,
		Validator:    control.TableValidator{},
		Renderer:     dataplane.Renderer{},
		Installer:    mock_control.NewMockInstaller(ctrl),
		Reloader:     mock_control.NewMockReloader(ctrl),
		PollInterval: time.Hour,
	}
	stop := startWatcher(t, w)
	defer stop()

	waitStatus(t, w, func(s control.Status) bool {
		return s.FailureStreak == 1
	})
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestWatcherValidateParameters(t *testing.T) {
	newWatcher := func(ctrl *gomock.Controller) *control.Watcher {
		return &control.Watcher{
			Fetcher:   mock_control.NewMockFetcher(ctrl),
			Validator: control.TableValidator{},
			Renderer:  dataplane.Renderer{},
			Installer: mock_control.NewMockInstaller(ctrl),
			Reloader:  mock_control.NewMockReloader(ctrl),
		}
	}
	tests := map[string]func(w *control.Watcher){
		"no fetcher":   func(w *control.Watcher) { w.Fetcher = nil },
		"no validator": func(w *control.Watcher) { w.Validator = nil },
		"no renderer":  func(w *control.Watcher) { w.Renderer = nil },
		"no installer": func(w *control.Watcher) { w.Installer = nil },
		"no reloader":  func(w *control.Watcher) { w.Reloader = nil },
	}
	for name, modify := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			w := newWatcher(ctrl)
			modify(w)
			assert.Error(t, w.Run(context.Background()))
		})
	}
}
