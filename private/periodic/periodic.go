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

// Package periodic provides a mechanism to run tasks periodically.
package periodic

import (
	"context"
	"time"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/metrics"
)

// Event values used when reporting runner events.
const (
	// EventStop indicates the runner was stopped.
	EventStop = "stop"
	// EventKill indicates the runner was killed.
	EventKill = "kill"
	// EventTrigger indicates the runner was triggered externally.
	EventTrigger = "triggered"
)

// Task is a unit of work that is executed periodically.
type Task interface {
	// Run executes the task once. It should return within the deadline of
	// the passed context.
	Run(context.Context)
	// Name returns the name of the task. Successive calls must return the
	// same value.
	Name() string
}

// Func implements Task from a function and a name.
type Func struct {
	Task     func(context.Context)
	TaskName string
}

func (f Func) Run(ctx context.Context) {
	f.Task(ctx)
}

func (f Func) Name() string {
	return f.TaskName
}

// Metrics describes the metrics a Runner reports. Individual fields can be
// left unset to not report them.
type Metrics struct {
	// Events returns the counter for the given runner event.
	Events func(event string) metrics.Counter
	// Period is set to the period at which the task runs, in seconds.
	Period metrics.Gauge
	// Runtime is set to the duration of the most recent run, in seconds.
	Runtime metrics.Gauge
	// StartTime is set to the time the runner was started.
	StartTime metrics.Gauge
}

func (m *Metrics) event(event string) {
	if m == nil || m.Events == nil {
		return
	}
	metrics.CounterInc(m.Events(event))
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
}

// Start runs the task periodically with the given period. The first run
// happens one period after the call. Each run is bounded by the timeout.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is like Start, and also reports on the given metrics.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	logger := log.New("debug_id", log.NewDebugID(), "periodic_task", task.Name())
	ctx, cancelF := context.WithCancel(log.CtxWith(context.Background(), logger))
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
	}
	if m != nil {
		metrics.GaugeSet(m.Period, period.Seconds())
		metrics.GaugeSetCurrentTime(m.StartTime)
	}
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the periodic execution of the Runner. If a run is in flight,
// Stop blocks until it completes.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.loopFinished
	r.metrics.event(EventStop)
}

// Kill is like Stop, and additionally cancels the context of a run that is
// in flight.
func (r *Runner) Kill() {
	if r == nil {
		return
	}
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	r.metrics.event(EventKill)
}

// TriggerRun triggers a run now, without affecting the periodic schedule. It
// blocks until the runner picks up the trigger, or until the runner is
// stopped.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
	}
	r.metrics.event(EventTrigger)
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	start := time.Now()
	ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
	defer cancelF()
	r.task.Run(ctx)
	if r.metrics != nil {
		metrics.GaugeSet(r.metrics.Runtime, time.Since(start).Seconds())
	}
}
