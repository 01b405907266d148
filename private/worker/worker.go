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

// Package worker contains helpers for long-running goroutine-based objects
// that expose Run and Close methods.
package worker

import (
	"context"
	"sync"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// Base provides lifecycle tracking for objects that run as goroutines. The
// zero value is ready to use. Base must not be copied after first use.
//
// Types embed a Base and delegate their Run and Close methods to the
// wrappers:
//
//	func (w *Worker) Run(ctx context.Context) error {
//		return w.workerBase.RunWrapper(ctx, w.setup, w.run)
//	}
//
//	func (w *Worker) Close(ctx context.Context) error {
//		return w.workerBase.CloseWrapper(ctx, w.close)
//	}
//
// The wrappers guarantee that setup and run execute at most once, that
// neither executes if Close was called first, and that close executes at
// most once.
type Base struct {
	mtx sync.Mutex
	// WG tracks additional goroutines spawned by the worker. The wrappers do
	// not manage it; workers that use it must wait for it themselves.
	WG sync.WaitGroup

	runCalled   bool
	closeCalled bool
	doneChan    chan struct{}
}

// RunWrapper runs setup and then run. If Close was called before RunWrapper,
// neither setup nor run execute and the call returns nil. Calling RunWrapper
// more than once returns an error.
func (b *Base) RunWrapper(
	ctx context.Context,
	setup func(ctx context.Context) error,
	run func(ctx context.Context) error,
) error {

	b.mtx.Lock()
	if b.runCalled {
		b.mtx.Unlock()
		return serrors.New("worker started more than once")
	}
	b.runCalled = true
	if b.closeCalled {
		b.mtx.Unlock()
		return nil
	}
	b.ensureDoneChanLocked()
	b.mtx.Unlock()

	if setup != nil {
		if err := setup(ctx); err != nil {
			return err
		}
	}
	if run == nil {
		return nil
	}
	return run(ctx)
}

// CloseWrapper closes the done channel and then runs closeFn. Only the first
// call has any effect; subsequent calls return nil immediately.
func (b *Base) CloseWrapper(
	ctx context.Context,
	closeFn func(ctx context.Context) error,
) error {

	b.mtx.Lock()
	if b.closeCalled {
		b.mtx.Unlock()
		return nil
	}
	b.closeCalled = true
	b.ensureDoneChanLocked()
	close(b.doneChan)
	b.mtx.Unlock()

	if closeFn == nil {
		return nil
	}
	return closeFn(ctx)
}

// GetDoneChan returns a channel that is closed once Close is called.
func (b *Base) GetDoneChan() <-chan struct{} {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.ensureDoneChanLocked()
	return b.doneChan
}

func (b *Base) ensureDoneChanLocked() {
	if b.doneChan == nil {
		b.doneChan = make(chan struct{})
	}
}
