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

// Package app provides helpers for applications.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// SIGHUPChannel returns a channel that is triggered whenever the process
// receives a SIGHUP. Signals that arrive while a previous one is still
// pending are dropped. The goroutine servicing the channel terminates when
// the context is canceled.
func SIGHUPChannel(ctx context.Context) <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	c := make(chan struct{}, 1)
	go func() {
		defer log.HandlePanic()
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				select {
				case c <- struct{}{}:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return c
}

// Cleanup collects cleanup callbacks for execution at application shutdown.
type Cleanup struct {
	hooks []func() error
}

// Add registers a cleanup callback.
func (c *Cleanup) Add(hook func() error) {
	c.hooks = append(c.hooks, hook)
}

// Do runs the registered callbacks in reverse registration order. All
// callbacks run, even if some fail.
func (c *Cleanup) Do() error {
	var errs serrors.List
	for i := len(c.hooks) - 1; i >= 0; i-- {
		if err := c.hooks[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.ToError()
}
