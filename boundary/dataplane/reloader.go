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

package dataplane

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// defaultCommandTimeout is the default timeout for a single check or reload
// command invocation.
const defaultCommandTimeout = 10 * time.Second

// Rollbacker restores the previously installed artifact after the proxy
// rejected the new one.
type Rollbacker interface {
	Rollback(ctx context.Context) error
}

// Reloader asks the reverse proxy to pick up a freshly installed artifact.
// It first runs the configured check command, a dry-run configuration test
// of the proxy against the installed artifact, and only signals the actual
// reload when the check passes. The reload is graceful: the proxy keeps
// serving existing connections while switching tables.
//
// If the check fails, the artifact is rolled back through the Rollback
// collaborator and the reload is skipped, so a structurally valid but
// semantically broken table never reaches production traffic.
type Reloader struct {
	// CheckCommand validates the installed artifact. Exit code 0 means the
	// artifact is acceptable. It must not be empty.
	CheckCommand []string
	// ReloadCommand signals the proxy to pick up the artifact. Exit code 0
	// means the reload was accepted. It must not be empty.
	ReloadCommand []string
	// CommandTimeout bounds a single command invocation. If zero, this
	// defaults to 10 seconds.
	CommandTimeout time.Duration
	// Rollback is used to restore the previous artifact when the check
	// fails. It must not be nil.
	Rollback Rollbacker
	// DryRun stops after a successful check without signaling the proxy.
	DryRun bool
}

// Reload runs the check command and, on success, the reload command. A
// command that has started is allowed to finish; ctx bounds each invocation
// together with the configured command timeout.
func (r *Reloader) Reload(ctx context.Context) error {
	if err := r.validateParameters(); err != nil {
		return err
	}
	logger := log.FromCtx(ctx)
	if err := r.runCommand(ctx, r.CheckCommand); err != nil {
		logger.Error("Proxy check rejected artifact, rolling back", "err", err)
		if rbErr := r.Rollback.Rollback(ctx); rbErr != nil {
			return serrors.Wrap("rolling back after failed proxy check", rbErr,
				"check_err", err)
		}
		return serrors.Wrap("proxy check rejected artifact", err)
	}
	if r.DryRun {
		logger.Info("Dry run, not signaling proxy reload")
		return nil
	}
	if err := r.runCommand(ctx, r.ReloadCommand); err != nil {
		return serrors.Wrap("signaling proxy reload", err)
	}
	return nil
}

func (r *Reloader) validateParameters() error {
	if len(r.CheckCommand) == 0 {
		return serrors.New("check command must not be empty")
	}
	if len(r.ReloadCommand) == 0 {
		return serrors.New("reload command must not be empty")
	}
	if r.Rollback == nil {
		return serrors.New("rollback must not be nil")
	}
	return nil
}

func (r *Reloader) runCommand(ctx context.Context, command []string) error {
	// A command that has started must be allowed to finish even when the
	// daemon is shutting down; only the command timeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return serrors.Wrap("running command", err,
			"command", strings.Join(command, " "),
			"output", strings.TrimSpace(output.String()))
	}
	return nil
}

func (r *Reloader) timeout() time.Duration {
	if r.CommandTimeout == 0 {
		return defaultCommandTimeout
	}
	return r.CommandTimeout
}
