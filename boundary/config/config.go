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

// Package config describes the configuration of the boundary daemon.
package config

import (
	"io"
	"net/url"
	"time"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/pkg/private/util"
	"github.com/gatewatch/gatewatch/private/config"
	"github.com/gatewatch/gatewatch/private/env"
	api "github.com/gatewatch/gatewatch/private/mgmtapi"
)

// Default file paths
const (
	DefaultArtifactPath = "/etc/gatewatch/routes.json"
)

// Defaults.
const (
	DefaultPollInterval       = 15 * time.Second
	DefaultFetchTimeout       = 5 * time.Second
	DefaultBackoffMax         = 5 * time.Minute
	DefaultSourceTTL          = 10 * time.Minute
	DefaultStalenessThreshold = 5 * time.Minute
	DefaultStuckThreshold     = 10
	DefaultCommandTimeout     = 10 * time.Second
)

type Config struct {
	General  env.General  `toml:"general,omitempty"`
	Features env.Features `toml:"features,omitempty"`
	Logging  log.Config   `toml:"log,omitempty"`
	Metrics  env.Metrics  `toml:"metrics,omitempty"`
	API      api.Config   `toml:"api,omitempty"`
	Tracing  env.Tracing  `toml:"tracing,omitempty"`
	Watcher  Watcher      `toml:"watcher,omitempty"`
	Proxy    Proxy        `toml:"proxy,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Features,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Watcher,
		&cfg.Proxy,
	)
}

func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Features,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Watcher,
		&cfg.Proxy,
	)
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{config.ID: "boundary"},
		&cfg.General,
		&cfg.Features,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Watcher,
		&cfg.Proxy,
	)
}

// Watcher holds the routing table watcher configuration.
type Watcher struct {
	config.NoDefaulter

	// Sources is the ordered list of control-plane endpoints serving the
	// routing table snapshot.
	Sources []string `toml:"sources,omitempty"`
	// PollInterval is the interval between refresh attempts.
	PollInterval util.DurWrap `toml:"poll_interval,omitempty"`
	// FetchTimeout bounds a single fetch attempt against one endpoint.
	FetchTimeout util.DurWrap `toml:"fetch_timeout,omitempty"`
	// BackoffMax caps the exponential backoff applied after consecutive
	// failed refresh attempts.
	BackoffMax util.DurWrap `toml:"backoff_max,omitempty"`
	// SourceTTL is how long the last healthy endpoint is preferred before
	// falling back to the configured order.
	SourceTTL util.DurWrap `toml:"source_ttl,omitempty"`
	// StalenessThreshold is the age of the active snapshot beyond which a
	// staleness warning is logged. Stale tables are not rejected.
	StalenessThreshold util.DurWrap `toml:"staleness_threshold,omitempty"`
	// StuckThreshold is the number of consecutive failed refresh attempts
	// after which the watcher reports itself as stuck.
	StuckThreshold int `toml:"stuck_threshold,omitempty"`
}

func (cfg *Watcher) Validate() error {
	if len(cfg.Sources) == 0 {
		return serrors.New("no control-plane sources configured")
	}
	for _, src := range cfg.Sources {
		u, err := url.Parse(src)
		if err != nil {
			return serrors.Wrap("parsing source", err, "source", src)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return serrors.New("unsupported source scheme",
				"source", src, "scheme", u.Scheme)
		}
	}
	if cfg.PollInterval.Duration == 0 {
		cfg.PollInterval.Duration = DefaultPollInterval
	}
	if cfg.FetchTimeout.Duration == 0 {
		cfg.FetchTimeout.Duration = DefaultFetchTimeout
	}
	if cfg.BackoffMax.Duration == 0 {
		cfg.BackoffMax.Duration = DefaultBackoffMax
	}
	if cfg.SourceTTL.Duration == 0 {
		cfg.SourceTTL.Duration = DefaultSourceTTL
	}
	if cfg.StalenessThreshold.Duration == 0 {
		cfg.StalenessThreshold.Duration = DefaultStalenessThreshold
	}
	if cfg.StuckThreshold == 0 {
		cfg.StuckThreshold = DefaultStuckThreshold
	}
	return nil
}

func (cfg *Watcher) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, watcherSample)
}

func (cfg *Watcher) ConfigName() string {
	return "watcher"
}

// Proxy holds the configuration of the reverse proxy collaboration.
type Proxy struct {
	config.NoDefaulter

	// ArtifactPath is the path of the rendered routing artifact consumed by
	// the reverse proxy.
	ArtifactPath string `toml:"artifact_path,omitempty"`
	// CheckCommand validates the installed artifact. Exit code 0 means the
	// artifact is acceptable.
	CheckCommand []string `toml:"check_command,omitempty"`
	// ReloadCommand signals the reverse proxy to pick up the artifact.
	ReloadCommand []string `toml:"reload_command,omitempty"`
	// CommandTimeout bounds a single check or reload command invocation.
	CommandTimeout util.DurWrap `toml:"command_timeout,omitempty"`
}

func (cfg *Proxy) Validate() error {
	if cfg.ArtifactPath == "" {
		cfg.ArtifactPath = DefaultArtifactPath
	}
	if len(cfg.CheckCommand) == 0 {
		return serrors.New("no artifact check command configured")
	}
	if len(cfg.ReloadCommand) == 0 {
		return serrors.New("no proxy reload command configured")
	}
	if cfg.CommandTimeout.Duration == 0 {
		cfg.CommandTimeout.Duration = DefaultCommandTimeout
	}
	return nil
}

func (cfg *Proxy) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, proxySample)
}

func (cfg *Proxy) ConfigName() string {
	return "proxy"
}
