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

package configtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/boundary/config"
)

func InitWatcher(cfg *config.Watcher) {
	cfg.Sources = []string{"garbage"}
	cfg.StuckThreshold = -1
}

func CheckWatcher(t *testing.T, cfg *config.Watcher) {
	assert.Equal(t, []string{"http://127.0.0.1:8041/v1/routing-table"}, cfg.Sources)
	assert.Equal(t, config.DefaultPollInterval, cfg.PollInterval.Duration)
	assert.Equal(t, config.DefaultFetchTimeout, cfg.FetchTimeout.Duration)
	assert.Equal(t, config.DefaultBackoffMax, cfg.BackoffMax.Duration)
	assert.Equal(t, config.DefaultSourceTTL, cfg.SourceTTL.Duration)
	assert.Equal(t, config.DefaultStalenessThreshold, cfg.StalenessThreshold.Duration)
	assert.Equal(t, config.DefaultStuckThreshold, cfg.StuckThreshold)
}

func InitProxy(cfg *config.Proxy) {
	cfg.ArtifactPath = "garbage"
}

func CheckProxy(t *testing.T, cfg *config.Proxy) {
	assert.Equal(t, config.DefaultArtifactPath, cfg.ArtifactPath)
	assert.Equal(t, []string{"nginx", "-t", "-q"}, cfg.CheckCommand)
	assert.Equal(t, []string{"nginx", "-s", "reload"}, cfg.ReloadCommand)
	assert.Equal(t, config.DefaultCommandTimeout, cfg.CommandTimeout.Duration)
}
