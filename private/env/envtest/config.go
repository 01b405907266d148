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

// Package envtest contains helpers for testing the env config blocks.
package envtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/private/env"
)

// InitTest initializes the non-nil config blocks for a sample round-trip
// test.
func InitTest(general *env.General, features *env.Features,
	metrics *env.Metrics, tracing *env.Tracing) {

	if general != nil {
		InitTestGeneral(general)
	}
	if features != nil {
		InitTestFeatures(features)
	}
	if metrics != nil {
		InitTestMetrics(metrics)
	}
	if tracing != nil {
		InitTestTracing(tracing)
	}
}

// CheckTest checks that the non-nil config blocks hold the sample values.
func CheckTest(t *testing.T, general *env.General, features *env.Features,
	metrics *env.Metrics, tracing *env.Tracing, id string) {

	if general != nil {
		CheckTestGeneral(t, general, id)
	}
	if features != nil {
		CheckTestFeatures(t, features)
	}
	if metrics != nil {
		CheckTestMetrics(t, metrics)
	}
	if tracing != nil {
		CheckTestTracing(t, tracing)
	}
}

func InitTestGeneral(cfg *env.General) {
}

func CheckTestGeneral(t *testing.T, cfg *env.General, id string) {
	assert.Equal(t, id, cfg.ID)
}

func InitTestFeatures(cfg *env.Features) {
}

func CheckTestFeatures(t *testing.T, cfg *env.Features) {
	assert.False(t, cfg.ReloadDryRun)
}

func InitTestMetrics(cfg *env.Metrics) {
}

func CheckTestMetrics(t *testing.T, cfg *env.Metrics) {
	assert.Empty(t, cfg.Prometheus)
}

func InitTestTracing(cfg *env.Tracing) {
	cfg.Enabled = true
	cfg.Debug = true
}

func CheckTestTracing(t *testing.T, cfg *env.Tracing) {
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "localhost:6831", cfg.Agent)
}
