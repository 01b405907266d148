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

// Package mgmtapitest contains helpers for testing the management API config
// block.
package mgmtapitest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/private/mgmtapi"
)

// InitConfig populates the config with garbage that a decoded sample is
// expected to overwrite.
func InitConfig(cfg *mgmtapi.Config) {
	cfg.Addr = "garbage"
}

// CheckConfig checks that the config contains the sample values.
func CheckConfig(t *testing.T, cfg *mgmtapi.Config) {
	assert.Empty(t, cfg.Addr)
}
