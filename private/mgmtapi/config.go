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

// Package mgmtapi contains the configuration of the service management API.
package mgmtapi

import (
	"io"

	"github.com/gatewatch/gatewatch/private/config"
)

var _ config.Config = (*Config)(nil)

// Config is the configuration of the service management API.
type Config struct {
	config.NoDefaulter
	config.NoValidator
	// Addr is the address the service management API listens on.
	Addr string `toml:"addr,omitempty"`
}

// Sample writes the sample configuration.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, apiSample)
}

// ConfigName returns the name this config should have in a configuration
// file.
func (cfg *Config) ConfigName() string {
	return "api"
}

const apiSample = `
# The address to expose the service management API on
# (host:port or ip:port or :port). Leave empty to disable the API.
addr = ""
`
