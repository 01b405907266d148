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

package log

import (
	"io"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/private/config"
)

const (
	// DefaultConsoleLevel is the default log level for the console.
	DefaultConsoleLevel = "info"
	// DefaultStacktraceLevel is the default log level at which stack traces
	// are attached to log entries.
	DefaultStacktraceLevel = LevelNone
	// LevelNone disables stack traces entirely.
	LevelNone = "none"
)

// Config is the configuration for the logger.
type Config struct {
	// Console is the configuration for the console logging.
	Console ConsoleConfig `toml:"console,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if any).
func (c *Config) InitDefaults() {
	c.Console.InitDefaults()
}

// Validate validates that the logging configuration is valid.
func (c *Config) Validate() error {
	c.Console.InitDefaults()
	return c.Console.validate()
}

// Sample writes the sample configuration to dst.
func (c *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx, &c.Console)
}

// ConfigName returns the name this config should have in a struct embedding.
func (c *Config) ConfigName() string {
	return "log"
}

// ConsoleConfig is the config for the console logger.
type ConsoleConfig struct {
	// Level of console logging (debug|info|error).
	Level string `toml:"level,omitempty"`
	// Format of the console logging (human|json).
	Format string `toml:"format,omitempty"`
	// StacktraceLevel sets from which level stacktraces are included in
	// log entries (none|debug|info|error).
	StacktraceLevel string `toml:"stacktrace_level,omitempty"`
	// DisableCaller stops annotating logs with the calling function's file
	// name and line number.
	DisableCaller bool `toml:"disable_caller,omitempty"`
}

// InitDefaults populates unset fields in cfg to their default values (if any).
func (c *ConsoleConfig) InitDefaults() {
	if c.Level == "" {
		c.Level = DefaultConsoleLevel
	}
	if c.Format == "" {
		c.Format = "human"
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = DefaultStacktraceLevel
	}
}

func (c *ConsoleConfig) validate() error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return serrors.Wrap("parsing console level", err, "level", c.Level)
	}
	if c.StacktraceLevel != LevelNone {
		var stacktraceLevel zapcore.Level
		if err := stacktraceLevel.UnmarshalText([]byte(c.StacktraceLevel)); err != nil {
			return serrors.Wrap("parsing console stacktrace level", err,
				"level", c.StacktraceLevel)
		}
	}
	switch strings.ToLower(c.Format) {
	case "human", "json":
	default:
		return serrors.New("unknown console format", "format", c.Format)
	}
	return nil
}

// Sample writes the sample configuration to dst.
func (c *ConsoleConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, consoleConfigSample)
}

// ConfigName returns the name this config should have in a struct embedding.
func (c *ConsoleConfig) ConfigName() string {
	return "console"
}

const consoleConfigSample = `
# Console logging level (debug|info|error) (default info)
level = "info"

# Console logging format (human|json) (default human)
format = "human"

# Level at which stack traces are attached to log entries
# (none|debug|info|error) (default none)
stacktrace_level = "none"
`
