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

// Package log provides a key-value style logging API on top of uber's zap
// library, together with context plumbing and panic handling for
// long-running goroutines.
package log

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// Level is the log level.
type Level zapcore.Level

// The different log levels.
const (
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
)

// ConsoleLevel allows interacting with the console logging level at runtime.
// It is only valid after a successful call to Setup.
var ConsoleLevel zap.AtomicLevel

// Setup configures the logging backend. It must be called at most once.
func Setup(cfg Config, opts ...Option) error {
	cfg.InitDefaults()
	return setupConsole(cfg.Console, applyOptions(opts))
}

func setupConsole(cfg ConsoleConfig, opts options) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return serrors.Wrap("parsing console level", err, "level", cfg.Level)
	}
	stacktraceLevel := zapcore.FatalLevel + 1
	if cfg.StacktraceLevel != LevelNone {
		if err := stacktraceLevel.UnmarshalText([]byte(cfg.StacktraceLevel)); err != nil {
			return serrors.Wrap("parsing console stacktrace level", err,
				"level", cfg.StacktraceLevel)
		}
	}
	encoding := "console"
	if strings.EqualFold(cfg.Format, "json") {
		encoding = "json"
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if encoding == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	atomic := zap.NewAtomicLevelAt(level)
	zapCfg := zap.Config{
		Level:            atomic,
		DisableCaller:    cfg.DisableCaller,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zapOpts := append(opts.zapOptions(), zap.AddStacktrace(stacktraceLevel))
	logger, err := zapCfg.Build(zapOpts...)
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	zap.ReplaceGlobals(logger)
	ConsoleLevel = atomic
	return nil
}

// HandlePanic catches panics and logs them. The process exits afterwards.
// Inside tests the panic is rethrown so that it surfaces in the test output.
func HandlePanic() {
	if msg := recover(); msg != nil {
		if flag.Lookup("test.v") != nil {
			panic(msg)
		}
		zap.L().Error("Panic", zap.Any("msg", msg), zap.Stack("stacktrace"))
		zap.L().Sync()
		os.Exit(255)
	}
}

// Flush writes the logs to the underlying buffer.
func Flush() {
	zap.L().Sync()
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		fields = append(fields, zap.Any(ctx[i].(string), ctx[i+1]))
	}
	return fields
}
