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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

var _ Logger = (*logger)(nil)

type logger struct {
	logger *zap.Logger
}

// New creates a logger with the given context.
func New(ctx ...any) Logger {
	return &logger{logger: zap.L().With(convertCtx(ctx)...)}
}

// Root returns the root logger. It's a logger without any context.
func Root() Logger {
	return &logger{logger: zap.L()}
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

func (l *logger) WithOptions(opts ...zap.Option) Logger {
	return &logger{logger: l.logger.WithOptions(opts...)}
}

// Debug logs at debug level.
func Debug(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, convertCtx(ctx)...)
}

// Info logs at info level.
func Info(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Info(msg, convertCtx(ctx)...)
}

// Error logs at error level.
func Error(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Error(msg, convertCtx(ctx)...)
}

// SafeDebug logs to the logger at debug level, if the logger is non-nil.
func SafeDebug(l Logger, msg string, ctx ...any) {
	if l == nil {
		return
	}
	if inner, ok := l.(*logger); ok {
		inner.logger.WithOptions(zap.AddCallerSkip(1)).Debug(msg, convertCtx(ctx)...)
		return
	}
	l.Debug(msg, ctx...)
}

// SafeInfo logs to the logger at info level, if the logger is non-nil.
func SafeInfo(l Logger, msg string, ctx ...any) {
	if l == nil {
		return
	}
	if inner, ok := l.(*logger); ok {
		inner.logger.WithOptions(zap.AddCallerSkip(1)).Info(msg, convertCtx(ctx)...)
		return
	}
	l.Info(msg, ctx...)
}

// SafeError logs to the logger at error level, if the logger is non-nil.
func SafeError(l Logger, msg string, ctx ...any) {
	if l == nil {
		return
	}
	if inner, ok := l.(*logger); ok {
		inner.logger.WithOptions(zap.AddCallerSkip(1)).Error(msg, convertCtx(ctx)...)
		return
	}
	l.Error(msg, ctx...)
}
