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

package serrors_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

type testToTempErr struct {
	msg       string
	timeout   bool
	temporary bool
	cause     error
}

func (e *testToTempErr) Error() string {
	return e.msg
}

func (e *testToTempErr) Timeout() bool {
	return e.timeout
}

func (e *testToTempErr) Temporary() bool {
	return e.temporary
}

func (e *testToTempErr) Unwrap() error {
	return e.cause
}

func TestIsTimeout(t *testing.T) {
	err := serrors.New("no timeout")
	assert.False(t, serrors.IsTimeout(err))
	wrappedErr := serrors.Wrap("timeout",
		&testToTempErr{msg: "to", timeout: true})
	assert.True(t, serrors.IsTimeout(wrappedErr))
	noTimeoutWrappingTimeout := serrors.Wrap("notimeout", &testToTempErr{
		msg:     "non timeout wraps timeout",
		timeout: false,
		cause:   &testToTempErr{msg: "timeout", timeout: true},
	})
	assert.False(t, serrors.IsTimeout(noTimeoutWrappingTimeout))
}

func TestIsTemporary(t *testing.T) {
	err := serrors.New("not temp")
	assert.False(t, serrors.IsTemporary(err))
	wrappedErr := serrors.Wrap("temp",
		&testToTempErr{msg: "to", temporary: true})
	assert.True(t, serrors.IsTemporary(wrappedErr))
	noTempWrappingTemp := serrors.Wrap("notemp", &testToTempErr{
		msg:       "non temp wraps temp",
		temporary: false,
		cause:     &testToTempErr{msg: "temp", temporary: true},
	})
	assert.False(t, serrors.IsTemporary(noTempWrappingTemp))
}

func TestWrap(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		wrappedErr := serrors.Wrap("msg", err, "someCtx", "someValue")
		assert.ErrorIs(t, wrappedErr, err)
		assert.ErrorIs(t, wrappedErr, wrappedErr)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		wrappedErr := serrors.Wrap("msg", err, "someCtx", "someValue")
		var errAs *testErrType
		require.True(t, errors.As(wrappedErr, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestWrapNoStack(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		errWithCtx := serrors.WrapNoStack("error", err, "someCtx", "someValue")
		assert.ErrorIs(t, errWithCtx, err)
		assert.ErrorIs(t, errWithCtx, errWithCtx)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		errWithCtx := serrors.WrapNoStack("error", err, "someCtx", "someVal")
		var errAs *testErrType
		require.True(t, errors.As(errWithCtx, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestJoinNoStack(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		msg := serrors.New("msg err")
		wrappedErr := serrors.JoinNoStack(msg, err, "someCtx", "someValue")
		assert.ErrorIs(t, wrappedErr, err)
		assert.ErrorIs(t, wrappedErr, msg)
		assert.ErrorIs(t, wrappedErr, wrappedErr)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		msg := serrors.New("msg err")
		wrappedErr := serrors.JoinNoStack(msg, err, "someCtx", "someValue")
		var errAs *testErrType
		require.True(t, errors.As(wrappedErr, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestNew(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err1 := serrors.New("err msg")
		err2 := serrors.New("err msg")
		assert.ErrorIs(t, err1, err1)
		assert.ErrorIs(t, err2, err2)
		assert.False(t, errors.Is(err1, err2))
		assert.False(t, errors.Is(err2, err1))
		err1 = serrors.New("err msg", "someCtx", "value")
		err2 = serrors.New("err msg", "someCtx", "value")
		assert.ErrorIs(t, err1, err1)
		assert.ErrorIs(t, err2, err2)
		assert.False(t, errors.Is(err1, err2))
		assert.False(t, errors.Is(err2, err1))
	})
}

func TestContextSorted(t *testing.T) {
	err := serrors.New("err msg", "z", 1, "a", 2, "m", 3)
	assert.Equal(t, "err msg {a=2; m=3; z=1}", err.Error())
}

func TestList(t *testing.T) {
	var errs serrors.List
	assert.Nil(t, errs.ToError())
	errs = serrors.List{serrors.New("err1"), serrors.New("err2")}
	combinedErr := errs.ToError()
	assert.NotNil(t, combinedErr)
	assert.Equal(t, "[ err1; err2 ]", combinedErr.Error())
}

func TestJoinNil(t *testing.T) {
	assert.Nil(t, serrors.Join(nil, nil))
}

func TestAtMostOneStacktrace(t *testing.T) {
	err := errors.New("core")
	for i := range [20]int{} {
		err = serrors.Wrap("wrap", err, "level", i)
	}

	var b bytes.Buffer
	logger := zap.New(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zapcore.EncoderConfig{
				MessageKey:     "msg",
				LevelKey:       "level",
				NameKey:        "logger",
				EncodeLevel:    zapcore.LowercaseLevelEncoder,
				EncodeTime:     zapcore.ISO8601TimeEncoder,
				EncodeDuration: zapcore.StringDurationEncoder,
			}),
			zapcore.AddSync(&b),
			zapcore.DebugLevel),
	)
	logger.Sugar().Infow("Failed to do thing", "err", err)

	require.Equal(t, 1, bytes.Count(b.Bytes(), []byte("stacktrace")))
}

func TestUncomparable(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		// Two wrappers around uncomparable error objects must not panic in
		// errors.Is.
		errObject := serrors.Wrap("simple err", nil, "dummy", "context")
		wrapperA := serrors.Join(errObject, nil, "dummy", "context")
		wrapperB := serrors.Join(errObject, nil, "dummy", "context")
		assert.NotErrorIs(t, wrapperA, wrapperB)
	})
}

func ExampleNew() {
	err1 := serrors.New("errtxt")
	err2 := serrors.New("errtxt")

	// Self equality always works:
	fmt.Println(errors.Is(err1, err1))
	fmt.Println(errors.Is(err2, err2))
	// Different errors with the same text are not "equal". This prevents
	// errors with the same message in different packages from being seen as
	// the same thing:
	fmt.Println(errors.Is(err1, err2))
	// Output:
	// true
	// true
	// false
}

func ExampleWrap() {
	// ErrNoSpace is an error defined at package scope, with some context
	// already attached.
	var ErrNoSpace = serrors.New("no space", "dev", "sd0")
	wrappedErr := serrors.Wrap("wrap with more context", ErrNoSpace, "ctx", 1)

	fmt.Println(errors.Is(wrappedErr, ErrNoSpace))
	fmt.Printf("\n%v", wrappedErr)
	// Output:
	// true
	//
	// wrap with more context {ctx=1}: no space {dev=sd0}
}

func ExampleJoin() {
	// cause is an error from a lower layer with a more specific message.
	var cause = fmt.Errorf("sd0 unresponsive: %w", io.ErrNoProgress)
	// ErrDB is a sentinel error defined at package scope in the upper layer.
	var ErrDB = errors.New("db")
	wrapped := serrors.Join(ErrDB, cause, "ctx", 1)

	// Specific errors are identifiable:
	fmt.Println(errors.Is(wrapped, io.ErrNoProgress))
	fmt.Println(errors.Is(wrapped, cause))
	// And so is the broader error class ErrDB:
	fmt.Println(errors.Is(wrapped, ErrDB))

	fmt.Printf("\n%v", wrapped)
	// Output:
	// true
	// true
	// true
	//
	// db {ctx=1}: sd0 unresponsive: multiple Read calls return no data or error
}

func ExampleWrapNoStack() {
	// ErrDenied is a sentinel defined at package scope.
	var ErrDenied = errors.New("operation denied")
	addedCtx := serrors.WrapNoStack("applying table", ErrDenied, "gen", 7)

	fmt.Println(addedCtx)
	// Output:
	// applying table {gen=7}: operation denied
}

func ExampleJoinNoStack() {
	// badSnapshot and ErrParse are sentinel errors defined at package scope.
	var badSnapshot = serrors.New("invalid snapshot")
	var ErrParse = serrors.New("unparseable payload")
	addedCtx := serrors.JoinNoStack(badSnapshot, ErrParse, "source", "nns0")

	fmt.Println(addedCtx)
	// Output:
	// invalid snapshot {source=nns0}: unparseable payload
}
