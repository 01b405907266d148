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

package status_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/gwctl/status"
)

func TestRun(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	want := control.Status{
		State:            control.StateIdle,
		ActiveGeneration: 42,
		ActiveDigest:     "8a9f1c0d2e3b4a5f6c7d8e9f0a1b2c3d",
		SourceTimestamp:  now,
		LastSuccess:      now,
		FailureStreak:    0,
	}
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/status", r.URL.Path)
			assert.NoError(t, json.NewEncoder(w).Encode(want))
		},
	))
	defer srv.Close()

	server := strings.TrimPrefix(srv.URL, "http://")
	res, err := status.Run(context.Background(), status.Config{Server: server})
	require.NoError(t, err)
	assert.Equal(t, server, res.Server)
	assert.Equal(t, control.StateIdle, res.Status.State)
	assert.Equal(t, uint64(42), res.Status.ActiveGeneration)
	assert.Equal(t, want.ActiveDigest, res.Status.ActiveDigest)
	assert.True(t, res.Status.SourceTimestamp.Equal(now))
	assert.True(t, res.Status.LastSuccess.Equal(now))
	assert.Empty(t, res.Status.LastError)
	assert.False(t, res.Status.Stuck)
}

func TestRunDaemonError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "watcher not running", http.StatusServiceUnavailable)
		},
	))
	defer srv.Close()

	server := strings.TrimPrefix(srv.URL, "http://")
	_, err := status.Run(context.Background(), status.Config{Server: server})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watcher not running")
}

func TestRunGarbageResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
	))
	defer srv.Close()

	server := strings.TrimPrefix(srv.URL, "http://")
	_, err := status.Run(context.Background(), status.Config{Server: server})
	assert.Error(t, err)
}

func TestHuman(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	testCases := map[string]struct {
		Result   status.Result
		Contains []string
	}{
		"healthy": {
			Result: status.Result{
				Server: "127.0.0.1:30442",
				Status: control.Status{
					State:            control.StateIdle,
					ActiveGeneration: 7,
					ActiveDigest:     "0011223344556677",
					SourceTimestamp:  now,
					LastSuccess:      now,
				},
			},
			Contains: []string{
				"Server: 127.0.0.1:30442",
				"State: idle",
				"Active generation: 7",
				"Active digest: 0011223344556677",
				"Failure streak: 0",
			},
		},
		"failing": {
			Result: status.Result{
				Server: "127.0.0.1:30442",
				Status: control.Status{
					State:         control.StateFetching,
					LastError:     "fetching routing table: connection refused",
					FailureStreak: 3,
				},
			},
			Contains: []string{
				"State: fetching",
				"Last error: fetching routing table: connection refused",
				"Failure streak: 3",
			},
		},
		"stuck": {
			Result: status.Result{
				Server: "127.0.0.1:30442",
				Status: control.Status{
					State:         control.StateIdle,
					LastError:     "reloading proxy: exit status 1",
					FailureStreak: 12,
					Stuck:         true,
				},
			},
			Contains: []string{
				"Failure streak: 12 (stuck)",
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			tc.Result.Human(&buf, false)
			for _, s := range tc.Contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	res := status.Result{
		Server: "127.0.0.1:30442",
		Status: control.Status{
			State:            control.StateIdle,
			ActiveGeneration: 7,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, res.JSON(&buf))

	var decoded status.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res.Server, decoded.Server)
	assert.Equal(t, res.Status.State, decoded.Status.State)
	assert.Equal(t, res.Status.ActiveGeneration, decoded.Status.ActiveGeneration)
}
