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

package control_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewatch/gatewatch/boundary/control"
)

func snapshotPayload(generation uint64) string {
	return fmt.Sprintf(`{
		"generation": %d,
		"source_timestamp": 1700000000,
		"subnets": [
			{
				"subnet_id": "uzr34",
				"canister_range_start": 0,
				"canister_range_end": 100,
				"nodes": [
					{"host": "10.0.0.1", "port": 8080, "protocol": "https"}
				]
			}
		]
	}`, generation)
}

type countingSource struct {
	*httptest.Server
	hits    int32
	handler atomic.Value
}

func newCountingSource(handler http.HandlerFunc) *countingSource {
	s := &countingSource{}
	s.handler.Store(handler)
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&s.hits, 1)
			s.handler.Load().(http.HandlerFunc)(w, r)
		},
	))
	return s
}

func (s *countingSource) SetHandler(handler http.HandlerFunc) {
	s.handler.Store(handler)
}

func (s *countingSource) Hits() int32 {
	return atomic.LoadInt32(&s.hits)
}

func serveSnapshot(generation uint64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, snapshotPayload(generation))
	}
}

func serveError(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "unavailable", http.StatusServiceUnavailable)
}

func TestSourceClientFetch(t *testing.T) {
	t.Run("single healthy source", func(t *testing.T) {
		source := newCountingSource(serveSnapshot(3))
		defer source.Close()

		client := &control.SourceClient{Sources: []string{source.URL}}
		table, err := client.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(3), table.Generation)
		assert.Len(t, table.Subnets, 1)
	})
	t.Run("failover to second source", func(t *testing.T) {
		broken := newCountingSource(serveError)
		defer broken.Close()
		healthy := newCountingSource(serveSnapshot(5))
		defer healthy.Close()

		client := &control.SourceClient{Sources: []string{broken.URL, healthy.URL}}
		table, err := client.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(5), table.Generation)
		assert.EqualValues(t, 1, broken.Hits())
		assert.EqualValues(t, 1, healthy.Hits())
	})
	t.Run("garbage payload moves on", func(t *testing.T) {
		garbage := newCountingSource(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "{not json")
		})
		defer garbage.Close()
		healthy := newCountingSource(serveSnapshot(2))
		defer healthy.Close()

		client := &control.SourceClient{Sources: []string{garbage.URL, healthy.URL}}
		table, err := client.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(2), table.Generation)
	})
	t.Run("all sources exhausted", func(t *testing.T) {
		broken := newCountingSource(serveError)
		defer broken.Close()

		client := &control.SourceClient{
			Sources: []string{broken.URL, "http://127.0.0.1:1/routing-table"},
		}
		_, err := client.Fetch(context.Background())
		assert.Error(t, err)
		assert.EqualValues(t, 1, broken.Hits())
	})
	t.Run("no sources configured", func(t *testing.T) {
		client := &control.SourceClient{}
		_, err := client.Fetch(context.Background())
		assert.Error(t, err)
	})
	t.Run("per attempt timeout", func(t *testing.T) {
		hanging := newCountingSource(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
		defer hanging.Close()

		client := &control.SourceClient{
			Sources: []string{hanging.URL},
			Timeout: 20 * time.Millisecond,
		}
		start := time.Now()
		_, err := client.Fetch(context.Background())
		assert.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestSourceClientPrefersLastHealthySource(t *testing.T) {
	first := newCountingSource(serveError)
	defer first.Close()
	second := newCountingSource(serveSnapshot(1))
	defer second.Close()

	client := &control.SourceClient{
		Sources:   []string{first.URL, second.URL},
		SourceTTL: time.Hour,
	}

	_, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Hits())

	// The second source answered, so the next fetch must not go through the
	// first one again.
	_, err = client.Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Hits())
	assert.EqualValues(t, 2, second.Hits())
}

func TestSourceClientPreferenceExpires(t *testing.T) {
	// The first source is broken for the first fetch so the second becomes
	// preferred, then it recovers.
	first := newCountingSource(serveError)
	defer first.Close()
	second := newCountingSource(serveSnapshot(1))
	defer second.Close()

	client := &control.SourceClient{
		Sources:   []string{first.URL, second.URL},
		SourceTTL: 20 * time.Millisecond,
	}

	_, err := client.Fetch(context.Background())
	require.NoError(t, err)
	first.SetHandler(serveSnapshot(1))

	time.Sleep(50 * time.Millisecond)

	// The preference has expired, so the configured order applies again.
	_, err = client.Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, first.Hits())
	assert.EqualValues(t, 1, second.Hits())
}
