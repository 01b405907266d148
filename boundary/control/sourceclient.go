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

package control

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/metrics"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

const (
	// defaultFetchTimeout is the default timeout for a single fetch attempt.
	defaultFetchTimeout = 5 * time.Second
	// defaultSourceTTL is the default time the last healthy source stays
	// preferred over the configured order.
	defaultSourceTTL = 10 * time.Minute

	preferredSourceKey = "preferred"
)

// SourceClientMetrics contains the metrics the SourceClient reports.
type SourceClientMetrics struct {
	// FetchesOK counts fetches that yielded a parseable routing table.
	FetchesOK metrics.Counter
	// FetchesFailed counts fetches that exhausted all sources.
	FetchesFailed metrics.Counter
	// PayloadBytes observes the size of fetched snapshot payloads.
	PayloadBytes metrics.Histogram
}

// SourceClient retrieves the current routing table snapshot over HTTP from a
// small set of control-plane sources.
//
// The source that answered last is remembered and tried first on subsequent
// fetches, so a single healthy source is not re-discovered on every poll.
// The preference expires after SourceTTL, at which point the configured
// order applies again.
type SourceClient struct {
	// Sources is the ordered list of control-plane endpoints serving the
	// snapshot. It must not be empty.
	Sources []string
	// Timeout is the timeout for a single attempt against one source. If
	// zero, this defaults to 5 seconds.
	Timeout time.Duration
	// SourceTTL is how long the last healthy source stays preferred. If
	// zero, this defaults to 10 minutes.
	SourceTTL time.Duration
	// Client is the HTTP client used for the requests. If nil, the default
	// client is used.
	Client *http.Client
	// Metrics can be used to report fetch outcomes. If not initialized, no
	// metrics are reported.
	Metrics SourceClientMetrics

	initOnce  sync.Once
	preferred *cache.Cache
}

// Fetch retrieves the current routing table. Sources are tried in order
// until one yields a parseable payload; the call fails only when all are
// exhausted. There is no retry beyond the source list, the retry cadence
// across calls belongs to the caller.
func (c *SourceClient) Fetch(ctx context.Context) (*RoutingTable, error) {
	c.initOnce.Do(func() {
		c.preferred = cache.New(c.sourceTTL(), 0)
	})
	if len(c.Sources) == 0 {
		return nil, serrors.New("no sources configured")
	}
	logger := log.FromCtx(ctx)
	var errs serrors.List
	for _, source := range c.candidates() {
		table, err := c.fetchOne(ctx, source)
		if err != nil {
			logger.Debug("Fetch attempt failed", "source", source, "err", err)
			errs = append(errs,
				serrors.WrapNoStack("fetching from source", err, "source", source))
			continue
		}
		c.preferred.Set(preferredSourceKey, source, c.sourceTTL())
		metrics.CounterInc(c.Metrics.FetchesOK)
		return table, nil
	}
	metrics.CounterInc(c.Metrics.FetchesFailed)
	return nil, serrors.Wrap("all sources exhausted", errs.ToError())
}

// candidates returns the sources in the order they should be tried: the
// remembered healthy source first, then the configured order.
func (c *SourceClient) candidates() []string {
	candidates := make([]string, 0, len(c.Sources)+1)
	if p, ok := c.preferred.Get(preferredSourceKey); ok {
		candidates = append(candidates, p.(string))
	}
	for _, source := range c.Sources {
		if len(candidates) > 0 && source == candidates[0] {
			continue
		}
		candidates = append(candidates, source)
	}
	return candidates
}

func (c *SourceClient) fetchOne(ctx context.Context, source string) (*RoutingTable, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, serrors.Wrap("building request", err)
	}
	res, err := c.client().Do(req)
	if err != nil {
		return nil, serrors.Wrap("performing request", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, serrors.New("status not OK", "status", res.Status)
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, serrors.Wrap("reading response body", err)
	}
	metrics.HistogramObserve(c.Metrics.PayloadBytes, float64(len(raw)))
	return ParseRoutingTable(raw)
}

func (c *SourceClient) timeout() time.Duration {
	if c.Timeout == 0 {
		return defaultFetchTimeout
	}
	return c.Timeout
}

func (c *SourceClient) sourceTTL() time.Duration {
	if c.SourceTTL == 0 {
		return defaultSourceTTL
	}
	return c.SourceTTL
}

func (c *SourceClient) client() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}
