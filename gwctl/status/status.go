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

// Package status queries the watcher status of a running boundary daemon.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// Config configures the status query.
type Config struct {
	// Server is the host:port address of the boundary daemon management API.
	Server string
}

// Result is the watcher status as reported by a boundary daemon.
type Result struct {
	Server string         `json:"server"`
	Status control.Status `json:"status"`
}

// Run queries the watcher status of the boundary daemon.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	raw, err := get(ctx, cfg.Server, "/api/v1/status")
	if err != nil {
		return nil, err
	}
	var s control.Status
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, serrors.Wrap("parsing status response", err)
	}
	return &Result{Server: cfg.Server, Status: s}, nil
}

// Human writes human readable output to the writer.
func (r Result) Human(w io.Writer, colored bool) {
	noColor := color.New()
	keys := noColor
	good := noColor
	bad := noColor
	if colored {
		keys = color.New(color.FgHiCyan)
		good = color.New(color.FgGreen)
		bad = color.New(color.FgRed)
	}

	s := r.Status
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Server"), r.Server)
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("State"), s.State)
	fmt.Fprintf(w, "%s: %d\n", keys.Sprint("Active generation"), s.ActiveGeneration)
	if s.ActiveDigest != "" {
		fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Active digest"), s.ActiveDigest)
	}
	if !s.SourceTimestamp.IsZero() {
		age := time.Since(s.SourceTimestamp).Truncate(time.Second)
		fmt.Fprintf(w, "%s: %s (age %s)\n", keys.Sprint("Source timestamp"),
			s.SourceTimestamp.Format(time.RFC3339), age)
	}
	if !s.LastSuccess.IsZero() {
		fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Last success"),
			s.LastSuccess.Format(time.RFC3339))
	}
	if s.LastError != "" {
		fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Last error"), bad.Sprint(s.LastError))
	}
	streak := good.Sprint("0")
	switch {
	case s.Stuck:
		streak = bad.Sprintf("%d (stuck)", s.FailureStreak)
	case s.FailureStreak > 0:
		streak = fmt.Sprintf("%d", s.FailureStreak)
	}
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Failure streak"), streak)
}

// JSON writes the status result as a json object to the writer.
func (r Result) JSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

func get(ctx context.Context, server, path string) ([]byte, error) {
	url := fmt.Sprintf("http://%s%s", server, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serrors.Wrap("creating request", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap("querying boundary daemon", err, "url", url)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.Wrap("reading response", err, "url", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.New("status not OK", "status", resp.Status,
			"response", strings.TrimSpace(string(body)))
	}
	return body, nil
}
