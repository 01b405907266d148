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

// Package routes queries the active routing table of a running boundary
// daemon.
package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// Config configures the routes query.
type Config struct {
	// Server is the host:port address of the boundary daemon management API.
	Server string
}

// Result is the active routing table as reported by a boundary daemon.
type Result struct {
	Server string                `json:"server"`
	Table  *control.RoutingTable `json:"table"`
}

// Run queries the active routing table of the boundary daemon.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	raw, err := get(ctx, cfg.Server, "/api/v1/routes")
	if err != nil {
		return nil, err
	}
	table, err := control.ParseRoutingTable(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing routes response", err)
	}
	return &Result{Server: cfg.Server, Table: table}, nil
}

// Human writes human readable output to the writer.
func (r Result) Human(w io.Writer, colored bool) {
	noColor := color.New()
	keys := noColor
	header := noColor
	if colored {
		keys = color.New(color.FgHiCyan)
		header = color.New(color.FgHiBlack)
	}

	t := r.Table
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Server"), r.Server)
	fmt.Fprintf(w, "%s: %d\n", keys.Sprint("Generation"), t.Generation)
	fmt.Fprintf(w, "%s: %s\n", keys.Sprint("Digest"), t.Digest())
	age := time.Since(t.SourceTimestamp).Truncate(time.Second)
	fmt.Fprintf(w, "%s: %s (age %s)\n", keys.Sprint("Source timestamp"),
		t.SourceTimestamp.Format(time.RFC3339), age)
	header.Fprintf(w, "%d subnets:\n", len(t.Subnets))

	rows := make([][]string, 0, len(t.Subnets))
	for _, s := range t.Subnets {
		nodes := make([]string, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			nodes = append(nodes, n.String())
		}
		rows = append(rows, []string{
			s.ID,
			fmt.Sprintf("[%d, %d)", s.RangeStart, s.RangeEnd),
			strings.Join(nodes, ", "),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"SUBNET", "RANGE", "NODES"})
	table.AppendBulk(rows)
	table.Render()
}

// JSON writes the routes result as a json object to the writer.
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
