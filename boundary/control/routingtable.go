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

// Package control implements the control-plane side of the boundary daemon:
// the routing table model, the client that fetches snapshots from the
// control plane, the validator that decides whether a snapshot can be
// trusted, and the watcher that drives the update pipeline.
package control

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/pkg/private/util"
)

// Endpoint identifies a single backend node serving a subnet.
type Endpoint struct {
	Host     string
	Port     int
	Protocol string
}

// Addr returns the host:port form of the endpoint.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s", e.Protocol, e.Addr())
}

// Subnet maps a half-open canister range [RangeStart, RangeEnd) to the
// nodes serving it.
type Subnet struct {
	ID         string
	RangeStart uint64
	RangeEnd   uint64
	Nodes      []Endpoint
}

func (s Subnet) equal(o Subnet) bool {
	if s.ID != o.ID || s.RangeStart != o.RangeStart || s.RangeEnd != o.RangeEnd {
		return false
	}
	if len(s.Nodes) != len(o.Nodes) {
		return false
	}
	for i := range s.Nodes {
		if s.Nodes[i] != o.Nodes[i] {
			return false
		}
	}
	return true
}

// RoutingTable is a snapshot of the control plane's subnet-to-endpoint
// mapping. Tables are treated as immutable once constructed; the watcher
// replaces the active table wholesale instead of mutating it.
type RoutingTable struct {
	// Generation is the control plane's version marker for this snapshot.
	// The generation of the active table never decreases over the lifetime
	// of the daemon.
	Generation uint64
	// Subnets holds the mapping in canonical order, sorted by range start.
	Subnets []Subnet
	// SourceTimestamp is when the control plane produced the snapshot.
	SourceTimestamp time.Time
}

type routingTableJSON struct {
	Generation      uint64       `json:"generation"`
	SourceTimestamp int64        `json:"source_timestamp"`
	Subnets         []subnetJSON `json:"subnets"`
}

type subnetJSON struct {
	SubnetID   string         `json:"subnet_id"`
	RangeStart uint64         `json:"canister_range_start"`
	RangeEnd   uint64         `json:"canister_range_end"`
	Nodes      []endpointJSON `json:"nodes"`
}

type endpointJSON struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
}

// ParseRoutingTable parses a routing table snapshot from its wire form and
// normalizes it. The result is canonical: subnets are sorted by range start
// and node lists by endpoint address, so equality, digests and rendering do
// not depend on the order the control plane emitted.
func ParseRoutingTable(raw []byte) (*RoutingTable, error) {
	var wire routingTableJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, serrors.Wrap("parsing routing table payload", err)
	}
	rt := &RoutingTable{
		Generation:      wire.Generation,
		SourceTimestamp: time.Unix(wire.SourceTimestamp, 0).UTC(),
		Subnets:         make([]Subnet, 0, len(wire.Subnets)),
	}
	for _, s := range wire.Subnets {
		subnet := Subnet{
			ID:         s.SubnetID,
			RangeStart: s.RangeStart,
			RangeEnd:   s.RangeEnd,
			Nodes:      make([]Endpoint, 0, len(s.Nodes)),
		}
		for _, n := range s.Nodes {
			subnet.Nodes = append(subnet.Nodes, Endpoint(n))
		}
		rt.Subnets = append(rt.Subnets, subnet)
	}
	rt.normalize()
	return rt, nil
}

// MarshalJSON writes the table in the wire form understood by
// ParseRoutingTable.
func (rt RoutingTable) MarshalJSON() ([]byte, error) {
	wire := routingTableJSON{
		Generation:      rt.Generation,
		SourceTimestamp: rt.SourceTimestamp.Unix(),
		Subnets:         make([]subnetJSON, 0, len(rt.Subnets)),
	}
	for _, s := range rt.Subnets {
		subnet := subnetJSON{
			SubnetID:   s.ID,
			RangeStart: s.RangeStart,
			RangeEnd:   s.RangeEnd,
			Nodes:      make([]endpointJSON, 0, len(s.Nodes)),
		}
		for _, n := range s.Nodes {
			subnet.Nodes = append(subnet.Nodes, endpointJSON(n))
		}
		wire.Subnets = append(wire.Subnets, subnet)
	}
	return json.Marshal(wire)
}

func (rt *RoutingTable) normalize() {
	sort.Slice(rt.Subnets, func(i, j int) bool {
		return rt.Subnets[i].RangeStart < rt.Subnets[j].RangeStart
	})
	for i := range rt.Subnets {
		nodes := rt.Subnets[i].Nodes
		sort.Slice(nodes, func(a, b int) bool {
			if nodes[a].Addr() != nodes[b].Addr() {
				return nodes[a].Addr() < nodes[b].Addr()
			}
			return nodes[a].Protocol < nodes[b].Protocol
		})
	}
}

// Equal reports whether two tables carry the same content. The source
// timestamp is freshness metadata and does not participate in equality.
func (rt *RoutingTable) Equal(other *RoutingTable) bool {
	if rt == nil || other == nil {
		return rt == other
	}
	if rt.Generation != other.Generation {
		return false
	}
	if len(rt.Subnets) != len(other.Subnets) {
		return false
	}
	for i := range rt.Subnets {
		if !rt.Subnets[i].equal(other.Subnets[i]) {
			return false
		}
	}
	return true
}

// Digest returns a short hex digest of the table content, used in log lines
// and for cheap change detection. Tables that are Equal share a digest.
func (rt *RoutingTable) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\n", rt.Generation)
	for _, s := range rt.Subnets {
		fmt.Fprintf(h, "%s %d %d\n", s.ID, s.RangeStart, s.RangeEnd)
		for _, n := range s.Nodes {
			fmt.Fprintf(h, " %s %d %s\n", n.Host, n.Port, n.Protocol)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Age returns how old the snapshot is relative to now.
func (rt *RoutingTable) Age(now time.Time) time.Duration {
	return now.Sub(rt.SourceTimestamp)
}

func (rt *RoutingTable) String() string {
	if rt == nil {
		return "<nil>"
	}
	return fmt.Sprintf("generation %d (%d subnets, digest %s)",
		rt.Generation, len(rt.Subnets), rt.Digest())
}

// DiagnosticsWrite writes the table in human-readable form.
func (rt *RoutingTable) DiagnosticsWrite(w io.Writer) {
	if rt == nil {
		fmt.Fprintln(w, "No routing table active.")
		return
	}
	fmt.Fprintf(w, "Generation: %d\n", rt.Generation)
	fmt.Fprintf(w, "Digest: %s\n", rt.Digest())
	fmt.Fprintf(w, "Source timestamp: %s\n\n", util.TimeToString(rt.SourceTimestamp))

	rows := make([][]string, 0, len(rt.Subnets))
	for _, s := range rt.Subnets {
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
