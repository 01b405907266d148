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

// Package dataplane implements the data-plane side of the boundary daemon:
// rendering the routing table into the artifact the reverse proxy consumes,
// installing that artifact atomically, and driving the proxy reload.
package dataplane

import (
	"encoding/json"
	"sort"

	"github.com/gatewatch/gatewatch/boundary/control"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// artifactVersion is the format version of the rendered routing artifact.
const artifactVersion = 1

type artifactJSON struct {
	Version    int         `json:"version"`
	Generation uint64      `json:"generation"`
	Routes     []routeJSON `json:"routes"`
}

type routeJSON struct {
	SubnetID   string   `json:"subnet_id"`
	RangeStart uint64   `json:"canister_range_start"`
	RangeEnd   uint64   `json:"canister_range_end"`
	Backends   []string `json:"backends"`
}

// Renderer serializes routing tables into the declarative artifact consumed
// by the reverse proxy: a versioned mapping from canister ranges to ordered
// backend lists. The proxy extracts a canister identifier per request, looks
// up the owning range, and fails over across that range's backends.
type Renderer struct{}

// Render produces the routing artifact for table. Rendering is pure and
// canonical: the same table content always yields byte-identical output,
// regardless of the order of subnets and nodes in the input.
func (r Renderer) Render(table *control.RoutingTable) ([]byte, error) {
	if table == nil {
		return nil, serrors.New("no table")
	}
	artifact := artifactJSON{
		Version:    artifactVersion,
		Generation: table.Generation,
		Routes:     make([]routeJSON, 0, len(table.Subnets)),
	}
	for _, subnet := range table.Subnets {
		backends := make([]string, 0, len(subnet.Nodes))
		for _, node := range subnet.Nodes {
			backends = append(backends, node.String())
		}
		sort.Strings(backends)
		artifact.Routes = append(artifact.Routes, routeJSON{
			SubnetID:   subnet.ID,
			RangeStart: subnet.RangeStart,
			RangeEnd:   subnet.RangeEnd,
			Backends:   backends,
		})
	}
	sort.Slice(artifact.Routes, func(i, j int) bool {
		return artifact.Routes[i].RangeStart < artifact.Routes[j].RangeStart
	})
	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, serrors.Wrap("encoding artifact", err)
	}
	return append(raw, '\n'), nil
}
