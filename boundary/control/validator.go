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
	"net"
	"sort"
	"strings"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

var knownProtocols = map[string]bool{
	"http":  true,
	"https": true,
}

// TableValidator checks the soundness of a freshly fetched routing table. A
// table failing any check is rejected wholesale; the returned error names
// the offending subnet and the violated rule so that a rejection can be
// diagnosed from the logs without re-fetching.
type TableValidator struct{}

// Validate checks table against the structural invariants and against the
// currently active table. Passing a nil active table skips the generation
// check; this is the bootstrap case before the first successful update.
func (v TableValidator) Validate(table, active *RoutingTable) error {
	if table == nil {
		return serrors.New("no table")
	}
	for _, subnet := range table.Subnets {
		if err := v.validateSubnet(subnet); err != nil {
			return err
		}
	}
	if err := v.validatePartition(table.Subnets); err != nil {
		return err
	}
	return v.validateGeneration(table, active)
}

func (v TableValidator) validateSubnet(subnet Subnet) error {
	if subnet.ID == "" {
		return serrors.New("empty subnet id",
			"range_start", subnet.RangeStart)
	}
	if len(subnet.Nodes) == 0 {
		return serrors.New("subnet has no nodes", "subnet", subnet.ID)
	}
	for _, node := range subnet.Nodes {
		if !validHost(node.Host) {
			return serrors.New("malformed endpoint host",
				"subnet", subnet.ID, "host", node.Host)
		}
		if node.Port < 1 || node.Port > 65535 {
			return serrors.New("endpoint port out of range",
				"subnet", subnet.ID, "host", node.Host, "port", node.Port)
		}
		if !knownProtocols[node.Protocol] {
			return serrors.New("unknown endpoint protocol",
				"subnet", subnet.ID, "host", node.Host,
				"protocol", node.Protocol)
		}
	}
	if subnet.RangeStart >= subnet.RangeEnd {
		return serrors.New("invalid canister range", "subnet", subnet.ID,
			"range_start", subnet.RangeStart, "range_end", subnet.RangeEnd)
	}
	return nil
}

// validatePartition checks that the canister ranges do not overlap and leave
// no gaps over the observed space.
func (v TableValidator) validatePartition(subnets []Subnet) error {
	ordered := make([]Subnet, len(subnets))
	copy(ordered, subnets)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].RangeStart < ordered[j].RangeStart
	})
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		if cur.RangeStart < prev.RangeEnd {
			return serrors.New("overlapping canister ranges",
				"subnet", cur.ID, "other", prev.ID,
				"range_start", cur.RangeStart, "other_range_end", prev.RangeEnd)
		}
		if cur.RangeStart > prev.RangeEnd {
			return serrors.New("gap between canister ranges",
				"subnet", cur.ID, "other", prev.ID,
				"range_start", cur.RangeStart, "other_range_end", prev.RangeEnd)
		}
	}
	return nil
}

func (v TableValidator) validateGeneration(table, active *RoutingTable) error {
	if active == nil {
		return nil
	}
	switch {
	case table.Generation > active.Generation:
		return nil
	case table.Generation < active.Generation:
		return serrors.New("generation went backwards",
			"generation", table.Generation,
			"active_generation", active.Generation)
	case !table.Equal(active):
		return serrors.New("same generation with different content",
			"generation", table.Generation,
			"digest", table.Digest(), "active_digest", active.Digest())
	}
	return nil
}

// validHost accepts IP literals and DNS names.
func validHost(host string) bool {
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z':
			case c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9':
			case c == '-':
			default:
				return false
			}
		}
	}
	return true
}
