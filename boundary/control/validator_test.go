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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/boundary/control"
)

func validTable() *control.RoutingTable {
	return &control.RoutingTable{
		Generation:      5,
		SourceTimestamp: time.Unix(1700000000, 0).UTC(),
		Subnets: []control.Subnet{
			{
				ID:         "uzr34",
				RangeStart: 0,
				RangeEnd:   100,
				Nodes: []control.Endpoint{
					{Host: "10.0.0.1", Port: 8080, Protocol: "https"},
					{Host: "node-1.example.org", Port: 443, Protocol: "https"},
				},
			},
			{
				ID:         "tdb26",
				RangeStart: 100,
				RangeEnd:   250,
				Nodes: []control.Endpoint{
					{Host: "2001:db8::1", Port: 8080, Protocol: "http"},
				},
			},
		},
	}
}

func TestTableValidatorStructure(t *testing.T) {
	testCases := map[string]struct {
		Modify       func(*control.RoutingTable)
		ErrAssertion assert.ErrorAssertionFunc
	}{
		"valid table": {
			Modify:       func(*control.RoutingTable) {},
			ErrAssertion: assert.NoError,
		},
		"empty table": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets = nil
			},
			ErrAssertion: assert.NoError,
		},
		"empty subnet id": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].ID = ""
			},
			ErrAssertion: assert.Error,
		},
		"empty node set": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[1].Nodes = nil
			},
			ErrAssertion: assert.Error,
		},
		"empty host": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Host = ""
			},
			ErrAssertion: assert.Error,
		},
		"malformed host": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Host = "under_score.example.org"
			},
			ErrAssertion: assert.Error,
		},
		"host label starts with hyphen": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Host = "-node.example.org"
			},
			ErrAssertion: assert.Error,
		},
		"port zero": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Port = 0
			},
			ErrAssertion: assert.Error,
		},
		"port out of range": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Port = 70000
			},
			ErrAssertion: assert.Error,
		},
		"unknown protocol": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].Nodes[0].Protocol = "gopher"
			},
			ErrAssertion: assert.Error,
		},
		"inverted range": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].RangeStart = 100
				table.Subnets[0].RangeEnd = 0
			},
			ErrAssertion: assert.Error,
		},
		"empty range": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[0].RangeEnd = table.Subnets[0].RangeStart
			},
			ErrAssertion: assert.Error,
		},
		"overlapping ranges": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[1].RangeStart = 50
			},
			ErrAssertion: assert.Error,
		},
		"gap between ranges": {
			Modify: func(table *control.RoutingTable) {
				table.Subnets[1].RangeStart = 150
			},
			ErrAssertion: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			table := validTable()
			tc.Modify(table)
			err := control.TableValidator{}.Validate(table, nil)
			tc.ErrAssertion(t, err)
		})
	}
}

func TestTableValidatorGeneration(t *testing.T) {
	testCases := map[string]struct {
		Table        func() *control.RoutingTable
		Active       func() *control.RoutingTable
		ErrAssertion assert.ErrorAssertionFunc
	}{
		"no active table": {
			Table:        validTable,
			Active:       func() *control.RoutingTable { return nil },
			ErrAssertion: assert.NoError,
		},
		"strictly greater": {
			Table: func() *control.RoutingTable {
				table := validTable()
				table.Generation = 6
				return table
			},
			Active:       validTable,
			ErrAssertion: assert.NoError,
		},
		"equal generation with identical content": {
			Table:        validTable,
			Active:       validTable,
			ErrAssertion: assert.NoError,
		},
		"equal generation with different content": {
			Table: func() *control.RoutingTable {
				table := validTable()
				table.Subnets[0].Nodes = table.Subnets[0].Nodes[:1]
				return table
			},
			Active:       validTable,
			ErrAssertion: assert.Error,
		},
		"generation went backwards": {
			Table: func() *control.RoutingTable {
				table := validTable()
				table.Generation = 4
				return table
			},
			Active:       validTable,
			ErrAssertion: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := control.TableValidator{}.Validate(tc.Table(), tc.Active())
			tc.ErrAssertion(t, err)
		})
	}
}

func TestTableValidatorNilTable(t *testing.T) {
	assert.Error(t, control.TableValidator{}.Validate(nil, nil))
}
