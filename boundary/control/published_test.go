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
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gatewatch/gatewatch/boundary/control"
)

func TestPublishedTable(t *testing.T) {
	pub := &control.PublishedTable{}
	assert.Nil(t, pub.Load())

	var buf bytes.Buffer
	pub.DiagnosticsWrite(&buf)
	assert.Contains(t, buf.String(), "No routing table active.")

	table := snapshot(3, time.Unix(1700000000, 0).UTC())
	pub.Publish(table)
	assert.Same(t, table, pub.Load())

	buf.Reset()
	pub.DiagnosticsWrite(&buf)
	assert.Contains(t, buf.String(), "Generation: 3")
	assert.Contains(t, buf.String(), "uzr34-subnet")
}
