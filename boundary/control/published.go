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
	"io"
	"sync"
)

// PublishedTable holds the copy of the active routing table that observers
// (management API, diagnostics pages) read. The watcher's sequential loop is
// the only writer; the active pointer itself is never shared.
//
// A PublishedTable{} is a valid configuration. Before the first publication
// Load returns nil.
//
// A PublishedTable should not be copied after use.
type PublishedTable struct {
	// mtx protects read and write access to the table pointer. This does not
	// include access to the table itself; tables are immutable once
	// published, so all operations on a loaded table happen outside the
	// mutex-protected area.
	mtx   sync.RWMutex
	table *RoutingTable
}

// Publish replaces the readable copy wholesale.
func (p *PublishedTable) Publish(table *RoutingTable) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.table = table
}

// Load returns the most recently published table, or nil if nothing has been
// published yet.
func (p *PublishedTable) Load() *RoutingTable {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.table
}

// DiagnosticsWrite writes the published table in human-readable form.
func (p *PublishedTable) DiagnosticsWrite(w io.Writer) {
	p.Load().DiagnosticsWrite(w)
}
