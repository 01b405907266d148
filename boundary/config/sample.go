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

package config

const watcherSample = `
# The ordered list of control-plane endpoints serving the routing table
# snapshot. Endpoints are tried in order until one answers; the endpoint that
# answered last is preferred for subsequent refreshes.
sources = ["http://127.0.0.1:8041/v1/routing-table"]

# The interval between refresh attempts. (default "15s")
poll_interval = "15s"

# The timeout for a single fetch attempt against one endpoint. (default "5s")
fetch_timeout = "5s"

# The maximum backoff between refresh attempts after consecutive failures.
# (default "5m")
backoff_max = "5m"

# How long the last healthy endpoint is preferred before the configured
# endpoint order applies again. (default "10m")
source_ttl = "10m"

# The age of the active routing table beyond which a staleness warning is
# logged. Stale tables remain in use. (default "5m")
staleness_threshold = "5m"

# The number of consecutive failed refresh attempts after which the watcher
# reports itself as stuck. (default 10)
stuck_threshold = 10
`

const proxySample = `
# The path of the rendered routing artifact consumed by the reverse proxy.
# The artifact is replaced atomically. (default "/etc/gatewatch/routes.json")
artifact_path = "/etc/gatewatch/routes.json"

# The command that validates the installed artifact before the reverse proxy
# is reloaded. Exit code 0 means the artifact is acceptable.
check_command = ["nginx", "-t", "-q"]

# The command that signals the reverse proxy to pick up the artifact.
reload_command = ["nginx", "-s", "reload"]

# The timeout for a single check or reload command invocation. (default "10s")
command_timeout = "10s"
`
