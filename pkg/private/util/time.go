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

package util

import (
	"time"
)

// TimeFmt is the time format used for human-readable timestamps.
const TimeFmt = "2006-01-02 15:04:05.000000-0700"

// TimeToString formats the time as a string.
func TimeToString(t time.Time) string {
	return t.UTC().Format(TimeFmt)
}
