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
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

var durationRegexp = regexp.MustCompile(`^(\d+)([a-zµ]*)$`)

// ParseDuration parses a duration with a single unit suffix. In addition to
// the units understood by time.ParseDuration, d (days), w (weeks) and y
// (years) are supported. In contrast to time.ParseDuration, exactly one
// unit must be present.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, serrors.New("invalid duration", "val", s)
	}
	num, err := strconv.ParseUint(m[1], 10, 63)
	if err != nil {
		return 0, serrors.Wrap("parsing duration value", err, "val", s)
	}
	var unit time.Duration
	switch m[2] {
	case "ns":
		unit = time.Nanosecond
	case "us", "µs":
		unit = time.Microsecond
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = day
	case "w":
		unit = week
	case "y":
		unit = year
	case "":
		return 0, serrors.New("no unit in duration", "val", s)
	default:
		return 0, serrors.New("unknown unit in duration", "unit", m[2], "val", s)
	}
	return time.Duration(num) * unit, nil
}

var fmtUnits = []struct {
	unit time.Duration
	name string
}{
	{year, "y"},
	{week, "w"},
	{day, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "us"},
	{time.Nanosecond, "ns"},
}

// FmtDuration formats the duration using the largest unit that represents
// it without loss.
func FmtDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range fmtUnits {
		if d%u.unit == 0 {
			return fmt.Sprintf("%d%s", d/u.unit, u.name)
		}
	}
	return d.String()
}
