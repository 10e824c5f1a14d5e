// Package normalize converts the dashboard's loosely formatted timestamp
// strings into absolute UTC instants.
package normalize

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const isoLayout = "2006-01-02T15:04:05-07:00"

// zoneOffsets maps the named US timezone abbreviations the dashboard emits
// to fixed UTC offsets in seconds. Go's time.Parse cannot resolve bare
// abbreviations on its own, so they are split off and applied explicitly.
var zoneOffsets = map[string]int{
	"EDT":  -4 * 3600,
	"EST":  -5 * 3600,
	"CDT":  -5 * 3600,
	"CST":  -6 * 3600,
	"MDT":  -6 * 3600,
	"MST":  -7 * 3600,
	"PDT":  -7 * 3600,
	"PST":  -8 * 3600,
	"AKDT": -8 * 3600,
	"AKST": -9 * 3600,
	"UTC":  0,
	"GMT":  0,
}

// layouts cover the timestamp shapes observed on the dashboard once the
// zone abbreviation has been split off.
var layouts = []string{
	"Mon, Jan 2, 2006, 3:04 PM",
	"Mon, January 2, 2006, 3:04 PM",
	"Mon, Jan 2, 2006 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"January 2, 2006, 3:04 PM",
}

// Instant parses raw into an ISO-8601 UTC instant string. A value with no
// timezone is treated as already UTC. Empty input passes through. On parse
// failure the original string is returned verbatim with ok=false so callers
// can keep the raw value and log a warning.
func Instant(raw string) (value string, ok bool) {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return raw, true
	}
	if t, parsed := parseWithZone(cleaned); parsed {
		return t.UTC().Format(isoLayout), true
	}
	if t, err := dateparse.ParseAny(cleaned); err == nil {
		if t.Location() == time.Local {
			// dateparse resolved nothing zone-like; treat the wall time as UTC.
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		}
		return t.UTC().Format(isoLayout), true
	}
	return raw, false
}

// parseWithZone handles "Sun, Aug 17, 2025, 8:10 PM EDT" style strings by
// stripping the trailing zone abbreviation and parsing the remainder in the
// matching fixed-offset location.
func parseWithZone(cleaned string) (time.Time, bool) {
	idx := strings.LastIndexByte(cleaned, ' ')
	if idx < 0 {
		return time.Time{}, false
	}
	abbrev := strings.ToUpper(cleaned[idx+1:])
	offset, known := zoneOffsets[abbrev]
	if !known {
		return time.Time{}, false
	}
	rest := strings.TrimSpace(cleaned[:idx])
	loc := time.FixedZone(abbrev, offset)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, rest, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
