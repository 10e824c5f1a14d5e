// Package record defines the row model shared by the extractor and the
// dataset stores. A record is deliberately map-backed: the dashboard's page
// format drifts over time, so the column set of the persisted dataset is the
// union of every field any scrape has ever produced.
package record

import "time"

// Timestamp is the serialization layout for instant columns. It matches
// ISO-8601 with an explicit offset, which the historical dataset files use.
const Timestamp = "2006-01-02T15:04:05-07:00"

// Column names for every known field. Only ScrapeTimestamp and URL are
// guaranteed present; everything else is best-effort.
const (
	ColScrapeTimestamp = "scrape_timestamp"
	ColURL             = "url"
	ColRegionCode      = "region_code"
	ColRegionName      = "region_name"
	ColTotalBirds      = "total_birds"
	ColPeakBirds       = "peak_birds_in_flight"
	ColDirection       = "flight_direction"
	ColSpeedMPH        = "flight_speed_mph"
	ColAltitudeFt      = "flight_altitude_ft"
	ColStartRaw        = "migration_start_raw"
	ColStartUTC        = "migration_start_utc"
	ColEndRaw          = "migration_end_raw"
	ColEndUTC          = "migration_end_utc"
	ColMigrationDate   = "migration_date"
	ColDebugSample     = "debug_content_sample"
)

// NumericColumns are coerced to nullable integers by the dataset store.
var NumericColumns = []string{ColTotalBirds, ColPeakBirds, ColSpeedMPH, ColAltitudeFt}

// Record is one observation of a region at one scrape instant. Absence of
// any optional column is not an error.
type Record map[string]any

// New returns a record stamped with the scrape instant and source URL.
func New(scrapedAt time.Time, url string) Record {
	return Record{
		ColScrapeTimestamp: scrapedAt.UTC().Format(Timestamp),
		ColURL:             url,
	}
}

// String returns the column as a string, or "" when absent or not a string.
func (r Record) String(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// ScrapeTime parses the scrape_timestamp column. The second return value is
// false when the column is missing or not a valid instant.
func (r Record) ScrapeTime() (time.Time, bool) {
	raw := r.String(ColScrapeTimestamp)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayKey returns the deduplication grouping key: the human-labeled
// observation night when the page provided one, else the calendar date of
// the scrape instant.
func (r Record) DayKey() string {
	if label := r.String(ColMigrationDate); label != "" {
		return label
	}
	if t, ok := r.ScrapeTime(); ok {
		return t.UTC().Format("2006-01-02")
	}
	// Unparsable timestamp; fall back on the date prefix of the raw string.
	raw := r.String(ColScrapeTimestamp)
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}

// HasData reports whether extraction produced anything beyond the identity
// columns. Records without data get a diagnostic content sample attached
// instead of failing.
func (r Record) HasData() bool {
	for col := range r {
		switch col {
		case ColScrapeTimestamp, ColURL, ColRegionCode:
		default:
			return true
		}
	}
	return false
}

// Clone returns a shallow copy. Values are strings and integers, so a
// shallow copy is a full copy in practice.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
