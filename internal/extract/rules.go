package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

// Rule extracts zero or more columns from flattened page text. Rules are
// independent of one another and of their ordering; a miss is silent.
// Adding a field to the pipeline means adding one rule here.
type Rule struct {
	Name  string
	Apply func(text string) map[string]any
}

// The dashboard has changed its page text over time, so several fields
// carry two patterns: the labeled form ("Speed: 12 mph") and the prose form
// ("at 12 mph"). Whichever matches wins.
var (
	reRegionName = regexp.MustCompile(`Migration Dashboard\s+([A-Za-z\s,]+?)(?:\s+Search|$)`)
	reTotalBirds = regexp.MustCompile(`(?i)(\d{1,3}(?:,?\d{3})*)\s+Birds crossed.*?last night`)
	rePeakLabel  = regexp.MustCompile(`(?i)(\d{1,3}(?:,?\d{3})*)\s+Birds in flight`)
	rePeakProse  = regexp.MustCompile(`(?i)Peak of (\d{1,3}(?:,?\d{3})*) birds in flight`)
	reDirLabel   = regexp.MustCompile(`(?i)Direction[:\s]*([NESW]{1,3})\b`)
	reDirProse   = regexp.MustCompile(`flying ([NESW]{1,3})\b`)
	reSpeedLabel = regexp.MustCompile(`(?i)Speed[:\s]*(\d+)\s*mph`)
	reSpeedProse = regexp.MustCompile(`at (\d+) mph`)
	reAltLabel   = regexp.MustCompile(`(?i)Altitude[:\s]*(\d{1,3}(?:,?\d{3})*)\s*ft`)
	reAltProse   = regexp.MustCompile(`at (\d{1,3}(?:,?\d{3})*) feet`)

	// Strict instant form: "Sun, Aug 17, 2025, 8:10 PM EDT". The first match
	// in page order is the migration start, the second the end.
	reInstant = regexp.MustCompile(`[A-Za-z]{3}, [A-Za-z]{3,9} \d{1,2}, \d{4}, \d{1,2}:\d{2} [AP]M [A-Z]{3,4}`)
	// Looser fallbacks anchored on the explicit labels, ending at the next
	// meridiem or timezone token.
	reStartLoose = regexp.MustCompile(`(?i)Starting[:\s]*([^,\n\r]+?(?:AM|PM|EDT|EST|CDT|CST|MDT|MST|PDT|PST|AKDT|AKST))`)
	reEndLoose   = regexp.MustCompile(`(?i)Ending[:\s]*([^,\n\r]+?(?:AM|PM|EDT|EST|CDT|CST|MDT|MST|PDT|PST|AKDT|AKST))`)

	reMigDate = regexp.MustCompile(`(?i)((?:Sunday|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday) night, [A-Za-z]{3,9} \d{1,2})`)
)

// rules is the ordered extraction chain applied to every page. Order only
// affects log readability; no rule depends on another's output.
var rules = []Rule{
	{Name: "region_name", Apply: stringRule(reRegionName, record.ColRegionName)},
	{Name: "total_birds", Apply: intRule(record.ColTotalBirds, reTotalBirds)},
	{Name: "peak_birds_in_flight", Apply: intRule(record.ColPeakBirds, rePeakLabel, rePeakProse)},
	{Name: "flight_direction", Apply: directionRule},
	{Name: "flight_speed_mph", Apply: intRule(record.ColSpeedMPH, reSpeedLabel, reSpeedProse)},
	{Name: "flight_altitude_ft", Apply: intRule(record.ColAltitudeFt, reAltLabel, reAltProse)},
	{Name: "migration_window", Apply: windowRule},
	{Name: "migration_date", Apply: stringRule(reMigDate, record.ColMigrationDate)},
}

// stringRule captures the first group of re into col, trimmed.
func stringRule(re *regexp.Regexp, col string) func(string) map[string]any {
	return func(text string) map[string]any {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			return nil
		}
		return map[string]any{col: value}
	}
}

// intRule tries each pattern in turn and parses the first group as an
// integer with thousands separators stripped.
func intRule(col string, patterns ...*regexp.Regexp) func(string) map[string]any {
	return func(text string) map[string]any {
		for _, re := range patterns {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			n, ok := parseCount(m[1])
			if !ok {
				continue
			}
			return map[string]any{col: n}
		}
		return nil
	}
}

func directionRule(text string) map[string]any {
	for _, re := range []*regexp.Regexp{reDirLabel, reDirProse} {
		if m := re.FindStringSubmatch(text); m != nil {
			return map[string]any{record.ColDirection: strings.ToUpper(m[1])}
		}
	}
	return nil
}

// windowRule finds the migration start and end instants. The strict pattern
// is preferred; when it yields fewer than two matches, the label-anchored
// fallbacks pick up whatever they can. Raw strings are kept verbatim; the
// extractor normalizes them into the paired UTC columns afterwards.
func windowRule(text string) map[string]any {
	if matches := reInstant.FindAllString(text, -1); len(matches) >= 2 {
		return map[string]any{
			record.ColStartRaw: strings.TrimSpace(matches[0]),
			record.ColEndRaw:   strings.TrimSpace(matches[1]),
		}
	}
	out := map[string]any{}
	if m := reStartLoose.FindStringSubmatch(text); m != nil {
		out[record.ColStartRaw] = strings.TrimSpace(m[1])
	}
	if m := reEndLoose.FindStringSubmatch(text); m != nil {
		out[record.ColEndRaw] = strings.TrimSpace(m[1])
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseCount parses an integer that may carry thousands separators.
func parseCount(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
