package scraper

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/flywaywatch/birdcast-scraper/internal/record"
)

const bannerWidth = 60

// PrintSummary writes a human-readable report of a completed batch: per-state
// region counts, aggregate bird totals, a few sample rows, and where the
// data landed. The state is read from the middle segment of region codes
// like US-VT-007.
func PrintSummary(w io.Writer, corridor string, batch []record.Record, outputs ...string) {
	banner(w, fmt.Sprintf("%s SCRAPE SUMMARY", strings.ToUpper(corridor)))

	withData := 0
	var totalBirds int64
	byState := map[string]int{}
	for _, rec := range batch {
		if rec.HasData() {
			withData++
		}
		if n, ok := rec[record.ColTotalBirds].(int64); ok {
			totalBirds += n
		} else if s := rec.String(record.ColTotalBirds); s != "" {
			totalBirds += parseCommaCount(s)
		}
		if state := stateOf(rec.String(record.ColRegionCode)); state != "" {
			byState[state]++
		}
	}

	fmt.Fprintf(w, "Regions scraped:   %d\n", len(batch))
	fmt.Fprintf(w, "Regions with data: %d\n", withData)
	fmt.Fprintf(w, "Total birds:       %s\n", withCommas(totalBirds))

	if len(byState) > 0 {
		fmt.Fprintln(w, "\nRegions by state:")
		states := make([]string, 0, len(byState))
		for s := range byState {
			states = append(states, s)
		}
		sort.Strings(states)
		for _, s := range states {
			fmt.Fprintf(w, "  %s: %d\n", s, byState[s])
		}
	}

	if len(batch) > 0 {
		fmt.Fprintln(w, "\nSample records:")
		for i, rec := range batch {
			if i == 3 {
				break
			}
			name := rec.String(record.ColRegionName)
			if name == "" {
				name = rec.String(record.ColRegionCode)
			}
			if name == "" {
				name = rec.String(record.ColURL)
			}
			birds := rec.String(record.ColTotalBirds)
			if n, ok := rec[record.ColTotalBirds].(int64); ok {
				birds = withCommas(n)
			}
			if birds == "" {
				birds = "n/a"
			}
			fmt.Fprintf(w, "  %s: %s birds\n", name, birds)
		}
	}
	if len(outputs) > 0 {
		fmt.Fprintf(w, "\nData saved to: %s\n", strings.Join(outputs, " & "))
	}
	fmt.Fprintln(w, strings.Repeat("=", bannerWidth))
}

// PrintFailure writes the report for a run that produced no records at all.
func PrintFailure(w io.Writer, corridor string) {
	banner(w, fmt.Sprintf("%s SCRAPE FAILED", strings.ToUpper(corridor)))
	fmt.Fprintln(w, "No records were collected. Check the log for fetch errors.")
	fmt.Fprintln(w, strings.Repeat("=", bannerWidth))
}

func banner(w io.Writer, title string) {
	fmt.Fprintln(w, strings.Repeat("=", bannerWidth))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", bannerWidth))
}

// stateOf pulls the state abbreviation out of a region code like US-VT-007.
func stateOf(code string) string {
	parts := strings.Split(code, "-")
	if len(parts) != 3 || len(parts[1]) != 2 {
		return ""
	}
	return parts[1]
}

func parseCommaCount(s string) int64 {
	var n int64
	for _, r := range s {
		if r == ',' {
			continue
		}
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// withCommas renders n with thousands separators.
func withCommas(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
