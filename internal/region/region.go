// Package region models the geographic units the scraper observes and loads
// the corridor county lists produced by the offline flyway analysis.
package region

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Region is a geographic unit of observation with one dashboard URL. The
// attributes are immutable once configured.
type Region struct {
	Code  string
	Name  string
	State string
	URL   string
}

var codePattern = regexp.MustCompile(`/region/([^/]+)$`)

// ParseCode extracts the region code (for example "US-FL-031") from a
// dashboard URL. It returns "" when the URL does not end in a region path.
func ParseCode(url string) string {
	m := codePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return ""
	}
	return m[1]
}

// FromURLs wraps plain dashboard URLs in Region values, deriving the code
// from each URL.
func FromURLs(urls []string) []Region {
	regions := make([]Region, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		regions = append(regions, Region{Code: ParseCode(u), URL: u})
	}
	return regions
}

// LoadCorridorFile reads a corridor county list CSV. The file must carry a
// birdcast_url column; county and state identity columns are carried through
// when present. The whole file is read into memory once per run.
func LoadCorridorFile(path string) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corridor file %q (run the corridor analysis first to generate the county list): %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read corridor file %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("corridor file %q is empty", path)
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	urlCol, ok := idx["birdcast_url"]
	if !ok {
		return nil, fmt.Errorf("corridor file %q has no birdcast_url column", path)
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	regions := make([]Region, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if urlCol >= len(row) {
			continue
		}
		url := strings.TrimSpace(row[urlCol])
		if url == "" {
			continue
		}
		regions = append(regions, Region{
			Code:  ParseCode(url),
			Name:  cell(row, "county"),
			State: cell(row, "state"),
			URL:   url,
		})
	}
	return regions, nil
}
