// Package extract turns raw dashboard pages into partial scrape records
// using an ordered chain of independent pattern rules.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/normalize"
	"github.com/flywaywatch/birdcast-scraper/internal/record"
	"github.com/flywaywatch/birdcast-scraper/internal/region"
)

// debugSampleLimit bounds the diagnostic content sample attached when a page
// yields no usable data.
const debugSampleLimit = 500

// Extractor applies the rule chain to fetched pages.
type Extractor struct {
	logger *zap.Logger
}

// New builds an Extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract builds a record from a raw page. The record always carries the
// scrape instant and source URL; every other field is best-effort and
// silently omitted when its pattern does not match. A page that yields
// nothing beyond identity gets a bounded content sample attached so format
// drift can be investigated without failing the run.
func (e *Extractor) Extract(html, url string, scrapedAt time.Time) record.Record {
	rec := record.New(scrapedAt, url)
	if code := region.ParseCode(url); code != "" {
		rec[record.ColRegionCode] = code
	}

	text := Flatten(html)
	for _, rule := range rules {
		for col, value := range rule.Apply(text) {
			rec[col] = value
		}
	}
	e.normalizeWindow(rec)

	if rec.HasData() {
		e.logger.Info("extracted migration data",
			zap.String("url", url),
			zap.Int("fields", len(rec)-2))
		return rec
	}

	e.logger.Warn("no migration data found", zap.String("url", url))
	sample := text
	if runes := []rune(sample); len(runes) > debugSampleLimit {
		sample = string(runes[:debugSampleLimit])
	}
	if sample == "" {
		sample = "No text content"
	}
	rec[record.ColDebugSample] = sample
	return rec
}

// normalizeWindow fills the UTC columns paired with any raw migration
// window strings the rules captured.
func (e *Extractor) normalizeWindow(rec record.Record) {
	pairs := [][2]string{
		{record.ColStartRaw, record.ColStartUTC},
		{record.ColEndRaw, record.ColEndUTC},
	}
	for _, pair := range pairs {
		raw := rec.String(pair[0])
		if raw == "" {
			continue
		}
		iso, ok := normalize.Instant(raw)
		rec[pair[1]] = iso
		if !ok {
			e.logger.Warn("could not parse datetime string", zap.String("value", raw))
		}
	}
}

// Flatten extracts the visible text of an HTML document and collapses all
// whitespace runs to single spaces, the shape the rule patterns expect.
func Flatten(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
