// Package scraper runs the fetch-extract loop over a corridor's regions and
// reports the batch outcome.
package scraper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/metrics"
	"github.com/flywaywatch/birdcast-scraper/internal/record"
	"github.com/flywaywatch/birdcast-scraper/internal/region"
)

// DefaultDelay spaces out requests to the dashboard between regions.
const DefaultDelay = 500 * time.Millisecond

// Fetcher retrieves the rendered page body for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns a page body into a record.
type Extractor interface {
	Extract(html, url string, scrapedAt time.Time) record.Record
}

// Orchestrator walks a list of regions sequentially, pausing between
// requests. A failed region is logged and skipped; the batch carries on.
type Orchestrator struct {
	fetcher   Fetcher
	extractor Extractor
	clock     clockwork.Clock
	delay     time.Duration
	logger    *zap.Logger
}

// Option adjusts an Orchestrator.
type Option func(*Orchestrator)

// WithClock substitutes the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithDelay overrides the inter-request pause.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// New builds an Orchestrator.
func New(f Fetcher, e Extractor, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   f,
		extractor: e,
		clock:     clockwork.NewRealClock(),
		delay:     DefaultDelay,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run scrapes every region in order and returns whatever records were
// produced. Fetch failures skip the region. Context cancellation stops the
// loop and returns the partial batch along with the context error.
func (o *Orchestrator) Run(ctx context.Context, regions []region.Region) ([]record.Record, error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))
	log.Info("starting batch", zap.Int("regions", len(regions)))

	start := o.clock.Now()
	var batch []record.Record
	for i, reg := range regions {
		if err := ctx.Err(); err != nil {
			log.Warn("batch interrupted", zap.Int("completed", i), zap.Error(err))
			return batch, err
		}
		if i > 0 && o.delay > 0 {
			select {
			case <-o.clock.After(o.delay):
			case <-ctx.Done():
				log.Warn("batch interrupted", zap.Int("completed", i), zap.Error(ctx.Err()))
				return batch, ctx.Err()
			}
		}

		scrapedAt := o.clock.Now()
		body, err := o.fetcher.Fetch(ctx, reg.URL)
		if err != nil {
			metrics.ObserveFetch(metrics.ResultError)
			log.Warn("fetch failed; skipping region",
				zap.String("region", reg.Code),
				zap.String("url", reg.URL),
				zap.Error(err))
			continue
		}
		metrics.ObserveFetch(metrics.ResultOK)

		rec := o.extractor.Extract(body, reg.URL, scrapedAt)
		if reg.Name != "" && rec.String(record.ColRegionName) == "" {
			rec[record.ColRegionName] = reg.Name
		}
		batch = append(batch, rec)
		log.Debug("region scraped",
			zap.String("region", reg.Code),
			zap.Bool("has_data", rec.HasData()))
	}

	elapsed := o.clock.Since(start)
	metrics.AddRecordsScraped(len(batch))
	metrics.ObserveBatchDuration(elapsed)
	log.Info("batch complete",
		zap.Int("records", len(batch)),
		zap.Int("regions", len(regions)),
		zap.Duration("elapsed", elapsed))
	return batch, nil
}
