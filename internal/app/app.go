// Package app assembles the scraper's components for one corridor.
package app

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/config"
	"github.com/flywaywatch/birdcast-scraper/internal/extract"
	"github.com/flywaywatch/birdcast-scraper/internal/fetcher"
	"github.com/flywaywatch/birdcast-scraper/internal/logging"
	"github.com/flywaywatch/birdcast-scraper/internal/region"
	"github.com/flywaywatch/birdcast-scraper/internal/scraper"
)

// App holds the wired components for one corridor.
type App struct {
	Config       config.Config
	Corridor     string
	Logger       *zap.Logger
	Orchestrator *scraper.Orchestrator
	Clock        clockwork.Clock
}

// New wires config into a ready-to-run App. The logger writes to stdout and
// to the corridor's log file.
func New(cfg config.Config, corridor string) (*App, error) {
	if _, err := cfg.Corridor(corridor); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.LogPath(corridor))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	clock := clockwork.NewRealClock()
	f := fetcher.New(fetcher.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)
	e := extract.New(logger)
	o := scraper.New(f, e, logger,
		scraper.WithClock(clock),
		scraper.WithDelay(cfg.Delay()))

	return &App{
		Config:       cfg,
		Corridor:     corridor,
		Logger:       logger,
		Orchestrator: o,
		Clock:        clock,
	}, nil
}

// Regions resolves the corridor's region roster from its URL list or its
// county file.
func (a *App) Regions() ([]region.Region, error) {
	corridor, err := a.Config.Corridor(a.Corridor)
	if err != nil {
		return nil, err
	}
	if len(corridor.URLs) > 0 {
		return region.FromURLs(corridor.URLs), nil
	}
	regions, err := region.LoadCorridorFile(corridor.CountyFile)
	if err != nil {
		return nil, fmt.Errorf("load corridor county file: %w", err)
	}
	return regions, nil
}

// Close flushes the logger. Sync errors on stdout are expected and ignored.
func (a *App) Close() {
	_ = a.Logger.Sync()
}
