package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/app"
	"github.com/flywaywatch/birdcast-scraper/internal/config"
	"github.com/flywaywatch/birdcast-scraper/internal/dataset"
	"github.com/flywaywatch/birdcast-scraper/internal/scraper"
)

// newScrapeCmd creates the 'scrape' subcommand: one batch, then exit.
func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Runs one scrape batch for the selected corridor",
		RunE:  runScrape,
	}
}

// newCorridorsCmd lists the corridors the configuration knows about.
func newCorridorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "corridors",
		Short: "Lists the configured corridors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			for _, name := range cfg.CorridorNames() {
				corridor := cfg.Corridors[name]
				source := corridor.CountyFile
				if source == "" {
					source = fmt.Sprintf("%d urls", len(corridor.URLs))
				}
				at := corridor.ScheduleAt
				if at == "" {
					at = "manual"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, source, at)
			}
			return nil
		},
	}
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, corridorName)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBatch(ctx, a)
}

// runBatch executes one scrape for the app's corridor and persists the
// results. A batch that yields zero records is a failure.
func runBatch(ctx context.Context, a *app.App) error {
	regions, err := a.Regions()
	if err != nil {
		return err
	}

	batch, runErr := a.Orchestrator.Run(ctx, regions)
	if len(batch) == 0 {
		scraper.PrintFailure(os.Stderr, a.Corridor)
		if runErr != nil {
			return runErr
		}
		return fmt.Errorf("corridor %q produced no records", a.Corridor)
	}

	corridor, err := a.Config.Corridor(a.Corridor)
	if err != nil {
		return err
	}

	store := dataset.NewStore(a.Config.DatasetPath(a.Corridor), a.Logger)
	if err := store.Persist(ctx, batch); err != nil {
		return err
	}
	outputs := []string{store.Path()}
	if corridor.CSVOutput {
		csvStore := dataset.NewCSVStore(a.Config.CSVPath(a.Corridor), a.Logger)
		if err := csvStore.Persist(ctx, batch); err != nil {
			return err
		}
		outputs = append(outputs, csvStore.Path())
	}
	// Older deployments kept a JSON dataset; extend it only where one
	// already exists.
	jsonStore := dataset.NewJSONStore(a.Config.JSONPath(a.Corridor), a.Logger)
	if jsonStore.Exists() {
		if err := jsonStore.Persist(ctx, batch); err != nil {
			a.Logger.Warn("legacy json dataset not updated", zap.Error(err))
		} else {
			outputs = append(outputs, jsonStore.Path())
		}
	}

	scraper.PrintSummary(os.Stdout, a.Corridor, batch, outputs...)
	return runErr
}
