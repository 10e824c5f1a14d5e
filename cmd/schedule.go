package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flywaywatch/birdcast-scraper/internal/app"
	"github.com/flywaywatch/birdcast-scraper/internal/config"
	"github.com/flywaywatch/birdcast-scraper/internal/ops"
	"github.com/flywaywatch/birdcast-scraper/internal/schedule"
)

// newScheduleCmd creates the 'schedule' subcommand: a daily loop that also
// serves health and metrics endpoints.
func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Runs the corridor scrape daily at its configured time",
		RunE:  runSchedule,
	}
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, corridorName)
	if err != nil {
		return err
	}
	defer a.Close()

	corridor, err := cfg.Corridor(corridorName)
	if err != nil {
		return err
	}
	if corridor.ScheduleAt == "" {
		return fmt.Errorf("corridor %q has no schedule_at configured", corridorName)
	}
	at, err := schedule.ParseTimeOfDay(corridor.ScheduleAt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opsServer := ops.NewServer(cfg.Ops.Addr, a.Logger)
	opsErr := make(chan error, 1)
	go func() { opsErr <- opsServer.Start() }()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("ops server shutdown failed", zap.Error(err))
		}
		if err := <-opsErr; err != nil {
			a.Logger.Warn("ops server exited with error", zap.Error(err))
		}
	}()

	scheduler := schedule.New(at, a.Clock, a.Logger)
	err = scheduler.Run(ctx, func(jobCtx context.Context) error {
		return runBatch(jobCtx, a)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
