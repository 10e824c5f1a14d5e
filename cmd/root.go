// Package cmd defines the CLI commands for the birdcast-scraper executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	corridorName string
)

// newRootCmd creates and configures the root command. Invoking the binary
// with no subcommand runs a single scrape, matching the historical default.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "birdcast-scraper",
		Short: "Scrapes nightly bird migration data from the BirdCast dashboard",
		Long: `birdcast-scraper collects nightly migration measurements for a configured
corridor of county regions from the BirdCast dashboard, normalizes them,
and appends them to a local columnar dataset. It can run one batch and
exit, or sit in a daily schedule loop.`,
		RunE: runScrape,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&corridorName, "corridor", "birdcast", "corridor to scrape")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newScheduleCmd())
	cmd.AddCommand(newCorridorsCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
