package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flywaywatch/birdcast-scraper/internal/app"
	"github.com/flywaywatch/birdcast-scraper/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	return cfg
}

func TestNewWiresCorridor(t *testing.T) {
	cfg := testConfig(t)

	a, err := app.New(cfg, "birdcast")
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Logger)
	require.NotNil(t, a.Orchestrator)
	require.Equal(t, "birdcast", a.Corridor)

	regions, err := a.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 5)
	require.Equal(t, "US-FL-031", regions[0].Code)

	// The per-corridor log file must exist once the logger is built.
	_, err = os.Stat(cfg.LogPath("birdcast"))
	require.NoError(t, err)
}

func TestNewRejectsUnknownCorridor(t *testing.T) {
	cfg := testConfig(t)
	_, err := app.New(cfg, "transatlantic")
	require.Error(t, err)
}

func TestRegionsFromCountyFile(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	countyFile := filepath.Join(dir, "counties.csv")
	csv := "county,state,birdcast_url\n" +
		"Cook,IL,https://dashboard.birdcast.info/region/US-IL-031\n" +
		"Hennepin,MN,https://dashboard.birdcast.info/region/US-MN-053\n"
	require.NoError(t, os.WriteFile(countyFile, []byte(csv), 0o600))
	cfg.Corridors["mississippi"] = config.CorridorConfig{CountyFile: countyFile, ScheduleAt: "14:00"}

	a, err := app.New(cfg, "mississippi")
	require.NoError(t, err)
	defer a.Close()

	regions, err := a.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, "US-IL-031", regions[0].Code)
	require.Equal(t, "Cook", regions[0].Name)
}

func TestRegionsMissingCountyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Corridors["mississippi"] = config.CorridorConfig{CountyFile: filepath.Join(t.TempDir(), "absent.csv")}

	a, err := app.New(cfg, "mississippi")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Regions()
	require.Error(t, err)
}
