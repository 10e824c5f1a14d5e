package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scraper.TimeoutSeconds != 30 {
		t.Fatalf("expected default timeout 30s, got %d", cfg.Scraper.TimeoutSeconds)
	}
	if got := cfg.Delay(); got != 500*time.Millisecond {
		t.Fatalf("expected default delay 500ms, got %v", got)
	}
	base, ok := cfg.Corridors["birdcast"]
	if !ok || len(base.URLs) != 5 {
		t.Fatalf("expected stock birdcast corridor with 5 urls: %+v", cfg.Corridors)
	}
	if base.ScheduleAt != "12:00" {
		t.Fatalf("expected birdcast schedule 12:00, got %q", base.ScheduleAt)
	}
	miss, ok := cfg.Corridors["mississippi"]
	if !ok || miss.CountyFile == "" || miss.ScheduleAt != "14:00" {
		t.Fatalf("expected stock mississippi corridor: %+v", miss)
	}
	if pac := cfg.Corridors["pacific"]; pac.ScheduleAt != "" {
		t.Fatalf("pacific corridor should have no schedule, got %q", pac.ScheduleAt)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
scraper:
  user_agent: test-agent
  timeout_seconds: 45
  delay_ms: 100
paths:
  data_dir: /var/lib/birdcast
  logs_dir: /var/log/birdcast
ops:
  addr: ":9999"
logging:
  development: false
corridors:
  atlantic:
    county_file: atlantic_counties.csv
    schedule_at: "13:30"
    csv_output: true
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scraper.UserAgent != "test-agent" || cfg.Scraper.TimeoutSeconds != 45 {
		t.Fatalf("expected scraper overrides to apply: %+v", cfg.Scraper)
	}
	if got := cfg.FetchTimeout(); got != 45*time.Second {
		t.Fatalf("expected fetch timeout 45s, got %v", got)
	}
	if cfg.Ops.Addr != ":9999" {
		t.Fatalf("expected ops addr override, got %q", cfg.Ops.Addr)
	}
	atlantic, err := cfg.Corridor("atlantic")
	if err != nil {
		t.Fatalf("Corridor() error = %v", err)
	}
	if atlantic.CountyFile != "atlantic_counties.csv" || !atlantic.CSVOutput {
		t.Fatalf("expected atlantic corridor to be loaded: %+v", atlantic)
	}
	if got := cfg.DatasetPath("atlantic"); got != filepath.Join("/var/lib/birdcast", "atlantic_data.parquet") {
		t.Fatalf("unexpected dataset path %q", got)
	}
	if got := cfg.LogPath("atlantic"); got != filepath.Join("/var/log/birdcast", "atlantic_scraper.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}

func TestCorridorUnknown(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := cfg.Corridor("nope"); err == nil || !strings.Contains(err.Error(), "birdcast") {
		t.Fatalf("expected error naming the configured corridors, got %v", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Scraper: ScraperConfig{TimeoutSeconds: 30},
		Paths:   PathsConfig{DataDir: "data", LogsDir: "logs"},
		Corridors: map[string]CorridorConfig{
			"birdcast": {URLs: []string{"https://dashboard.birdcast.info/region/US-FL-031"}},
		},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid timeout",
			cfg: func() Config {
				c := base
				c.Scraper.TimeoutSeconds = 0
				return c
			}(),
			want: "scraper.timeout_seconds",
		},
		{
			name: "negative delay",
			cfg: func() Config {
				c := base
				c.Scraper.DelayMs = -1
				return c
			}(),
			want: "scraper.delay_ms",
		},
		{
			name: "missing data dir",
			cfg: func() Config {
				c := base
				c.Paths.DataDir = ""
				return c
			}(),
			want: "paths.data_dir",
		},
		{
			name: "no corridors",
			cfg: func() Config {
				c := base
				c.Corridors = nil
				return c
			}(),
			want: "corridor",
		},
		{
			name: "corridor without roster",
			cfg: func() Config {
				c := base
				c.Corridors = map[string]CorridorConfig{"empty": {}}
				return c
			}(),
			want: "urls or a county_file",
		},
		{
			name: "corridor with both rosters",
			cfg: func() Config {
				c := base
				c.Corridors = map[string]CorridorConfig{"both": {
					URLs:       []string{"https://dashboard.birdcast.info/region/US-FL-031"},
					CountyFile: "counties.csv",
				}}
				return c
			}(),
			want: "both urls and a county_file",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
