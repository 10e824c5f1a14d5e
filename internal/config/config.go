// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Scraper   ScraperConfig             `mapstructure:"scraper"`
	Paths     PathsConfig               `mapstructure:"paths"`
	Ops       OpsConfig                 `mapstructure:"ops"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Corridors map[string]CorridorConfig `mapstructure:"corridors"`
}

// ScraperConfig governs fetch behavior.
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelayMs        int    `mapstructure:"delay_ms"`
}

// PathsConfig sets where datasets and logs land.
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	LogsDir string `mapstructure:"logs_dir"`
}

// OpsConfig controls the health/metrics server used in schedule mode.
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CorridorConfig names one scraping target set. Exactly one of URLs or
// CountyFile supplies the region roster. ScheduleAt is HH:MM and may be
// empty for corridors that are only run by hand.
type CorridorConfig struct {
	URLs       []string `mapstructure:"urls"`
	CountyFile string   `mapstructure:"county_file"`
	ScheduleAt string   `mapstructure:"schedule_at"`
	CSVOutput  bool     `mapstructure:"csv_output"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BIRDCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.delay_ms", 500)
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.logs_dir", "logs")
	v.SetDefault("ops.addr", ":9108")
	v.SetDefault("logging.development", true)

	// The stock corridors. A config file can add more or override these.
	v.SetDefault("corridors.birdcast.urls", []string{
		"https://dashboard.birdcast.info/region/US-FL-031",
		"https://dashboard.birdcast.info/region/US-CO-013",
		"https://dashboard.birdcast.info/region/US-NJ-013",
		"https://dashboard.birdcast.info/region/US-CA-013",
		"https://dashboard.birdcast.info/region/US-AL-081",
	})
	v.SetDefault("corridors.birdcast.schedule_at", "12:00")
	v.SetDefault("corridors.birdcast.csv_output", true)
	v.SetDefault("corridors.mississippi.county_file",
		"mississippi_flyway_corridor_counties_with_urls.csv")
	v.SetDefault("corridors.mississippi.schedule_at", "14:00")
	v.SetDefault("corridors.pacific.county_file",
		"pacific_flyway_corridor_counties_with_urls.csv")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.DelayMs < 0 {
		return fmt.Errorf("scraper.delay_ms must be >= 0")
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if c.Paths.LogsDir == "" {
		return fmt.Errorf("paths.logs_dir must be set")
	}
	if len(c.Corridors) == 0 {
		return fmt.Errorf("at least one corridor must be configured")
	}
	for name, corridor := range c.Corridors {
		if len(corridor.URLs) == 0 && corridor.CountyFile == "" {
			return fmt.Errorf("corridor %q needs urls or a county_file", name)
		}
		if len(corridor.URLs) > 0 && corridor.CountyFile != "" {
			return fmt.Errorf("corridor %q has both urls and a county_file", name)
		}
	}
	return nil
}

// Corridor returns the named corridor section.
func (c Config) Corridor(name string) (CorridorConfig, error) {
	corridor, ok := c.Corridors[name]
	if !ok {
		return CorridorConfig{}, fmt.Errorf("unknown corridor %q (configured: %s)",
			name, strings.Join(c.CorridorNames(), ", "))
	}
	return corridor, nil
}

// CorridorNames lists the configured corridors in stable order.
func (c Config) CorridorNames() []string {
	names := make([]string, 0, len(c.Corridors))
	for name := range c.Corridors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FetchTimeout converts the timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// Delay converts the inter-request pause config into a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Scraper.DelayMs) * time.Millisecond
}

// DatasetPath returns the parquet dataset location for a corridor.
func (c Config) DatasetPath(corridor string) string {
	return filepath.Join(c.Paths.DataDir, corridor+"_data.parquet")
}

// CSVPath returns the CSV export location for a corridor.
func (c Config) CSVPath(corridor string) string {
	return filepath.Join(c.Paths.DataDir, corridor+"_data.csv")
}

// JSONPath returns the legacy JSON dataset location for a corridor.
func (c Config) JSONPath(corridor string) string {
	return filepath.Join(c.Paths.DataDir, corridor+"_data.json")
}

// LogPath returns the log file location for a corridor.
func (c Config) LogPath(corridor string) string {
	return filepath.Join(c.Paths.LogsDir, corridor+"_scraper.log")
}
