package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// OMDb contains configuration for the structured episode API.
type OMDb struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// IMDb contains configuration for the HTML catalog that is scraped for
// supplementary ratings, votes, and air dates.
type IMDb struct {
	BaseURL         string `toml:"base_url"`
	UserAgent       string `toml:"user_agent"`
	AcceptLanguage  string `toml:"accept_language"`
	MinIntervalMS   int    `toml:"min_interval_ms"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	ScrapeAttempts  int    `toml:"scrape_attempts"`
	ScrapeBackoffMS int    `toml:"scrape_backoff_ms"`
	ScrapeCache     bool   `toml:"scrape_cache"`
}

// Cache contains lifetimes for the in-memory caches.
type Cache struct {
	SeasonTTLSeconds     int `toml:"season_ttl_seconds"`
	SearchTTLSeconds     int `toml:"search_ttl_seconds"`
	TrendingTTLSeconds   int `toml:"trending_ttl_seconds"`
	RatingHitTTLSeconds  int `toml:"rating_hit_ttl_seconds"`
	RatingMissTTLSeconds int `toml:"rating_miss_ttl_seconds"`
}

// Ingest controls how new shows are first stored.
type Ingest struct {
	// Fast stores primary-source data only and hands catalog augmentation to
	// the background enrichment workers.
	Fast              bool `toml:"fast"`
	EnrichmentWorkers int  `toml:"enrichment_workers"`
	EnrichmentQueue   int  `toml:"enrichment_queue"`
}

// Maintenance controls the periodic staleness sweep.
type Maintenance struct {
	Enabled          bool `toml:"enabled"`
	IntervalHours    int  `toml:"interval_hours"`
	ShowStaleDays    int  `toml:"show_stale_days"`
	EpisodeStaleDays int  `toml:"episode_stale_days"`
}

// API contains HTTP server limits.
type API struct {
	RatePerMinute int `toml:"rate_per_minute"`
	Burst         int `toml:"burst"`
	PopularLimit  int `toml:"popular_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for heatmap.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - OMDb: primary structured source credentials and throttle
//   - IMDb: secondary HTML catalog headers, throttle, and scrape retries
//   - Cache: in-memory cache lifetimes
//   - Ingest: fast vs full ingestion and enrichment worker sizing
//   - Maintenance: periodic staleness sweep
//   - API: HTTP rate limits
//   - Logging: log format, level, and rotation
type Config struct {
	Paths       Paths       `toml:"paths"`
	OMDb        OMDb        `toml:"omdb"`
	IMDb        IMDb        `toml:"imdb"`
	Cache       Cache       `toml:"cache"`
	Ingest      Ingest      `toml:"ingest"`
	Maintenance Maintenance `toml:"maintenance"`
	API         API         `toml:"api"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(defaultProjectConfigFileName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "shows.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "heatmapd.lock")
}

// PIDPath returns the file where a running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "heatmapd.pid")
}

// LogFilePath returns the rotating daemon log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "heatmap.log")
}

// MinInterval returns the primary source throttle interval.
func (o OMDb) MinInterval() time.Duration {
	return time.Duration(o.MinIntervalMS) * time.Millisecond
}

// Timeout returns the primary source request timeout.
func (o OMDb) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// MinInterval returns the catalog throttle interval.
func (i IMDb) MinInterval() time.Duration {
	return time.Duration(i.MinIntervalMS) * time.Millisecond
}

// Timeout returns the catalog request timeout.
func (i IMDb) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// ScrapeBackoff returns the base delay between single-rating scrape attempts.
func (i IMDb) ScrapeBackoff() time.Duration {
	return time.Duration(i.ScrapeBackoffMS) * time.Millisecond
}

func seconds(v int) time.Duration { return time.Duration(v) * time.Second }

// SeasonTTL returns the catalog season list cache lifetime.
func (c Cache) SeasonTTL() time.Duration { return seconds(c.SeasonTTLSeconds) }

// SearchTTL returns the search result cache lifetime.
func (c Cache) SearchTTL() time.Duration { return seconds(c.SearchTTLSeconds) }

// TrendingTTL returns the trending chart cache lifetime.
func (c Cache) TrendingTTL() time.Duration { return seconds(c.TrendingTTLSeconds) }

// RatingHitTTL returns how long a successfully scraped rating is reused.
func (c Cache) RatingHitTTL() time.Duration { return seconds(c.RatingHitTTLSeconds) }

// RatingMissTTL returns how long a failed rating scrape is remembered.
func (c Cache) RatingMissTTL() time.Duration { return seconds(c.RatingMissTTLSeconds) }

// Interval returns the sweep period.
func (m Maintenance) Interval() time.Duration {
	return time.Duration(m.IntervalHours) * time.Hour
}

// ShowStaleAfter returns the age after which show metadata is refreshed.
func (m Maintenance) ShowStaleAfter() time.Duration {
	return time.Duration(m.ShowStaleDays) * 24 * time.Hour
}

// EpisodeStaleAfter returns the age after which an episode rating is rechecked.
func (m Maintenance) EpisodeStaleAfter() time.Duration {
	return time.Duration(m.EpisodeStaleDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
