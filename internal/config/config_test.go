package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"heatmap/internal/config"
)

func TestLoadDefaultConfigUsesEnvOMDbKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "heatmap")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "shows.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:5000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.OMDb.APIKey != "test-key" {
		t.Fatalf("expected OMDb key from env, got %q", cfg.OMDb.APIKey)
	}
	if cfg.OMDb.MinInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected omdb interval: %v", cfg.OMDb.MinInterval())
	}
	if cfg.IMDb.MinInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected imdb interval: %v", cfg.IMDb.MinInterval())
	}
	if cfg.Cache.SeasonTTL() != 5*time.Minute {
		t.Fatalf("unexpected season ttl: %v", cfg.Cache.SeasonTTL())
	}
	if cfg.Cache.RatingMissTTL() != time.Hour || cfg.Cache.RatingHitTTL() != 24*time.Hour {
		t.Fatalf("unexpected rating ttls: hit=%v miss=%v", cfg.Cache.RatingHitTTL(), cfg.Cache.RatingMissTTL())
	}
	if cfg.Maintenance.Enabled {
		t.Fatal("expected maintenance disabled by default")
	}
	if cfg.Maintenance.Interval() != 6*time.Hour {
		t.Fatalf("unexpected maintenance interval: %v", cfg.Maintenance.Interval())
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "heatmap.toml")

	type payload struct {
		OMDb struct {
			APIKey        string `toml:"api_key"`
			BaseURL       string `toml:"base_url"`
			MinIntervalMS int    `toml:"min_interval_ms"`
		} `toml:"omdb"`
		Maintenance struct {
			IntervalHours int `toml:"interval_hours"`
		} `toml:"maintenance"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.OMDb.APIKey = "abc123"
	custom.OMDb.BaseURL = "https://example.com/omdb/"
	custom.OMDb.MinIntervalMS = 100
	custom.Maintenance.IntervalHours = 2
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.OMDb.APIKey != "abc123" {
		t.Fatalf("expected OMDb key from file, got %q", cfg.OMDb.APIKey)
	}
	if cfg.OMDb.BaseURL != "https://example.com/omdb/" {
		t.Fatalf("expected base url override, got %q", cfg.OMDb.BaseURL)
	}
	if cfg.OMDb.MinInterval() != 100*time.Millisecond {
		t.Fatalf("expected 100ms interval, got %v", cfg.OMDb.MinInterval())
	}
	if cfg.Maintenance.IntervalHours != 2 {
		t.Fatalf("expected interval 2, got %d", cfg.Maintenance.IntervalHours)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized json format, got %q", cfg.Logging.Format)
	}
	if cfg.IMDb.ScrapeAttempts != 3 {
		t.Fatalf("expected default scrape attempts to survive partial file, got %d", cfg.IMDb.ScrapeAttempts)
	}
}

func TestEnvironmentToggles(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "env-key")
	t.Setenv("HEATMAP_AUTO_REFRESH", "1")
	t.Setenv("HEATMAP_FAST_INGEST", "0")
	t.Setenv("HEATMAP_SCRAPE_CACHE", "not-a-bool")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Maintenance.Enabled {
		t.Fatal("expected maintenance enabled from env")
	}
	if cfg.Ingest.Fast {
		t.Fatal("expected fast ingest disabled from env")
	}
	if !cfg.IMDb.ScrapeCache {
		t.Fatal("expected unparsable toggle to keep default")
	}
}

func TestFileKeyWinsOverEnvFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "heatmap.toml")
	if err := os.WriteFile(configPath, []byte("[omdb]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OMDB_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OMDb.APIKey != "file-key" {
		t.Fatalf("expected key from file, got %q", cfg.OMDb.APIKey)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_ = os.Unsetenv("OMDB_API_KEY")
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "omdb.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_omdb_api_key_here") {
		t.Fatalf("sample config missing placeholder OMDb key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "heatmap") {
		t.Fatalf("expected data dir to contain heatmap, got %q", cfg.Paths.DataDir)
	}
	if cfg.Cache.SeasonTTLSeconds != 300 {
		t.Fatalf("expected season ttl 300 in sample, got %d", cfg.Cache.SeasonTTLSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	mutations := map[string]func(*config.Config){
		"missing key":        func(c *config.Config) { c.OMDb.APIKey = "" },
		"zero timeout":       func(c *config.Config) { c.OMDb.TimeoutSeconds = 0 },
		"negative interval":  func(c *config.Config) { c.IMDb.MinIntervalMS = -1 },
		"no scrape attempts": func(c *config.Config) { c.IMDb.ScrapeAttempts = 0 },
		"zero season ttl":    func(c *config.Config) { c.Cache.SeasonTTLSeconds = 0 },
		"zero workers":       func(c *config.Config) { c.Ingest.EnrichmentWorkers = 0 },
		"zero sweep":         func(c *config.Config) { c.Maintenance.IntervalHours = 0 },
		"zero rate":          func(c *config.Config) { c.API.RatePerMinute = 0 },
		"bad base url":       func(c *config.Config) { c.IMDb.BaseURL = "not a url" },
	}
	for name, mutate := range mutations {
		cfg := config.Default()
		cfg.OMDb.APIKey = "key"
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := config.Default()
	cfg.OMDb.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
