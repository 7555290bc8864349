package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOMDb(); err != nil {
		return err
	}
	if err := c.validateIMDb(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOMDb() error {
	if c.OMDb.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("omdb.api_key is required. Set OMDB_API_KEY env var or edit %s (create with 'heatmap config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.OMDb.BaseURL); err != nil {
		return fmt.Errorf("omdb.base_url: %w", err)
	}
	if c.OMDb.MinIntervalMS < 0 {
		return errors.New("omdb.min_interval_ms must be zero or positive")
	}
	if c.OMDb.TimeoutSeconds <= 0 {
		return errors.New("omdb.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateIMDb() error {
	if _, err := url.ParseRequestURI(c.IMDb.BaseURL); err != nil {
		return fmt.Errorf("imdb.base_url: %w", err)
	}
	if c.IMDb.MinIntervalMS < 0 {
		return errors.New("imdb.min_interval_ms must be zero or positive")
	}
	if c.IMDb.TimeoutSeconds <= 0 {
		return errors.New("imdb.timeout_seconds must be positive")
	}
	if c.IMDb.ScrapeAttempts <= 0 {
		return errors.New("imdb.scrape_attempts must be positive")
	}
	if c.IMDb.ScrapeBackoffMS < 0 {
		return errors.New("imdb.scrape_backoff_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	values := map[string]int{
		"cache.season_ttl_seconds":      c.Cache.SeasonTTLSeconds,
		"cache.search_ttl_seconds":      c.Cache.SearchTTLSeconds,
		"cache.trending_ttl_seconds":    c.Cache.TrendingTTLSeconds,
		"cache.rating_hit_ttl_seconds":  c.Cache.RatingHitTTLSeconds,
		"cache.rating_miss_ttl_seconds": c.Cache.RatingMissTTLSeconds,
	}
	return ensurePositiveMap(values)
}

func (c *Config) validateIngest() error {
	if c.Ingest.EnrichmentWorkers <= 0 {
		return errors.New("ingest.enrichment_workers must be positive")
	}
	if c.Ingest.EnrichmentQueue <= 0 {
		return errors.New("ingest.enrichment_queue must be positive")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	values := map[string]int{
		"maintenance.interval_hours":     c.Maintenance.IntervalHours,
		"maintenance.show_stale_days":    c.Maintenance.ShowStaleDays,
		"maintenance.episode_stale_days": c.Maintenance.EpisodeStaleDays,
	}
	return ensurePositiveMap(values)
}

func (c *Config) validateAPI() error {
	if c.API.RatePerMinute <= 0 {
		return errors.New("api.rate_per_minute must be positive")
	}
	if c.API.Burst <= 0 {
		return errors.New("api.burst must be positive")
	}
	if c.API.PopularLimit <= 0 {
		return errors.New("api.popular_limit must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
