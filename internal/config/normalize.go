package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOMDb()
	c.normalizeIMDb()
	c.normalizeToggles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeOMDb() {
	c.OMDb.APIKey = strings.TrimSpace(c.OMDb.APIKey)
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = strings.TrimSpace(value)
		}
	}
	c.OMDb.BaseURL = strings.TrimSpace(c.OMDb.BaseURL)
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}
}

func (c *Config) normalizeIMDb() {
	c.IMDb.BaseURL = strings.TrimRight(strings.TrimSpace(c.IMDb.BaseURL), "/")
	if c.IMDb.BaseURL == "" {
		c.IMDb.BaseURL = defaultIMDbBaseURL
	}
	c.IMDb.UserAgent = strings.TrimSpace(c.IMDb.UserAgent)
	if c.IMDb.UserAgent == "" {
		c.IMDb.UserAgent = defaultIMDbUserAgent
	}
	c.IMDb.AcceptLanguage = strings.TrimSpace(c.IMDb.AcceptLanguage)
	if c.IMDb.AcceptLanguage == "" {
		c.IMDb.AcceptLanguage = defaultIMDbAcceptLanguage
	}
}

// normalizeToggles applies boolean environment overrides.
func (c *Config) normalizeToggles() {
	if value, ok := lookupBool("HEATMAP_AUTO_REFRESH"); ok {
		c.Maintenance.Enabled = value
	}
	if value, ok := lookupBool("HEATMAP_FAST_INGEST"); ok {
		c.Ingest.Fast = value
	}
	if value, ok := lookupBool("HEATMAP_SCRAPE_CACHE"); ok {
		c.IMDb.ScrapeCache = value
	}
}

func lookupBool(key string) (bool, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return value, true
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
