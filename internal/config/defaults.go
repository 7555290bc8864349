package config

const (
	defaultDataDir               = "~/.local/share/heatmap"
	defaultLogDir                = "~/.local/share/heatmap/logs"
	defaultAPIBind               = "127.0.0.1:5000"
	defaultOMDbBaseURL           = "http://www.omdbapi.com/"
	defaultOMDbMinIntervalMS     = 250
	defaultOMDbTimeoutSeconds    = 10
	defaultIMDbBaseURL           = "https://www.imdb.com"
	defaultIMDbUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"
	defaultIMDbAcceptLanguage    = "en-US,en;q=0.9"
	defaultIMDbMinIntervalMS     = 500
	defaultIMDbTimeoutSeconds    = 12
	defaultScrapeAttempts        = 3
	defaultScrapeBackoffMS       = 1000
	defaultSeasonTTLSeconds      = 300
	defaultSearchTTLSeconds      = 60
	defaultTrendingTTLSeconds    = 86400
	defaultRatingHitTTLSeconds   = 86400
	defaultRatingMissTTLSeconds  = 3600
	defaultEnrichmentWorkers     = 4
	defaultEnrichmentQueue       = 64
	defaultMaintenanceHours      = 6
	defaultShowStaleDays         = 7
	defaultEpisodeStaleDays      = 30
	defaultAPIRatePerMinute      = 120
	defaultAPIBurst              = 20
	defaultPopularLimit          = 12
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogMaxSizeMB          = 50
	defaultLogMaxBackups         = 5
	defaultLogMaxAgeDays         = 30
	defaultConfigPath            = "~/.config/heatmap/config.toml"
	defaultProjectConfigFileName = "heatmap.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		OMDb: OMDb{
			BaseURL:        defaultOMDbBaseURL,
			MinIntervalMS:  defaultOMDbMinIntervalMS,
			TimeoutSeconds: defaultOMDbTimeoutSeconds,
		},
		IMDb: IMDb{
			BaseURL:         defaultIMDbBaseURL,
			UserAgent:       defaultIMDbUserAgent,
			AcceptLanguage:  defaultIMDbAcceptLanguage,
			MinIntervalMS:   defaultIMDbMinIntervalMS,
			TimeoutSeconds:  defaultIMDbTimeoutSeconds,
			ScrapeAttempts:  defaultScrapeAttempts,
			ScrapeBackoffMS: defaultScrapeBackoffMS,
			ScrapeCache:     true,
		},
		Cache: Cache{
			SeasonTTLSeconds:     defaultSeasonTTLSeconds,
			SearchTTLSeconds:     defaultSearchTTLSeconds,
			TrendingTTLSeconds:   defaultTrendingTTLSeconds,
			RatingHitTTLSeconds:  defaultRatingHitTTLSeconds,
			RatingMissTTLSeconds: defaultRatingMissTTLSeconds,
		},
		Ingest: Ingest{
			Fast:              true,
			EnrichmentWorkers: defaultEnrichmentWorkers,
			EnrichmentQueue:   defaultEnrichmentQueue,
		},
		Maintenance: Maintenance{
			Enabled:          false,
			IntervalHours:    defaultMaintenanceHours,
			ShowStaleDays:    defaultShowStaleDays,
			EpisodeStaleDays: defaultEpisodeStaleDays,
		},
		API: API{
			RatePerMinute: defaultAPIRatePerMinute,
			Burst:         defaultAPIBurst,
			PopularLimit:  defaultPopularLimit,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
