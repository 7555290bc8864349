package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/daemon"
	"heatmap/internal/enrich"
	"heatmap/internal/fetch"
	"heatmap/internal/imdb"
	"heatmap/internal/logging"
	"heatmap/internal/maintenance"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
	"heatmap/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the heatmap daemon and blocks until SIGINT, SIGTERM, or cmdCtx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if opts.Development {
		logger = logger.With(logging.Bool("development", true))
	}
	logStartupSnapshot(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open show store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.data_dir permissions"),
		)
		return err
	}

	parts, err := buildComponents(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return err
	}

	d, err := daemon.New(cfg, logger, parts)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other heatmapd owns the data directory"),
			logging.String(logging.FieldImpact, "no requests are served"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("heatmap daemon shutting down")
	return nil
}

// buildComponents wires the upstream clients, reconciliation engine, and
// background workers for a daemon.
func buildComponents(cfg *config.Config, st *store.Store, logger *slog.Logger) (daemon.Components, error) {
	fetchOpts := []fetch.Option{
		fetch.WithLogger(logger),
		fetch.WithInterval(fetch.ClassAPI, cfg.OMDb.MinInterval()),
		fetch.WithTimeout(fetch.ClassAPI, cfg.OMDb.Timeout()),
		fetch.WithInterval(fetch.ClassCatalog, cfg.IMDb.MinInterval()),
		fetch.WithTimeout(fetch.ClassCatalog, cfg.IMDb.Timeout()),
	}
	if ua := strings.TrimSpace(cfg.IMDb.UserAgent); ua != "" {
		fetchOpts = append(fetchOpts, fetch.WithHeader(fetch.ClassCatalog, "User-Agent", ua))
	}
	if lang := strings.TrimSpace(cfg.IMDb.AcceptLanguage); lang != "" {
		fetchOpts = append(fetchOpts, fetch.WithHeader(fetch.ClassCatalog, "Accept-Language", lang))
	}
	fetcher := fetch.New(fetchOpts...)

	primary, err := omdb.New(fetcher, cfg.OMDb.APIKey, cfg.OMDb.BaseURL)
	if err != nil {
		return daemon.Components{}, fmt.Errorf("omdb client: %w", err)
	}
	catalog, err := imdb.New(fetcher, cfg.IMDb.BaseURL,
		imdb.WithLogger(logger),
		imdb.WithRetry(cfg.IMDb.ScrapeAttempts, cfg.IMDb.ScrapeBackoff()),
		imdb.WithRatingCache(cfg.IMDb.ScrapeCache, cfg.Cache.RatingHitTTL(), cfg.Cache.RatingMissTTL()),
		imdb.WithSeasonTTL(cfg.Cache.SeasonTTL()),
		imdb.WithTrendingTTL(cfg.Cache.TrendingTTL()),
	)
	if err != nil {
		return daemon.Components{}, fmt.Errorf("imdb client: %w", err)
	}

	staleness := reconcile.Staleness{
		ShowAfter:    cfg.Maintenance.ShowStaleAfter(),
		EpisodeAfter: cfg.Maintenance.EpisodeStaleAfter(),
	}
	engine := reconcile.New(st, primary, catalog, reconcile.WithLogger(logger))
	scheduler := enrich.NewScheduler(st, engine,
		enrich.WithLogger(logger),
		enrich.WithWorkers(cfg.Ingest.EnrichmentWorkers),
		enrich.WithQueueSize(cfg.Ingest.EnrichmentQueue),
	)
	service := api.NewShowService(st, engine, primary, catalog,
		api.WithLogger(logger),
		api.WithScheduler(scheduler),
		api.WithFastIngest(cfg.Ingest.Fast),
		api.WithStaleness(staleness),
		api.WithSearchTTL(cfg.Cache.SearchTTL()),
		api.WithPopularLimit(cfg.API.PopularLimit),
	)

	parts := daemon.Components{Store: st, Service: service, Enrichment: scheduler}
	if cfg.Maintenance.Enabled {
		parts.Maintenance = maintenance.New(st, engine,
			maintenance.WithLogger(logger),
			maintenance.WithInterval(cfg.Maintenance.Interval()),
			maintenance.WithStaleness(staleness),
		)
	}
	return parts, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("omdb_key_present", strings.TrimSpace(cfg.OMDb.APIKey) != ""),
		logging.String("omdb_base_url", cfg.OMDb.BaseURL),
		logging.String("imdb_base_url", cfg.IMDb.BaseURL),
		logging.Duration("omdb_min_interval", cfg.OMDb.MinInterval()),
		logging.Duration("imdb_min_interval", cfg.IMDb.MinInterval()),
		logging.Bool("fast_ingest", cfg.Ingest.Fast),
		logging.Int("enrichment_workers", cfg.Ingest.EnrichmentWorkers),
		logging.Bool("maintenance_enabled", cfg.Maintenance.Enabled),
		logging.String("database", cfg.DatabasePath()),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
