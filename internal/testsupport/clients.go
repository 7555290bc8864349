package testsupport

import (
	"testing"

	"heatmap/internal/config"
	"heatmap/internal/fetch"
	"heatmap/internal/imdb"
	"heatmap/internal/omdb"
)

// NewClients builds unthrottled upstream clients against the config's base
// URLs, normally those of an Upstream.
func NewClients(t testing.TB, cfg *config.Config) (*omdb.Client, *imdb.Client) {
	t.Helper()

	fetcher := fetch.New(
		fetch.WithInterval(fetch.ClassAPI, cfg.OMDb.MinInterval()),
		fetch.WithInterval(fetch.ClassCatalog, cfg.IMDb.MinInterval()),
	)
	primary, err := omdb.New(fetcher, cfg.OMDb.APIKey, cfg.OMDb.BaseURL)
	if err != nil {
		t.Fatalf("omdb client: %v", err)
	}
	catalog, err := imdb.New(fetcher, cfg.IMDb.BaseURL,
		imdb.WithRetry(cfg.IMDb.ScrapeAttempts, cfg.IMDb.ScrapeBackoff()),
		imdb.WithRatingCache(cfg.IMDb.ScrapeCache, cfg.Cache.RatingHitTTL(), cfg.Cache.RatingMissTTL()),
		imdb.WithSeasonTTL(cfg.Cache.SeasonTTL()),
		imdb.WithTrendingTTL(cfg.Cache.TrendingTTL()),
	)
	if err != nil {
		t.Fatalf("imdb client: %v", err)
	}
	return primary, catalog
}
