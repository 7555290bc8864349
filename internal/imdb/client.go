package imdb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"heatmap/internal/fetch"
	"heatmap/internal/imdb/extract"
	"heatmap/internal/logging"
	"heatmap/internal/services"
	"heatmap/internal/ttlcache"
)

const (
	defaultBaseURL       = "https://www.imdb.com"
	defaultSeasonTTL     = 5 * time.Minute
	defaultTrendingTTL   = 24 * time.Hour
	defaultRatingHitTTL  = 24 * time.Hour
	defaultRatingMissTTL = time.Hour
	defaultAttempts      = 3
	defaultBackoff       = time.Second
	trendingKey          = "tvmeter"
)

// Scraper is the catalog surface used by reconciliation and the API layer.
type Scraper interface {
	Season(ctx context.Context, imdbID string, season int) ([]extract.Episode, error)
	Rating(ctx context.Context, titleID string) (*float64, error)
	MaxSeason(ctx context.Context, imdbID string) (int, bool, error)
	Trending(ctx context.Context) ([]extract.ChartEntry, error)
	EvictSeason(imdbID string, season int)
	ClearSeasonCache(imdbID string) int
}

type seasonKey struct {
	imdbID string
	season int
}

type ratingOutcome struct {
	value *float64
	found bool
}

// Client scrapes IMDb pages.
type Client struct {
	fetcher  fetch.Doer
	baseURL  string
	pipeline *extract.Pipeline
	logger   *slog.Logger

	seasons  *ttlcache.Cache[seasonKey, []extract.Episode]
	trending *ttlcache.Cache[string, []extract.ChartEntry]
	ratings  *ttlcache.Cache[string, ratingOutcome]

	cacheRatings  bool
	ratingHitTTL  time.Duration
	ratingMissTTL time.Duration
	attempts      uint
	backoff       time.Duration
}

var _ Scraper = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "imdb")
	}
}

// WithSeasonTTL sets how long parsed season listings are reused.
func WithSeasonTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.seasons = ttlcache.New[seasonKey, []extract.Episode](ttl)
	}
}

// WithTrendingTTL sets how long the chart is reused.
func WithTrendingTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.trending = ttlcache.New[string, []extract.ChartEntry](ttl)
	}
}

// WithRatingCache enables the single-rating cache with distinct hit and miss TTLs.
func WithRatingCache(enabled bool, hitTTL, missTTL time.Duration) Option {
	return func(c *Client) {
		c.cacheRatings = enabled
		if hitTTL > 0 {
			c.ratingHitTTL = hitTTL
		}
		if missTTL > 0 {
			c.ratingMissTTL = missTTL
		}
	}
}

// WithRetry sets rating scrape attempts and the base backoff, which doubles
// after each failed attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = uint(attempts)
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// New creates a catalog client backed by fetcher.
func New(fetcher fetch.Doer, baseURL string, opts ...Option) (*Client, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("imdb fetcher required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		fetcher:       fetcher,
		baseURL:       strings.TrimRight(baseURL, "/"),
		pipeline:      extract.NewPipeline(),
		logger:        logging.NewComponentLogger(nil, "imdb"),
		seasons:       ttlcache.New[seasonKey, []extract.Episode](defaultSeasonTTL),
		trending:      ttlcache.New[string, []extract.ChartEntry](defaultTrendingTTL),
		ratings:       ttlcache.New[string, ratingOutcome](defaultRatingHitTTL),
		ratingHitTTL:  defaultRatingHitTTL,
		ratingMissTTL: defaultRatingMissTTL,
		attempts:      defaultAttempts,
		backoff:       defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Season returns the parsed episode listing for one season. Network failures
// and non-200 replies are errors; a page nothing could be extracted from is an
// empty, uncached result.
func (c *Client) Season(ctx context.Context, imdbID string, season int) ([]extract.Episode, error) {
	key := seasonKey{imdbID: imdbID, season: season}
	if cached, ok := c.seasons.Get(key, true); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/title/%s/episodes/?season=%d", c.baseURL, url.PathEscape(imdbID), season)
	body, err := c.get(ctx, endpoint, "season")
	if err != nil {
		return nil, err
	}

	result := c.pipeline.Run(body, season)
	logger := logging.WithContext(services.WithSeason(services.WithShowID(ctx, imdbID), season), c.logger)
	if len(result.Episodes) == 0 {
		logging.WarnWithContext(logger, "season page yielded no episodes", "season_parse_empty",
			logging.Int("html_bytes", len(body)),
			logging.String(logging.FieldErrorHint, "IMDb markup may have changed"),
			logging.String(logging.FieldImpact, "secondary-source data unavailable for this season"),
		)
		return nil, nil
	}
	stats := extract.Summarize(result.Episodes)
	logger.Debug("season parsed",
		logging.String("tier", result.Tier),
		logging.Int("episodes", stats.Count),
		logging.Int("rated", stats.Rated),
		logging.Int("with_votes", stats.WithVotes),
	)
	c.seasons.Set(key, result.Episodes)
	return result.Episodes, nil
}

// EvictSeason drops one cached season listing.
func (c *Client) EvictSeason(imdbID string, season int) {
	c.seasons.Delete(seasonKey{imdbID: imdbID, season: season})
}

// ClearSeasonCache drops every cached season of a show and returns the count.
func (c *Client) ClearSeasonCache(imdbID string) int {
	return c.seasons.DeleteFunc(func(k seasonKey) bool { return k.imdbID == imdbID })
}

// MaxSeason reads the season selector of the episodes landing page.
func (c *Client) MaxSeason(ctx context.Context, imdbID string) (int, bool, error) {
	endpoint := fmt.Sprintf("%s/title/%s/episodes/", c.baseURL, url.PathEscape(imdbID))
	body, err := c.get(ctx, endpoint, "max season")
	if err != nil {
		return 0, false, err
	}
	n, ok := extract.MaxSeasonFromPage(body)
	return n, ok, nil
}

// Trending returns the TV popularity chart.
func (c *Client) Trending(ctx context.Context) ([]extract.ChartEntry, error) {
	if cached, ok := c.trending.Get(trendingKey, true); ok {
		return cached, nil
	}
	body, err := c.get(ctx, c.baseURL+"/chart/tvmeter/", "trending")
	if err != nil {
		return nil, err
	}
	entries := extract.ChartFromPage(body)
	if len(entries) == 0 {
		logging.WarnWithContext(c.logger, "popularity chart yielded no shows", "trending_parse_empty",
			logging.String(logging.FieldErrorHint, "IMDb chart markup may have changed"),
			logging.String(logging.FieldImpact, "trending list is empty"),
		)
		return nil, nil
	}
	c.trending.Set(trendingKey, entries)
	return entries, nil
}

func (c *Client) get(ctx context.Context, endpoint, operation string) ([]byte, error) {
	resp, err := c.fetcher.Get(ctx, fetch.ClassCatalog, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, services.Wrap(services.ErrUpstreamUnavailable, "imdb", operation,
			"status "+strconv.Itoa(resp.StatusCode), nil)
	}
	return resp.Body, nil
}
