package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"heatmap/internal/imdb"
	"heatmap/internal/logging"
	"heatmap/internal/omdb"
	"heatmap/internal/services"
	"heatmap/internal/store"
	"heatmap/internal/textutil"
)

// Store is the persistence surface the engine mutates.
type Store interface {
	ShowByIMDbID(ctx context.Context, imdbID string) (*store.Show, error)
	ShowByID(ctx context.Context, id int64) (*store.Show, error)
	InsertShow(ctx context.Context, show *store.Show) error
	UpdateShow(ctx context.Context, show *store.Show) error
	TouchShow(ctx context.Context, id int64) error
	EpisodesBySeason(ctx context.Context, showID int64, season int) ([]*store.Episode, error)
	UnratedEpisodes(ctx context.Context, showID int64, seasons ...int) ([]*store.Episode, error)
	InsertEpisode(ctx context.Context, ep *store.Episode) (bool, error)
	UpdateEpisode(ctx context.Context, ep *store.Episode) error
	HasMissing(ctx context.Context, showID int64, season int) (bool, error)
	Signature(ctx context.Context, showID int64, season int) (string, bool, error)
	PutSignature(ctx context.Context, showID int64, season int, signature string) error
}

var _ Store = (*store.Store)(nil)

// Engine reconciles stored shows against both upstream sources.
type Engine struct {
	store   Store
	primary omdb.API
	catalog imdb.Scraper
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "reconcile")
	}
}

// WithClock overrides the time source used for lastChecked and refresh stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine.
func New(st Store, primary omdb.API, catalog imdb.Scraper, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		primary: primary,
		catalog: catalog,
		logger:  logging.NewComponentLogger(nil, "reconcile"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IngestOptions selects the ingestion path.
type IngestOptions struct {
	// Fast skips catalog rating scrapes; callers hand the show to the
	// enrichment scheduler afterwards.
	Fast bool
	// TrackView starts the view counter at one.
	TrackView bool
}

// Ingest stores a show that is not yet known. When the show already exists it
// is returned unchanged. Every season from 1 to totalSeasons is fetched from
// the primary source; on the full path, entries without a rating fall back to
// a catalog scrape of the episode page.
func (e *Engine) Ingest(ctx context.Context, imdbID string, opts IngestOptions) (*store.Show, error) {
	ctx = services.WithShowID(ctx, imdbID)
	logger := logging.WithContext(ctx, e.logger)

	if existing, err := e.store.ShowByIMDbID(ctx, imdbID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	meta, err := e.primary.Show(ctx, imdbID)
	if err != nil {
		return nil, err
	}

	now := e.timestamp()
	show := &store.Show{
		IMDbID:          imdbID,
		Title:           strings.TrimSpace(meta.Title),
		Year:            presentOrEmpty(meta.Year),
		Genres:          presentOrEmpty(meta.Genre),
		TotalSeasons:    meta.Seasons(),
		Rating:          meta.Rating(),
		Votes:           meta.Votes(),
		Poster:          meta.PosterURL(),
		LastFullRefresh: &now,
		LastUpdated:     now,
	}
	if opts.TrackView {
		show.ViewCount = 1
	}
	if err := e.store.InsertShow(ctx, show); err != nil {
		// A concurrent ingest of the same id may have won the unique key.
		if winner, lookupErr := e.store.ShowByIMDbID(ctx, imdbID); lookupErr == nil && winner != nil {
			return winner, nil
		}
		return nil, fmt.Errorf("store show: %w", err)
	}

	episodes := 0
	for season := 1; season <= show.TotalSeasons; season++ {
		n, err := e.ingestSeason(ctx, show, season, opts.Fast)
		if err != nil {
			return show, err
		}
		episodes += n
	}

	logger.Info("show ingested",
		logging.String(logging.FieldEventType, "show_ingested"),
		logging.String("title", show.Title),
		logging.Int("seasons", show.TotalSeasons),
		logging.Int("episodes", episodes),
		logging.Bool("fast", opts.Fast),
	)
	return show, nil
}

func (e *Engine) ingestSeason(ctx context.Context, show *store.Show, season int, fast bool) (int, error) {
	ctx = services.WithSeason(ctx, season)
	listing, err := e.primary.Season(ctx, show.IMDbID, season)
	if err != nil {
		e.warnSeasonFetch(ctx, err)
		listing = &omdb.Season{}
	}

	inserted := 0
	for _, entry := range listing.Episodes {
		number, ok := entry.Number()
		if !ok {
			continue
		}
		rating := entry.Rating()
		if rating == nil && !fast {
			rating = e.scrapeRating(ctx, entry.IMDbID)
		}
		ep := e.primaryEpisode(show.ID, season, number, entry, rating)
		created, err := e.store.InsertEpisode(ctx, ep)
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}
	}
	if _, err := e.RecomputeSignature(ctx, show.ID, season); err != nil {
		return inserted, err
	}
	return inserted, nil
}

func (e *Engine) primaryEpisode(showID int64, season, number int, entry omdb.SeasonEpisode, rating *float64) *store.Episode {
	now := e.timestamp()
	title := presentOrEmpty(entry.Title)
	if title == "" {
		title = "No Title"
	}
	return &store.Episode{
		ShowID:      showID,
		Season:      season,
		Number:      number,
		Title:       title,
		Rating:      rating,
		Votes:       entry.Votes(),
		IMDbID:      presentOrEmpty(entry.IMDbID),
		AirDate:     releasedDate(entry.Released),
		LastChecked: &now,
		Missing:     rating == nil,
	}
}

// scrapeRating asks the catalog for a single title's rating. Failures are
// logged and reported as no rating.
func (e *Engine) scrapeRating(ctx context.Context, ids ...string) *float64 {
	for _, id := range ids {
		if !textutil.IsEpisodeID(id) {
			continue
		}
		rating, err := e.catalog.Rating(ctx, id)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, e.logger), "episode rating scrape failed", "rating_scrape_failed",
				logging.String("episode_id", id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "IMDb may be rate limiting or unreachable"),
				logging.String(logging.FieldImpact, "episode stays flagged missing until the next refresh"),
			)
			return nil
		}
		return rating
	}
	return nil
}

func (e *Engine) warnSeasonFetch(ctx context.Context, err error) {
	logger := logging.WithContext(ctx, e.logger)
	if errors.Is(err, services.ErrNotFound) {
		logger.Debug("primary source has no listing for season", logging.Error(err))
		return
	}
	logging.WarnWithContext(logger, "primary season fetch failed", "season_fetch_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check OMDb availability and API key quota"),
		logging.String(logging.FieldImpact, "season left as stored until the next refresh"),
	)
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}

func presentOrEmpty(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "n/a") {
		return ""
	}
	return value
}

func releasedDate(value string) *time.Time {
	value = presentOrEmpty(value)
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

func notStored(operation, imdbID string) error {
	return services.Wrap(services.ErrNotFound, "reconcile", operation, "show "+imdbID+" not stored", nil)
}
