package api

import (
	"context"
	"log/slog"
	"time"

	"heatmap/internal/enrich"
	"heatmap/internal/imdb"
	"heatmap/internal/logging"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
	"heatmap/internal/services"
	"heatmap/internal/store"
	"heatmap/internal/textutil"
	"heatmap/internal/ttlcache"
)

const (
	defaultSearchTTL    = time.Minute
	defaultPopularLimit = 12
)

// ShowStore abstracts the persistence calls the service makes directly.
type ShowStore interface {
	ShowByIMDbID(ctx context.Context, imdbID string) (*store.Show, error)
	EpisodesForShow(ctx context.Context, showID int64) ([]*store.Episode, error)
	IncrementViews(ctx context.Context, id int64) error
	ListShows(ctx context.Context) ([]*store.Show, error)
	PopularShows(ctx context.Context, limit int) ([]*store.Show, error)
	UpdateShow(ctx context.Context, show *store.Show) error
	DeleteShow(ctx context.Context, id int64) (bool, error)
}

// Reconciler runs ingestion and the synchronous refresh paths.
type Reconciler interface {
	Ingest(ctx context.Context, imdbID string, opts reconcile.IngestOptions) (*store.Show, error)
	RefreshShow(ctx context.Context, imdbID string, fast bool) (reconcile.RefreshResult, error)
	RefreshMissing(ctx context.Context, imdbID string) (reconcile.MissingResult, error)
	RefreshMetadata(ctx context.Context, imdbID string) error
}

// Scheduler hands fast-ingested shows to background enrichment.
type Scheduler interface {
	Schedule(showID int64, imdbID string, seasons []int) bool
	InProgress(showID int64) bool
}

var _ Scheduler = (*enrich.Scheduler)(nil)

// ShowService implements the show operations exposed over HTTP.
type ShowService struct {
	store     ShowStore
	engine    Reconciler
	primary   omdb.API
	catalog   imdb.Scraper
	scheduler Scheduler
	logger    *slog.Logger

	fast         bool
	staleness    reconcile.Staleness
	popularLimit int
	now          func() time.Time

	missing  *enrich.Tracker
	searches *ttlcache.Cache[string, []SearchResult]
}

// ServiceOption configures a ShowService.
type ServiceOption func(*ShowService)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *ShowService) {
		s.logger = logging.NewComponentLogger(logger, "api")
	}
}

// WithScheduler enables background enrichment after fast ingestion.
func WithScheduler(scheduler Scheduler) ServiceOption {
	return func(s *ShowService) {
		s.scheduler = scheduler
	}
}

// WithFastIngest selects the primary-source-only ingestion path.
func WithFastIngest(fast bool) ServiceOption {
	return func(s *ShowService) {
		s.fast = fast
	}
}

// WithStaleness overrides the staleness windows reported in views.
func WithStaleness(policy reconcile.Staleness) ServiceOption {
	return func(s *ShowService) {
		s.staleness = policy
	}
}

// WithSearchTTL sets how long search results are reused.
func WithSearchTTL(ttl time.Duration) ServiceOption {
	return func(s *ShowService) {
		if ttl > 0 {
			s.searches = ttlcache.New[string, []SearchResult](ttl)
		}
	}
}

// WithPopularLimit sets the default size of the popular list.
func WithPopularLimit(limit int) ServiceOption {
	return func(s *ShowService) {
		if limit > 0 {
			s.popularLimit = limit
		}
	}
}

// WithClock overrides the time source used for staleness indicators.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ShowService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewShowService constructs a ShowService.
func NewShowService(st ShowStore, engine Reconciler, primary omdb.API, catalog imdb.Scraper, opts ...ServiceOption) *ShowService {
	s := &ShowService{
		store:        st,
		engine:       engine,
		primary:      primary,
		catalog:      catalog,
		logger:       logging.NewComponentLogger(nil, "api"),
		staleness:    reconcile.DefaultStaleness(),
		popularLimit: defaultPopularLimit,
		now:          time.Now,
		missing:      enrich.NewTracker(),
		searches:     ttlcache.New[string, []SearchResult](defaultSearchTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrIngestShow returns the stored view of a show, ingesting it first when
// it is unknown. With trackView the popularity counter is bumped. On the fast
// path a freshly ingested show is handed to background enrichment and the view
// reports partialData until that finishes.
func (s *ShowService) GetOrIngestShow(ctx context.Context, rawID string, trackView bool) (*ShowView, error) {
	imdbID, err := requireIMDbID("get show", rawID)
	if err != nil {
		return nil, err
	}
	ctx = services.WithShowID(ctx, imdbID)

	show, err := s.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return nil, err
	}
	if show != nil {
		if trackView {
			if err := s.store.IncrementViews(ctx, show.ID); err != nil {
				return nil, err
			}
			show.ViewCount++
		}
		return s.view(ctx, show)
	}

	show, err = s.engine.Ingest(ctx, imdbID, reconcile.IngestOptions{Fast: s.fast, TrackView: trackView})
	if err != nil {
		return nil, err
	}
	if s.fast {
		s.scheduleEnrichment(ctx, show)
	}
	return s.view(ctx, show)
}

// RefreshMissing retries every unrated episode of a stored show. The show is
// reported as missingRefreshInProgress while the call runs.
func (s *ShowService) RefreshMissing(ctx context.Context, rawID string) (reconcile.MissingResult, error) {
	imdbID, err := requireIMDbID("refresh missing", rawID)
	if err != nil {
		return reconcile.MissingResult{}, err
	}
	ctx = services.WithShowID(ctx, imdbID)
	show, err := s.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return reconcile.MissingResult{}, err
	}
	if show == nil {
		return reconcile.MissingResult{}, services.Wrap(services.ErrNotFound, "api", "refresh missing", "show not found in store", nil)
	}
	if s.missing.Acquire(show.ID) {
		defer s.missing.Release(show.ID)
	}
	return s.engine.RefreshMissing(ctx, imdbID)
}

// RefreshShow re-synchronizes every season of a show.
func (s *ShowService) RefreshShow(ctx context.Context, rawID string) (reconcile.RefreshResult, error) {
	imdbID, err := requireIMDbID("refresh show", rawID)
	if err != nil {
		return reconcile.RefreshResult{}, err
	}
	ctx = services.WithShowID(ctx, imdbID)
	result, err := s.engine.RefreshShow(ctx, imdbID, s.fast)
	if err != nil {
		return result, err
	}
	if result.Ingested && s.fast {
		if show, err := s.store.ShowByIMDbID(ctx, imdbID); err == nil && show != nil {
			s.scheduleEnrichment(ctx, show)
		}
	}
	return result, nil
}

// RefreshMetadata re-reads show-level fields from the primary source.
func (s *ShowService) RefreshMetadata(ctx context.Context, rawID string) (MetadataResult, error) {
	imdbID, err := requireIMDbID("refresh metadata", rawID)
	if err != nil {
		return MetadataResult{}, err
	}
	if err := s.engine.RefreshMetadata(services.WithShowID(ctx, imdbID), imdbID); err != nil {
		return MetadataResult{}, err
	}
	return MetadataResult{Status: "metadata refreshed"}, nil
}

// RemoveShow deletes a stored show with its episodes and signatures and drops
// its cached catalog seasons.
func (s *ShowService) RemoveShow(ctx context.Context, rawID string) (RemoveResult, error) {
	imdbID, err := requireIMDbID("remove show", rawID)
	if err != nil {
		return RemoveResult{}, err
	}
	ctx = services.WithShowID(ctx, imdbID)
	show, err := s.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return RemoveResult{}, err
	}
	if show == nil {
		return RemoveResult{}, services.Wrap(services.ErrNotFound, "api", "remove show", "show not found in store", nil)
	}
	removed, err := s.store.DeleteShow(ctx, show.ID)
	if err != nil {
		return RemoveResult{}, err
	}
	cleared := s.catalog.ClearSeasonCache(imdbID)
	logging.WithContext(ctx, s.logger).Info("show removed",
		logging.String(logging.FieldEventType, "show_removed"),
		logging.Int("cached_seasons_cleared", cleared),
	)
	return RemoveResult{Removed: removed}, nil
}

func (s *ShowService) view(ctx context.Context, show *store.Show) (*ShowView, error) {
	episodes, err := s.store.EpisodesForShow(ctx, show.ID)
	if err != nil {
		return nil, err
	}
	flags := ViewFlags{RefreshMissing: s.missing.Has(show.ID)}
	if s.scheduler != nil {
		flags.Enriching = s.scheduler.InProgress(show.ID)
	}
	view := FromShow(show, episodes, flags, s.staleness, s.now())
	return &view, nil
}

func (s *ShowService) scheduleEnrichment(ctx context.Context, show *store.Show) {
	if s.scheduler == nil {
		return
	}
	if !s.scheduler.Schedule(show.ID, show.IMDbID, nil) {
		logging.WithContext(ctx, s.logger).Debug("enrichment not scheduled")
	}
}

func requireIMDbID(operation, raw string) (string, error) {
	id, ok := textutil.SanitizeIMDbID(raw)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "api", operation, "IMDB ID required", nil)
	}
	return id, nil
}
