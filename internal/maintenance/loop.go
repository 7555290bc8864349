package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"heatmap/internal/logging"
	"heatmap/internal/reconcile"
	"heatmap/internal/services"
	"heatmap/internal/store"
)

const defaultInterval = 6 * time.Hour

// Store lists the shows and episodes a sweep inspects.
type Store interface {
	ListShows(ctx context.Context) ([]*store.Show, error)
	EpisodesForShow(ctx context.Context, showID int64) ([]*store.Episode, error)
}

// Reconciler performs the per-show refresh steps.
type Reconciler interface {
	UpdateMetadata(ctx context.Context, show *store.Show) error
	ResolveMissing(ctx context.Context, show *store.Show, targets []*store.Episode) (int, error)
}

// Summary reports one sweep.
type Summary struct {
	Shows             int           `json:"shows"`
	MetadataRefreshed int           `json:"metadataRefreshed"`
	EpisodesStale     int           `json:"episodesStale"`
	EpisodesChecked   int           `json:"episodesChecked"`
	EpisodesResolved  int           `json:"episodesResolved"`
	Failures          int           `json:"failures"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Loop runs sweeps on a fixed interval.
type Loop struct {
	store     Store
	engine    Reconciler
	staleness reconcile.Staleness
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	last    *Summary
	lastAt  time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logging.NewComponentLogger(logger, "maintenance")
	}
}

// WithInterval sets the delay between sweeps.
func WithInterval(interval time.Duration) Option {
	return func(l *Loop) {
		if interval > 0 {
			l.interval = interval
		}
	}
}

// WithStaleness overrides the staleness windows.
func WithStaleness(policy reconcile.Staleness) Option {
	return func(l *Loop) {
		l.staleness = policy
	}
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// New constructs a maintenance loop.
func New(st Store, engine Reconciler, opts ...Option) *Loop {
	l := &Loop{
		store:     st,
		engine:    engine,
		staleness: reconcile.DefaultStaleness(),
		interval:  defaultInterval,
		logger:    logging.NewComponentLogger(nil, "maintenance"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start runs a sweep immediately and then once per interval until Stop.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("maintenance loop already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true
	l.wg.Add(1)
	go l.run(runCtx)
	return nil
}

// Stop cancels the loop and waits for the current sweep to end.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.running = false
	l.cancel = nil
	l.mu.Unlock()

	cancel()
	l.wg.Wait()
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// LastRun returns the most recent sweep summary and when it finished.
func (l *Loop) LastRun() (Summary, time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Summary{}, time.Time{}, false
	}
	return *l.last, l.lastAt, true
}

func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	l.logger.Info("maintenance loop started",
		logging.String(logging.FieldEventType, "maintenance_started"),
		logging.Duration("interval", l.interval),
	)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		l.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep over every stored show.
func (l *Loop) RunOnce(ctx context.Context) Summary {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, l.logger)
	start := time.Now()
	summary := Summary{}

	shows, err := l.store.ListShows(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "maintenance sweep could not list shows", "maintenance_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database file and permissions"),
		)
		summary.Failures++
		return l.finish(logger, summary, start)
	}

	for _, show := range shows {
		if ctx.Err() != nil {
			break
		}
		summary.Shows++
		l.sweepShow(ctx, show, &summary)
	}
	return l.finish(logger, summary, start)
}

func (l *Loop) sweepShow(ctx context.Context, show *store.Show, summary *Summary) {
	ctx = services.WithShowID(ctx, show.IMDbID)
	logger := logging.WithContext(ctx, l.logger)
	now := l.now()

	if l.staleness.ShowStale(show, now) {
		if err := l.engine.UpdateMetadata(ctx, show); err != nil {
			summary.Failures++
			logging.WarnWithContext(logger, "metadata refresh failed", "maintenance_metadata_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check OMDb availability and API key quota"),
				logging.String(logging.FieldImpact, "show metadata retried next cycle"),
			)
		} else {
			summary.MetadataRefreshed++
		}
	}

	episodes, err := l.store.EpisodesForShow(ctx, show.ID)
	if err != nil {
		summary.Failures++
		logging.WarnWithContext(logger, "episode listing failed", "maintenance_episodes_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "episodes of this show skipped this cycle"),
		)
		return
	}
	stale := l.staleness.StaleEpisodes(episodes, now)
	summary.EpisodesStale += len(stale)

	var unrated []*store.Episode
	for _, ep := range stale {
		if ep.Rating == nil {
			unrated = append(unrated, ep)
		}
	}
	if len(unrated) == 0 {
		return
	}
	summary.EpisodesChecked += len(unrated)
	resolved, err := l.engine.ResolveMissing(ctx, show, unrated)
	summary.EpisodesResolved += resolved
	if err != nil {
		summary.Failures++
		logging.WarnWithContext(logger, "missing rating resolution failed", "maintenance_missing_failed",
			logging.Error(err),
			logging.Int("resolved", resolved),
			logging.String(logging.FieldImpact, "remaining episodes retried next cycle"),
		)
	}
}

func (l *Loop) finish(logger *slog.Logger, summary Summary, start time.Time) Summary {
	summary.Elapsed = time.Since(start)
	l.mu.Lock()
	l.last = &summary
	l.lastAt = time.Now()
	l.mu.Unlock()
	logger.Info("maintenance sweep complete",
		logging.String(logging.FieldEventType, "maintenance_sweep"),
		logging.Int("shows", summary.Shows),
		logging.Int("metadata_refreshed", summary.MetadataRefreshed),
		logging.Int("episodes_stale", summary.EpisodesStale),
		logging.Int("episodes_resolved", summary.EpisodesResolved),
		logging.Int("failures", summary.Failures),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}
