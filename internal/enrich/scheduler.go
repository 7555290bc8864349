package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"heatmap/internal/logging"
	"heatmap/internal/services"
	"heatmap/internal/store"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

// Enricher overlays catalog data onto one stored season.
type Enricher interface {
	EnrichSeason(ctx context.Context, show *store.Show, season int) (bool, error)
}

// ShowLookup re-reads a show by internal id.
type ShowLookup interface {
	ShowByID(ctx context.Context, id int64) (*store.Show, error)
}

// Job is one queued enrichment of a show.
type Job struct {
	ID       string
	ShowID   int64
	IMDbID   string
	Seasons  []int
	QueuedAt time.Time
}

// Scheduler dispatches enrichment jobs onto a bounded worker pool.
type Scheduler struct {
	shows    ShowLookup
	enricher Enricher
	logger   *slog.Logger
	workers  int

	queue      chan Job
	inProgress *Tracker

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logging.NewComponentLogger(logger, "enrich")
	}
}

// WithWorkers caps how many jobs run at once.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithQueueSize bounds how many jobs may wait for a worker.
func WithQueueSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.queue = make(chan Job, n)
		}
	}
}

// NewScheduler constructs a scheduler. Jobs are accepted immediately but only
// run after Start.
func NewScheduler(shows ShowLookup, enricher Enricher, opts ...Option) *Scheduler {
	s := &Scheduler{
		shows:      shows,
		enricher:   enricher,
		logger:     logging.NewComponentLogger(nil, "enrich"),
		workers:    defaultWorkers,
		queue:      make(chan Job, defaultQueueSize),
		inProgress: NewTracker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues an enrichment job for a show. It returns false when a job
// for the show is already queued or running, or when the queue is full. An
// empty seasons list means every season the show has when the job runs.
func (s *Scheduler) Schedule(showID int64, imdbID string, seasons []int) bool {
	if !s.inProgress.Acquire(showID) {
		return false
	}
	job := Job{
		ID:       uuid.NewString(),
		ShowID:   showID,
		IMDbID:   imdbID,
		Seasons:  append([]int(nil), seasons...),
		QueuedAt: time.Now(),
	}
	select {
	case s.queue <- job:
		s.logger.Debug("enrichment queued",
			logging.ShowID(imdbID),
			logging.String("job_id", job.ID),
		)
		return true
	default:
		s.inProgress.Release(showID)
		logging.WarnWithContext(s.logger, "enrichment queue full", "enrichment_queue_full",
			logging.ShowID(imdbID),
			logging.Int("capacity", cap(s.queue)),
			logging.String(logging.FieldErrorHint, "raise ingest.enrichment_queue or ingest.enrichment_workers"),
			logging.String(logging.FieldImpact, "show keeps primary-source data until refreshed"),
		)
		return false
	}
}

// InProgress reports whether a job for the show is queued or running.
func (s *Scheduler) InProgress(showID int64) bool {
	return s.inProgress.Has(showID)
}

// Pending returns the number of shows with a queued or running job.
func (s *Scheduler) Pending() int {
	return s.inProgress.Len()
}

// Start begins dispatching queued jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("enrichment scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.dispatch(runCtx)
	s.logger.Info("enrichment scheduler started",
		logging.String(logging.FieldEventType, "enrichment_started"),
		logging.Int("workers", s.workers),
		logging.Int("queue", cap(s.queue)),
	)
	return nil
}

// Stop cancels running jobs, waits for the workers and releases every show
// still waiting in the queue.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	for {
		select {
		case job := <-s.queue:
			s.inProgress.Release(job.ShowID)
		default:
			return
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	defer s.wg.Done()
	workers := pool.New().WithMaxGoroutines(s.workers)
	defer workers.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			workers.Go(func() {
				s.Enrich(ctx, job)
			})
		}
	}
}

// Enrich runs one job to completion. The show id is released when it returns.
func (s *Scheduler) Enrich(ctx context.Context, job Job) {
	defer s.inProgress.Release(job.ShowID)

	ctx = services.WithRequestID(services.WithShowID(ctx, job.IMDbID), job.ID)
	logger := logging.WithContext(ctx, s.logger)
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "enrichment job panicked", "enrichment_panic",
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	start := time.Now()
	show, err := s.shows.ShowByID(ctx, job.ShowID)
	if err != nil {
		s.warnFailure(logger, "load show", err)
		return
	}
	if show == nil {
		logger.Info("show removed before enrichment", logging.String(logging.FieldEventType, "enrichment_show_gone"))
		return
	}

	seasons := job.Seasons
	if len(seasons) == 0 {
		for season := 1; season <= show.TotalSeasons; season++ {
			seasons = append(seasons, season)
		}
	}

	changed := 0
	for _, season := range seasons {
		if ctx.Err() != nil {
			logger.Debug("enrichment cancelled", logging.Season(season))
			return
		}
		// The show may have been deleted while earlier seasons were scraped.
		current, err := s.shows.ShowByID(ctx, job.ShowID)
		if err != nil {
			s.warnFailure(logger, "reload show", err)
			return
		}
		if current == nil {
			logger.Info("show removed during enrichment", logging.String(logging.FieldEventType, "enrichment_show_gone"))
			return
		}
		updated, err := s.enricher.EnrichSeason(ctx, current, season)
		if err != nil {
			s.warnFailure(logging.WithContext(services.WithSeason(ctx, season), s.logger), "enrich season", err)
			return
		}
		if updated {
			changed++
		}
	}

	logger.Info("enrichment complete",
		logging.String(logging.FieldEventType, "enrichment_complete"),
		logging.Int("seasons", len(seasons)),
		logging.Int("changed_seasons", changed),
		logging.Duration("elapsed", time.Since(start)),
		logging.Duration("queued", start.Sub(job.QueuedAt)),
	)
}

func (s *Scheduler) warnFailure(logger *slog.Logger, step string, err error) {
	logging.WarnWithContext(logger, "enrichment stopped", "enrichment_failed",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "IMDb may be unreachable; the next refresh or maintenance cycle retries"),
		logging.String(logging.FieldImpact, "show keeps primary-source data for the remaining seasons"),
	)
}
