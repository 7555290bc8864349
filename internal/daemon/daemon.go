package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/logging"
	"heatmap/internal/maintenance"
	"heatmap/internal/preflight"
	"heatmap/internal/store"
)

// HealthChecker reports store diagnostics.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (store.Health, error)
}

// EnrichmentQueue is the background enrichment worker set.
type EnrichmentQueue interface {
	Start(ctx context.Context) error
	Stop()
	Pending() int
}

// MaintenanceLoop is the periodic staleness sweep.
type MaintenanceLoop interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	LastRun() (maintenance.Summary, time.Time, bool)
	RunOnce(ctx context.Context) maintenance.Summary
}

// Components are the services a Daemon runs. Maintenance may be nil when the
// sweep is disabled.
type Components struct {
	Store       HealthChecker
	Service     *api.ShowService
	Enrichment  EnrichmentQueue
	Maintenance MaintenanceLoop
}

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	parts   Components
	logPath string

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, parts Components) (*Daemon, error) {
	if cfg == nil || parts.Store == nil || parts.Service == nil || parts.Enrichment == nil {
		return nil, errors.New("daemon requires config, store, show service, and enrichment queue")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		parts:    parts,
		logPath:  cfg.LogFilePath(),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, then starts enrichment, maintenance, and the
// API server.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if check := preflight.CheckDirectoryAccess("Data directory", d.cfg.Paths.DataDir); !check.Passed {
		return fmt.Errorf("data directory unusable: %s", check.Detail)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another heatmap daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.parts.Enrichment.Start(runCtx); err != nil {
		d.abortStart(cancel)
		return fmt.Errorf("start enrichment: %w", err)
	}
	if d.parts.Maintenance != nil {
		if err := d.parts.Maintenance.Start(runCtx); err != nil {
			d.parts.Enrichment.Stop()
			d.abortStart(cancel)
			return fmt.Errorf("start maintenance: %w", err)
		}
	}
	if err := d.server.start(runCtx); err != nil {
		if d.parts.Maintenance != nil {
			d.parts.Maintenance.Stop()
		}
		d.parts.Enrichment.Stop()
		d.abortStart(cancel)
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("heatmap daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("bind", d.server.address()),
		logging.Bool("fast_ingest", d.cfg.Ingest.Fast),
		logging.Bool("maintenance", d.parts.Maintenance != nil),
	)
	return nil
}

func (d *Daemon) abortStart(cancel context.CancelFunc) {
	cancel()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	d.server.stop()
	if d.parts.Maintenance != nil {
		d.parts.Maintenance.Stop()
	}
	d.parts.Enrichment.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("heatmap daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and closes the store when it supports it.
func (d *Daemon) Close() error {
	d.Stop()
	if closer, ok := d.parts.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Address returns the bound API address, or the configured one before Start.
func (d *Daemon) Address() string {
	return d.server.address()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// RunMaintenance performs one staleness sweep immediately.
func (d *Daemon) RunMaintenance(ctx context.Context) (maintenance.Summary, error) {
	if d.parts.Maintenance == nil {
		return maintenance.Summary{}, errMaintenanceDisabled
	}
	return d.parts.Maintenance.RunOnce(ctx), nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Bind:           d.server.address(),
		LockFilePath:   d.lockPath,
		LogPath:        d.logPath,
		FastIngest:     d.cfg.Ingest.Fast,
		EnrichmentJobs: d.parts.Enrichment.Pending(),
	}

	health, err := d.parts.Store.CheckHealth(ctx)
	status.Database = api.FromHealth(health)
	if err != nil && status.Database.Error == "" {
		status.Database.Error = err.Error()
	}

	if loop := d.parts.Maintenance; loop != nil {
		status.Maintenance.Enabled = true
		status.Maintenance.Running = loop.Running()
		if summary, at, ok := loop.LastRun(); ok {
			status.Maintenance.LastRun = at.UTC().Format(time.RFC3339)
			status.Maintenance.Shows = summary.Shows
			status.Maintenance.MetadataRefresh = summary.MetadataRefreshed
			status.Maintenance.EpisodesResolved = summary.EpisodesResolved
			status.Maintenance.Failures = summary.Failures
		}
	}
	return status
}
