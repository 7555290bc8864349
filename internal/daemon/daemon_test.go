package daemon

import (
	"context"
	"testing"
	"time"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/enrich"
	"heatmap/internal/maintenance"
	"heatmap/internal/reconcile"
	"heatmap/internal/testsupport"
)

type testEnv struct {
	cfg      *config.Config
	upstream *testsupport.Upstream
	daemon   *Daemon
}

type envOption func(*config.Config)

func newTestEnv(t *testing.T, withMaintenance bool, opts ...envOption) *testEnv {
	t.Helper()
	upstream := testsupport.NewUpstream(t)
	cfg := testsupport.NewConfig(t, testsupport.WithUpstream(upstream))
	for _, opt := range opts {
		opt(cfg)
	}
	return &testEnv{cfg: cfg, upstream: upstream, daemon: buildDaemon(t, cfg, withMaintenance)}
}

func buildDaemon(t *testing.T, cfg *config.Config, withMaintenance bool) *Daemon {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	primary, catalog := testsupport.NewClients(t, cfg)
	engine := reconcile.New(st, primary, catalog)
	scheduler := enrich.NewScheduler(st, engine, enrich.WithWorkers(1))
	service := api.NewShowService(st, engine, primary, catalog,
		api.WithScheduler(scheduler),
		api.WithFastIngest(cfg.Ingest.Fast),
	)
	parts := Components{Store: st, Service: service, Enrichment: scheduler}
	if withMaintenance {
		parts.Maintenance = maintenance.New(st, engine, maintenance.WithInterval(time.Hour))
	}
	d, err := New(cfg, nil, parts)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	env := newTestEnv(t, true)
	d := env.daemon
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Bind == env.cfg.Paths.APIBind {
		t.Fatalf("expected bound address instead of %q", status.Bind)
	}
	if !status.Maintenance.Enabled || !status.Maintenance.Running {
		t.Fatalf("expected maintenance running, got %+v", status.Maintenance)
	}
	if !status.Database.Readable {
		t.Fatalf("expected readable database, got %+v", status.Database)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.Maintenance.Running {
		t.Fatal("expected maintenance to stop with the daemon")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	if err := env.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	other := buildDaemon(t, env.cfg, false)
	if err := other.Start(ctx); err == nil {
		t.Fatal("expected second instance to fail on the lock")
	}

	env.daemon.Stop()
	if err := other.Start(ctx); err != nil {
		t.Fatalf("expected start after lock release, got %v", err)
	}
}

func TestDaemonRequiresComponents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(cfg, nil, Components{}); err == nil {
		t.Fatal("expected error for missing components")
	}
}

func TestRunMaintenanceDisabled(t *testing.T) {
	env := newTestEnv(t, false)
	if _, err := env.daemon.RunMaintenance(context.Background()); err != errMaintenanceDisabled {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if env.daemon.Status(context.Background()).Maintenance.Enabled {
		t.Fatal("expected maintenance reported disabled")
	}
}
