package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/daemon"
	"heatmap/internal/enrich"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
	"heatmap/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	upstream   *testsupport.Upstream
	daemon     *daemon.Daemon
	address    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OMDB_API_KEY", "")

	upstream := testsupport.NewUpstream(t)
	cfg := testsupport.NewConfig(t, testsupport.WithUpstream(upstream))

	configPath := filepath.Join(homeDir, ".config", "heatmap", "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	primary, catalog := testsupport.NewClients(t, cfg)
	engine := reconcile.New(st, primary, catalog)
	scheduler := enrich.NewScheduler(st, engine, enrich.WithWorkers(1))
	service := api.NewShowService(st, engine, primary, catalog,
		api.WithScheduler(scheduler),
		api.WithFastIngest(cfg.Ingest.Fast),
	)
	d, err := daemon.New(cfg, nil, daemon.Components{Store: st, Service: service, Enrichment: scheduler})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(d.Stop)

	return &cliTestEnv{
		cfg:        cfg,
		upstream:   upstream,
		daemon:     d,
		address:    d.Address(),
		configPath: configPath,
	}
}

func (env *cliTestEnv) seedBreakingBad() {
	env.upstream.SetShow(omdb.Show{
		IMDbID:       "tt0903747",
		Title:        "Breaking Bad",
		Year:         "2008–2013",
		Genre:        "Crime, Drama",
		Plot:         "A chemistry teacher turns to crime.",
		IMDbRating:   "9.5",
		IMDbVotes:    "2,100,000",
		TotalSeasons: "1",
	})
	env.upstream.SetSeason("tt0903747", 1,
		omdb.SeasonEpisode{Title: "Pilot", Episode: "1", Released: "2008-01-20", IMDbRating: "9.0", IMDbVotes: "40,000", IMDbID: "tt0959621"},
		omdb.SeasonEpisode{Title: "Cat's in the Bag...", Episode: "2", Released: "2008-01-27", IMDbRating: "8.6", IMDbID: "tt1054724"},
	)
}

func runCLI(t *testing.T, args []string, address, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--daemon", address}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
