package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"heatmap/internal/api"
	"heatmap/internal/omdb"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.DatabasePath())

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.address, env.configPath); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowRedactsKey(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[omdb]")
	requireContains(t, out, "<redacted>")
	requireContains(t, out, "api_bind")
}

func TestShowCommandRendersEpisodes(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedBreakingBad()

	out, _, err := runCLI(t, []string{"show", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Breaking Bad (2008–2013)  tt0903747")
	requireContains(t, out, "Crime, Drama")
	requireContains(t, out, "Pilot")
	requireContains(t, out, "9.0")
	requireContains(t, out, "40,000")
}

func TestShowCommandByTitleAndJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedBreakingBad()

	out, _, err := runCLI(t, []string{"show", "--json", "--no-track", "Breaking", "Bad"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("show by title: %v", err)
	}
	var view api.ShowView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show json: %v\n%s", err, out)
	}
	if view.IMDbID != "tt0903747" || len(view.Episodes) != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.ViewCount != 0 {
		t.Fatalf("expected untracked lookup to leave viewCount at 0, got %d", view.ViewCount)
	}
}

func TestShowCommandGrid(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedBreakingBad()

	out, _, err := runCLI(t, []string{"show", "--grid", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("show grid: %v", err)
	}
	requireContains(t, out, "S1")
	requireContains(t, out, "8.6")
}

func TestShowCommandUnknownTitle(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"show", "No Such Show"}, env.address, env.configPath)
	if err == nil {
		t.Fatal("expected unknown title to fail")
	}
	requireContains(t, err.Error(), "No Such Show")
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.upstream.SetSearch("breaking", omdb.SearchResult{Title: "Breaking Bad", Year: "2008–2013", IMDbID: "tt0903747", Type: "series"})

	out, _, err := runCLI(t, []string{"search", "breaking"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "tt0903747")
	requireContains(t, out, "Breaking Bad")
}

func TestRefreshAndRemoveCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedBreakingBad()

	out, _, err := runCLI(t, []string{"refresh", "show", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("refresh show: %v", err)
	}
	requireContains(t, out, "ingested")

	out, _, err = runCLI(t, []string{"refresh", "metadata", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("refresh metadata: %v", err)
	}
	requireContains(t, out, "metadata refreshed")

	out, _, err = runCLI(t, []string{"refresh", "missing", "--json", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("refresh missing: %v", err)
	}
	requireContains(t, out, `"updated"`)

	out, _, err = runCLI(t, []string{"remove", "tt0903747"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed tt0903747")

	if _, _, err := runCLI(t, []string{"remove", "tt0903747"}, env.address, env.configPath); err == nil {
		t.Fatal("expected second remove to report a missing show")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "== Database ==")
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "Maintenance:")
}

func TestMaintenanceRunDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"maintenance", "run"}, env.address, env.configPath)
	if err == nil {
		t.Fatal("expected maintenance run to fail when the loop is disabled")
	}
	requireContains(t, err.Error(), "409")
}

func TestCommandsReportDaemonNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	env.daemon.Stop()

	_, _, err := runCLI(t, []string{"trending"}, env.address, env.configPath)
	if err == nil {
		t.Fatal("expected trending to fail without a daemon")
	}
	if !strings.Contains(err.Error(), "heatmap start") {
		t.Fatalf("expected start hint, got %v", err)
	}
}

func TestLogsCommandFiltersByShow(t *testing.T) {
	env := setupCLITestEnv(t)
	content := "2026-01-02T10:00:00Z INFO api: show ingested show_id=tt0903747\n" +
		"2026-01-02T10:00:01Z INFO api: show ingested show_id=tt0944947\n"
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if err := os.WriteFile(env.cfg.LogFilePath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--show", "tt0944947"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "tt0944947")
	if strings.Contains(out, "tt0903747") {
		t.Fatalf("expected other show to be filtered out:\n%s", out)
	}
}
