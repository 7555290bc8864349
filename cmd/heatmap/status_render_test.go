package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"heatmap/internal/api"
	"heatmap/internal/daemonctl"
	"heatmap/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDaemonLinesStopped(t *testing.T) {
	lines := daemonLines(&daemonctl.StatusSnapshot{PID: 77}, false)
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR]") || !strings.Contains(lines[0], "77") {
		t.Fatalf("expected stale pid to be named, got %q", lines[0])
	}
}

func TestMaintenanceLine(t *testing.T) {
	if line := maintenanceLine(api.MaintenanceStatus{}, false); !strings.Contains(line, "[WARN] Disabled") {
		t.Fatalf("expected disabled warning, got %q", line)
	}
	if line := maintenanceLine(api.MaintenanceStatus{Enabled: true}, false); !strings.Contains(line, "No sweep") {
		t.Fatalf("expected pending sweep note, got %q", line)
	}
	status := api.MaintenanceStatus{
		Enabled:  true,
		LastRun:  time.Now().Add(-2 * time.Hour).Format(time.RFC3339),
		Shows:    4,
		Failures: 1,
	}
	line := maintenanceLine(status, false)
	if !strings.Contains(line, "[WARN]") || !strings.Contains(line, "1 failures") {
		t.Fatalf("expected failure warning, got %q", line)
	}
	if !strings.Contains(line, "2 hours ago") {
		t.Fatalf("expected relative last run, got %q", line)
	}
}

func TestCheckLines(t *testing.T) {
	lines := checkLines([]preflight.Result{
		{Name: "OMDb", Passed: true, Detail: "ok"},
		{Name: "IMDb", Passed: false, Detail: "blocked (403)"},
	}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] ok") || !strings.Contains(lines[1], "[ERROR] blocked (403)") {
		t.Fatalf("unexpected check lines %q", lines)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
