package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"heatmap/internal/api"
	"heatmap/internal/daemonctl"
	"heatmap/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func daemonLines(snapshot *daemonctl.StatusSnapshot, colorize bool) []string {
	if !snapshot.Running {
		detail := "Not running"
		if snapshot.PID > 0 {
			detail = fmt.Sprintf("Not answering (pid file names %d)", snapshot.PID)
		}
		return []string{renderStatusLine("Daemon", statusError, detail, colorize)}
	}
	status := snapshot.Daemon
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
		renderStatusLine("Listening", statusInfo, status.Bind, colorize),
		renderStatusLine("Ingest mode", statusInfo, ingestMode(status.FastIngest), colorize),
		renderStatusLine("Enrichment jobs", statusInfo, fmt.Sprintf("%d pending", status.EnrichmentJobs), colorize),
	}
	if status.LogPath != "" {
		lines = append(lines, renderStatusLine("Log file", statusInfo, status.LogPath, colorize))
	}
	lines = append(lines, maintenanceLine(status.Maintenance, colorize))
	return lines
}

func ingestMode(fast bool) string {
	if fast {
		return "fast (primary source, background enrichment)"
	}
	return "full (primary source with catalog fallback)"
}

func maintenanceLine(m api.MaintenanceStatus, colorize bool) string {
	if !m.Enabled {
		return renderStatusLine("Maintenance", statusWarn, "Disabled", colorize)
	}
	if m.LastRun == "" {
		return renderStatusLine("Maintenance", statusInfo, "No sweep completed yet", colorize)
	}
	detail := fmt.Sprintf("Last sweep %s: %d shows, %d refreshed, %d resolved",
		formatAge(m.LastRun), m.Shows, m.MetadataRefresh, m.EpisodesResolved)
	kind := statusOK
	if m.Failures > 0 {
		kind = statusWarn
		detail += fmt.Sprintf(", %d failures", m.Failures)
	}
	return renderStatusLine("Maintenance", kind, detail, colorize)
}

func databaseLines(db api.DatabaseStatus, colorize bool) []string {
	if db.Error != "" {
		return []string{renderStatusLine("Database", statusWarn, db.Error, colorize)}
	}
	kind := statusOK
	if !db.Readable {
		kind = statusError
	}
	return []string{
		renderStatusLine("Database", kind, db.Path, colorize),
		renderStatusLine("Shows", statusInfo, formatCount(db.Shows), colorize),
		renderStatusLine("Episodes", statusInfo, fmt.Sprintf("%s (%s unrated, %s provisional)",
			formatCount(db.Episodes), formatCount(db.Unrated), formatCount(db.Placeholders)), colorize),
	}
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
