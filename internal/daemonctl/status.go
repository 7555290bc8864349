package daemonctl

import (
	"context"
	"errors"
	"os"
	"time"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/preflight"
	"heatmap/internal/store"
)

// StatusSnapshot combines the daemon report with local checks.
type StatusSnapshot struct {
	Running  bool
	PID      int
	Daemon   *api.DaemonStatus
	Database api.DatabaseStatus
	Checks   []preflight.Result
}

// BuildStatusSnapshot collects daemon status and falls back to reading the
// database directly when the daemon is not answering.
func BuildStatusSnapshot(ctx context.Context, client *Client, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snapshot := &StatusSnapshot{}

	if client != nil {
		if status, err := client.Status(ctx); err == nil {
			snapshot.Running = true
			snapshot.PID = status.PID
			snapshot.Daemon = status
			snapshot.Database = status.Database
		}
	}

	if !snapshot.Running {
		if _, pid, err := ProcessInfo(cfg.PIDPath()); err == nil {
			snapshot.PID = pid
		}
		snapshot.Database = offlineDatabaseStatus(ctx, cfg)
	}

	snapshot.Checks = preflight.RunAll(ctx, cfg)
	return snapshot, nil
}

func offlineDatabaseStatus(ctx context.Context, cfg *config.Config) api.DatabaseStatus {
	path := cfg.DatabasePath()
	if _, err := os.Stat(path); err != nil {
		return api.DatabaseStatus{Path: path, Error: "database not created yet"}
	}
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st, err := store.Open(cfg)
	if err != nil {
		return api.DatabaseStatus{Path: path, Error: err.Error()}
	}
	defer st.Close()

	health, err := st.CheckHealth(queryCtx)
	status := api.FromHealth(health)
	if err != nil && status.Error == "" {
		status.Error = err.Error()
	}
	return status
}
