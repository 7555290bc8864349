// Package daemon coordinates the long-running heatmap process.
//
// It wires the show store, the enrichment scheduler, the maintenance loop and
// the HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances against the same data directory. The API server is a chi
// router guarded by a per-client rate limiter; handlers stay thin and defer to
// api.ShowService for behavior.
//
// Keep orchestration logic here: reconciliation and enrichment belong in their
// own packages while the daemon focuses on startup, shutdown, and status.
package daemon
