// Package api holds the show operations behind the HTTP routes and the CLI,
// together with the wire-format views they return.
//
// # Key Types
//
// ShowService: looks up or ingests shows, runs synchronous refreshes, proxies
// search and discovery, and exposes cache debug operations.
//
// ShowView: a stored show with its episodes and the progress and staleness
// indicators consumers use to decide whether to poll again.
//
// DaemonStatus: runtime information reported by /api/status.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Timestamps
// use RFC3339 with milliseconds; air dates use YYYY-MM-DD. Absent ratings and
// vote counts are JSON null rather than zero so a missing rating is never
// mistaken for a real one.
//
// Errors are classified with the internal/services markers so the HTTP layer
// can map them to status codes without inspecting messages.
package api
