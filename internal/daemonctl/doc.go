// Package daemonctl drives a heatmapd process from the outside.
//
// It provides an HTTP client for the daemon API, pid-file based process
// control (launch, stop, force kill), and the status snapshot used by the
// CLI, which falls back to reading the database directly while the daemon is
// down.
package daemonctl
