// Package logging assembles structured slog loggers and formatting helpers used
// across heatmap services.
//
// It owns the console and JSON handlers, routes file output through a rotating
// lumberjack writer, and exposes context-aware helpers so request handlers and
// background workers automatically tag log lines with show IDs, seasons, and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
