// Package services defines shared utilities consumed by the reconciliation
// engine, the upstream clients, and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp show identifiers, seasons, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (upstream unavailable, parse failure, not found, validation) so callers
//     can translate them into consistent HTTP statuses.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the service.
package services
