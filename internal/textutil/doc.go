// Package textutil provides small text helpers shared by the upstream clients
// and the HTTP layer.
//
// The primary use cases are:
//   - Validating external show and episode identifiers before they reach an
//     upstream URL or the store
//   - Parsing loosely formatted numbers ("8.3", "1,234", "N/A")
//   - Normalising comma separated genre lists and case-folding search keys
package textutil
