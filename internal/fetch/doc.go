// Package fetch wraps outbound HTTP calls to the two upstream host classes
// (the structured OMDb API and the IMDb HTML catalog) behind per-class
// throttles.
//
// Each class owns exactly one Throttle. Concurrent callers queue on the
// throttle's single slot, wait until the configured minimum interval has
// elapsed since the previous request on that class completed, and only then
// issue their request. Non-200 responses are returned to the caller unchanged;
// only transport failures surface as errors.
package fetch
