// Package ttlcache provides a small in-memory expiring map with per-entry TTL
// overrides.
//
// Entries expire once now - storedAt >= ttl. Readers may ask for non-empty
// values only so that a transient empty upstream result never masquerades as
// a confirmed negative.
package ttlcache
