// Package store persists shows, episodes, and season signatures in SQLite.
//
// The Store owns the database connection, schema initialization, and the
// row-level helpers the reconciliation engine, enrichment workers, and API
// layer use. Episodes are unique per (show, season, episode); InsertEpisode
// reports whether a row was actually created so concurrent writers racing on
// the same key never produce a duplicate.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt the new schema, after which shows are re-ingested on demand.
package store
