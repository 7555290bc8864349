// Package reconcile merges primary-source (OMDb) and secondary-source (IMDb)
// episode data into the stored record for each show.
//
// The Engine owns every mutation path: initial ingestion (full or fast),
// whole-show refresh with season-signature shortcuts, missing-rating refresh,
// metadata refresh, placeholder injection, and catalog enrichment of a single
// season. Placeholders are episodes only the catalog knows about; they are
// promoted to confirmed the first time OMDb reports the same (season, episode)
// key and never revert. Seasons are always processed in ascending order and a
// season's signature is recomputed after its episode writes complete.
//
// The Engine does no locking of its own. Two paths reconciling the same show
// at once may interleave; the store's unique episode key keeps that race from
// producing duplicate rows.
package reconcile
