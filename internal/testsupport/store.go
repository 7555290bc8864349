package testsupport

import (
	"context"
	"testing"

	"heatmap/internal/config"
	"heatmap/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewShow inserts a show row for tests.
func NewShow(t testing.TB, st *store.Store, imdbID, title string, seasons int) *store.Show {
	t.Helper()

	show := &store.Show{IMDbID: imdbID, Title: title, TotalSeasons: seasons}
	if err := st.InsertShow(context.Background(), show); err != nil {
		t.Fatalf("store.InsertShow: %v", err)
	}
	return show
}

// NewEpisode inserts an episode row for tests and fails when the key exists.
func NewEpisode(t testing.TB, st *store.Store, ep *store.Episode) *store.Episode {
	t.Helper()

	inserted, err := st.InsertEpisode(context.Background(), ep)
	if err != nil {
		t.Fatalf("store.InsertEpisode: %v", err)
	}
	if !inserted {
		t.Fatalf("episode S%dE%d already exists", ep.Season, ep.Number)
	}
	return ep
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
