package maintenance_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"heatmap/internal/maintenance"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
	"heatmap/internal/store"
	"heatmap/internal/testsupport"
)

type sweepEnv struct {
	store    *store.Store
	upstream *testsupport.Upstream
	engine   *reconcile.Engine
	now      time.Time
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()
	upstream := testsupport.NewUpstream(t)
	cfg := testsupport.NewConfig(t, testsupport.WithUpstream(upstream))
	st := testsupport.MustOpenStore(t, cfg)
	primary, catalog := testsupport.NewClients(t, cfg)
	now := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)
	engine := reconcile.New(st, primary, catalog, reconcile.WithClock(func() time.Time { return now }))
	return &sweepEnv{store: st, upstream: upstream, engine: engine, now: now}
}

func (e *sweepEnv) loop(opts ...maintenance.Option) *maintenance.Loop {
	opts = append([]maintenance.Option{maintenance.WithClock(func() time.Time { return e.now })}, opts...)
	return maintenance.New(e.store, e.engine, opts...)
}

func TestRunOnceRefreshesStaleShowsAndResolvesMissing(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	// Listed first so the sweep has to continue past its failure.
	gone := testsupport.NewShow(t, env.store, "tt0000200", "Cancelled", 1)
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: gone.ID, Season: 1, Number: 1, Title: "Only", Missing: true})

	show := testsupport.NewShow(t, env.store, "tt0000100", "Old Title", 1)
	recent := env.now.Add(-time.Hour)
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: show.ID, Season: 1, Number: 1, Title: "Pilot", Rating: testsupport.Float(8.0), LastChecked: &recent})
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: show.ID, Season: 1, Number: 2, Title: "Second", IMDbID: "tt0000102", Missing: true})
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: show.ID, Season: 1, Number: 3, Title: "Third", IMDbID: "tt0000103", Missing: true})

	env.upstream.SetShow(omdb.Show{IMDbID: "tt0000100", Title: "New Title", TotalSeasons: "2", IMDbRating: "8.4", IMDbVotes: "1,024"})
	env.upstream.SetSeason("tt0000100", 1,
		omdb.SeasonEpisode{Title: "Pilot", Episode: "1", IMDbRating: "8.0", IMDbID: "tt0000101"},
		omdb.SeasonEpisode{Title: "Second", Episode: "2", IMDbRating: "N/A", IMDbID: "tt0000102"},
		omdb.SeasonEpisode{Title: "Third", Episode: "3", IMDbRating: "N/A", IMDbID: "tt0000103"},
	)
	env.upstream.SetRatingPage("tt0000102", "7.5")

	summary := env.loop().RunOnce(ctx)

	if summary.Shows != 2 {
		t.Fatalf("expected both shows swept, got %d", summary.Shows)
	}
	if summary.MetadataRefreshed != 1 || summary.Failures != 1 {
		t.Fatalf("unexpected metadata/failure counts: %+v", summary)
	}
	if summary.EpisodesStale != 3 || summary.EpisodesChecked != 3 || summary.EpisodesResolved != 1 {
		t.Fatalf("unexpected episode counts: %+v", summary)
	}

	stored, err := env.store.ShowByIMDbID(ctx, "tt0000100")
	if err != nil {
		t.Fatalf("ShowByIMDbID failed: %v", err)
	}
	if stored.Title != "New Title" || stored.TotalSeasons != 2 || stored.Votes == nil || *stored.Votes != 1024 {
		t.Fatalf("metadata not applied: %+v", stored)
	}
	if stored.LastFullRefresh != nil {
		t.Fatal("metadata sweep must not stamp a full refresh")
	}

	eps, err := env.store.EpisodesBySeason(ctx, show.ID, 1)
	if err != nil {
		t.Fatalf("EpisodesBySeason failed: %v", err)
	}
	if eps[1].Rating == nil || *eps[1].Rating != 7.5 || eps[1].Missing {
		t.Fatalf("expected scraped rating for episode 2, got %+v", eps[1])
	}
	if eps[2].Rating != nil || !eps[2].Missing || eps[2].LastChecked == nil {
		t.Fatalf("expected episode 3 still missing with a check stamp, got %+v", eps[2])
	}
	sig, ok, err := env.store.Signature(ctx, show.ID, 1)
	if err != nil || !ok || sig != "3:7.750" {
		t.Fatalf("unexpected signature %q ok=%v err=%v", sig, ok, err)
	}

	if _, _, ok := env.loop().LastRun(); ok {
		t.Fatal("a fresh loop has no last run")
	}
}

func TestRunOnceSkipsFreshData(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	show := testsupport.NewShow(t, env.store, "tt0000100", "Fresh", 1)
	refreshed := env.now.Add(-24 * time.Hour)
	show.LastFullRefresh = &refreshed
	if err := env.store.UpdateShow(ctx, show); err != nil {
		t.Fatalf("UpdateShow failed: %v", err)
	}
	checked := env.now.Add(-48 * time.Hour)
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: show.ID, Season: 1, Number: 1, Rating: testsupport.Float(9.0), LastChecked: &checked})

	loop := env.loop()
	summary := loop.RunOnce(ctx)
	if summary.MetadataRefreshed != 0 || summary.EpisodesStale != 0 || summary.Failures != 0 {
		t.Fatalf("expected no work, got %+v", summary)
	}
	if env.upstream.Hits("omdb:i=tt0000100") != 0 {
		t.Fatal("fresh show must not hit the primary source")
	}
	last, _, ok := loop.LastRun()
	if !ok || last.Shows != 1 {
		t.Fatalf("expected last run recorded, got %+v ok=%v", last, ok)
	}
}

func TestStaleEpisodesWithRatingsAreNotRescraped(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()

	show := testsupport.NewShow(t, env.store, "tt0000100", "Show", 1)
	refreshed := env.now
	show.LastFullRefresh = &refreshed
	if err := env.store.UpdateShow(ctx, show); err != nil {
		t.Fatalf("UpdateShow failed: %v", err)
	}
	old := env.now.Add(-40 * 24 * time.Hour)
	testsupport.NewEpisode(t, env.store, &store.Episode{ShowID: show.ID, Season: 1, Number: 1, Rating: testsupport.Float(7.0), LastChecked: &old})

	summary := env.loop().RunOnce(ctx)
	if summary.EpisodesStale != 1 || summary.EpisodesChecked != 0 {
		t.Fatalf("expected stale rated episode left alone, got %+v", summary)
	}
	if env.upstream.Hits("omdb:i=tt0000100&season=1") != 0 {
		t.Fatal("rated episodes must not trigger season fetches")
	}
}

type countingReconciler struct {
	runs atomic.Int32
}

func (c *countingReconciler) UpdateMetadata(context.Context, *store.Show) error { return nil }

func (c *countingReconciler) ResolveMissing(context.Context, *store.Show, []*store.Episode) (int, error) {
	return 0, nil
}

type countingStore struct {
	lists atomic.Int32
}

func (c *countingStore) ListShows(context.Context) ([]*store.Show, error) {
	c.lists.Add(1)
	return nil, nil
}

func (c *countingStore) EpisodesForShow(context.Context, int64) ([]*store.Episode, error) {
	return nil, nil
}

func TestLoopRunsImmediatelyAndOnInterval(t *testing.T) {
	st := &countingStore{}
	loop := maintenance.New(st, &countingReconciler{}, maintenance.WithInterval(10*time.Millisecond))
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := loop.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for st.lists.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated sweeps, got %d", st.lists.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	loop.Stop()
	if loop.Running() {
		t.Fatal("expected loop stopped")
	}
	after := st.lists.Load()
	time.Sleep(30 * time.Millisecond)
	if st.lists.Load() != after {
		t.Fatal("sweeps continued after Stop")
	}
}
