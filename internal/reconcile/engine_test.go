package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
	"heatmap/internal/services"
	"heatmap/internal/store"
	"heatmap/internal/testsupport"
)

const showID = "tt0000100"

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store   *store.Store
	primary *fakePrimary
	catalog *fakeCatalog
	engine  *reconcile.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	primary := newFakePrimary(omdb.Show{
		IMDbID:       showID,
		Title:        "Test Show",
		Year:         "2020–",
		Genre:        "Drama, Comedy",
		IMDbRating:   "8.1",
		IMDbVotes:    "12,345",
		Poster:       "https://example.com/poster.jpg",
		TotalSeasons: "1",
	})
	primary.setSeason(1,
		episode(1, "Pilot", "8.0", "tt0000101"),
		episode(2, "Second", "N/A", "tt0000102"),
		episode(3, "Third", "N/A", "tt0000103"),
	)
	catalog := newFakeCatalog()
	catalog.ratings["tt0000102"] = 7.5
	engine := reconcile.New(st, primary, catalog, reconcile.WithClock(func() time.Time { return fixedNow }))
	return &harness{store: st, primary: primary, catalog: catalog, engine: engine}
}

func (h *harness) season(t *testing.T, showRowID int64, season int) []*store.Episode {
	t.Helper()
	eps, err := h.store.EpisodesBySeason(context.Background(), showRowID, season)
	if err != nil {
		t.Fatalf("EpisodesBySeason failed: %v", err)
	}
	return eps
}

func (h *harness) signature(t *testing.T, showRowID int64, season int) string {
	t.Helper()
	sig, ok, err := h.store.Signature(context.Background(), showRowID, season)
	if err != nil || !ok {
		t.Fatalf("expected stored signature, ok=%v err=%v", ok, err)
	}
	return sig
}

func TestSignatureCountsConfirmedEpisodesOnly(t *testing.T) {
	eps := []*store.Episode{
		{Season: 1, Number: 1, Rating: testsupport.Float(8.0)},
		{Season: 1, Number: 2, Rating: testsupport.Float(7.0)},
		{Season: 1, Number: 3},
		{Season: 1, Number: 4, Rating: testsupport.Float(1.0), Absent: true, Provisional: true},
		{Season: 1, Number: 5, Rating: testsupport.Float(1.0), Provisional: true},
	}
	if got := reconcile.Signature(eps); got != "3:7.500" {
		t.Fatalf("unexpected signature %q", got)
	}
	if got := reconcile.Signature(nil); got != "0:0.000" {
		t.Fatalf("unexpected empty signature %q", got)
	}
	unrated := []*store.Episode{{Season: 1, Number: 1}}
	if got := reconcile.Signature(unrated); got != "1:0.000" {
		t.Fatalf("unexpected unrated signature %q", got)
	}
}

func TestQuickSignatureUsesListingDirectly(t *testing.T) {
	listing := []omdb.SeasonEpisode{
		episode(1, "A", "8.0", "tt1"),
		episode(2, "B", "N/A", "tt2"),
		episode(3, "C", "9.0", "tt3"),
	}
	if got := reconcile.QuickSignature(listing); got != "3:8.500" {
		t.Fatalf("unexpected quick signature %q", got)
	}
	withSpecial := append([]omdb.SeasonEpisode{episode(0, "Special", "5.0", "tt0")}, listing...)
	if got := reconcile.QuickSignature(withSpecial); got != "3:8.500" {
		t.Fatalf("unnumbered entries must not change the signature, got %q", got)
	}
}

func TestPlaceholderID(t *testing.T) {
	if got := reconcile.PlaceholderID(showID, 2, extract.Episode{Number: 4}); got != "tt0000100-S2E4" {
		t.Fatalf("unexpected synthesized id %q", got)
	}
	if got := reconcile.PlaceholderID(showID, 2, extract.Episode{Number: 4, EpisodeID: "tt0000999"}); got != "tt0000999" {
		t.Fatalf("expected catalog id, got %q", got)
	}
}

func TestIngestFullPathScrapesMissingRatings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	show, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{TrackView: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if show.ID == 0 || show.Title != "Test Show" || show.TotalSeasons != 1 || show.ViewCount != 1 {
		t.Fatalf("unexpected show %#v", show)
	}
	if show.LastFullRefresh == nil || !show.LastFullRefresh.Equal(fixedNow) {
		t.Fatalf("expected last full refresh stamp, got %v", show.LastFullRefresh)
	}

	eps := h.season(t, show.ID, 1)
	if len(eps) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(eps))
	}
	if eps[1].Rating == nil || *eps[1].Rating != 7.5 || eps[1].Missing {
		t.Fatalf("expected scraped rating for episode 2, got %#v", eps[1])
	}
	if eps[2].Rating != nil || !eps[2].Missing {
		t.Fatalf("expected episode 3 missing, got %#v", eps[2])
	}
	for _, ep := range eps {
		if ep.Absent || ep.Provisional {
			t.Fatalf("ingested episodes must be confirmed: %#v", ep)
		}
	}
	if eps[0].AirDate == nil || eps[0].AirDate.Format("2006-01-02") != "2020-01-01" {
		t.Fatalf("expected released date, got %v", eps[0].AirDate)
	}
	if sig := h.signature(t, show.ID, 1); sig != "3:7.750" {
		t.Fatalf("unexpected signature %q", sig)
	}
}

func TestIngestSkipsEpisodeZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	show := h.primary.shows[showID]
	show.TotalSeasons = "2"
	h.primary.shows[showID] = show
	h.primary.setSeason(1,
		episode(0, "Unaired Pilot", "6.5", "tt0000100"),
		episode(1, "Pilot", "8.0", "tt0000101"),
	)
	h.primary.setSeason(2, episode(1, "Return", "8.4", "tt0000201"))

	stored, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	first := h.season(t, stored.ID, 1)
	if len(first) != 1 || first[0].Number != 1 || first[0].Title != "Pilot" {
		t.Fatalf("expected only the numbered episode in season 1, got %#v", first)
	}
	if second := h.season(t, stored.ID, 2); len(second) != 1 {
		t.Fatalf("expected season 2 to be ingested, got %d episodes", len(second))
	}
	if sig := h.signature(t, stored.ID, 1); sig != "1:8.000" {
		t.Fatalf("unexpected signature %q", sig)
	}

	later := fixedNow.Add(time.Hour)
	engine := reconcile.New(h.store, h.primary, h.catalog, reconcile.WithClock(func() time.Time { return later }))
	result, err := engine.RefreshShow(ctx, showID, true)
	if err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	if result.UpdatedSeasons != 0 {
		t.Fatalf("episode 0 must not make a season look changed, got %d updated", result.UpdatedSeasons)
	}
	if eps := h.season(t, stored.ID, 1); len(eps) != 1 {
		t.Fatalf("refresh must not store episode 0, got %d episodes", len(eps))
	}
}

func TestIngestFastPathSkipsCatalog(t *testing.T) {
	h := newHarness(t)

	show, err := h.engine.Ingest(context.Background(), showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if calls := h.catalog.totalRatingCalls(); calls != 0 {
		t.Fatalf("fast ingest must not scrape, got %d calls", calls)
	}
	eps := h.season(t, show.ID, 1)
	if !eps[1].Missing || !eps[2].Missing || eps[0].Missing {
		t.Fatalf("unexpected missing flags %v %v %v", eps[0].Missing, eps[1].Missing, eps[2].Missing)
	}
	if show.ViewCount != 0 {
		t.Fatalf("untracked ingest should not count a view, got %d", show.ViewCount)
	}
}

func TestIngestReturnsStoredShow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	calls := h.primary.seasonCalls
	second, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	if second.ID != first.ID || h.primary.seasonCalls != calls {
		t.Fatalf("expected stored show to be reused without upstream calls")
	}
}

func TestIngestUnknownShowIsNotFound(t *testing.T) {
	h := newHarness(t)
	if _, err := h.engine.Ingest(context.Background(), "tt9999999", reconcile.IngestOptions{}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshMissingIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	show, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	first, err := h.engine.RefreshMissing(ctx, showID)
	if err != nil {
		t.Fatalf("RefreshMissing failed: %v", err)
	}
	if first.Updated != 1 {
		t.Fatalf("expected 1 update, got %d", first.Updated)
	}
	second, err := h.engine.RefreshMissing(ctx, showID)
	if err != nil {
		t.Fatalf("RefreshMissing failed: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("expected idempotent second run, got %d", second.Updated)
	}

	eps := h.season(t, show.ID, 1)
	if eps[1].Rating == nil || eps[1].Missing {
		t.Fatalf("expected episode 2 resolved, got %#v", eps[1])
	}
	if !eps[2].Missing || eps[2].LastChecked == nil {
		t.Fatalf("expected episode 3 to stay missing with a check stamp, got %#v", eps[2])
	}
	if sig := h.signature(t, show.ID, 1); sig != "3:7.750" {
		t.Fatalf("unexpected signature %q", sig)
	}
}

func TestRefreshMissingUnknownShow(t *testing.T) {
	h := newHarness(t)
	if _, err := h.engine.RefreshMissing(context.Background(), showID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshShowAddsAndPromotesPlaceholders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.primary.setSeason(1,
		episode(1, "Pilot", "8.0", "tt0000101"),
		episode(2, "Second", "7.0", "tt0000102"),
	)
	show, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	h.catalog.seasons[1] = []extract.Episode{
		{Season: 1, Number: 1, Title: "Pilot", Rating: testsupport.Float(8.0)},
		{Season: 1, Number: 2, Title: "Second", Rating: testsupport.Float(7.0)},
		{Season: 1, Number: 3, Title: "Leaked", Rating: testsupport.Float(9.0)},
	}
	result, err := h.engine.RefreshShow(ctx, showID, true)
	if err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	if result.UpdatedSeasons != 1 {
		t.Fatalf("expected placeholder injection to count as an update, got %d", result.UpdatedSeasons)
	}
	eps := h.season(t, show.ID, 1)
	if len(eps) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(eps))
	}
	placeholder := eps[2]
	if !placeholder.Absent || !placeholder.Provisional || placeholder.IMDbID != "tt0000100-S1E3" {
		t.Fatalf("unexpected placeholder %#v", placeholder)
	}
	if sig := h.signature(t, show.ID, 1); sig != "2:7.500" {
		t.Fatalf("placeholders must not count toward the signature, got %q", sig)
	}

	h.primary.setSeason(1,
		episode(1, "Pilot", "8.0", "tt0000101"),
		episode(2, "Second", "7.0", "tt0000102"),
		episode(3, "The Real Third", "8.5", "tt0000103"),
	)
	if _, err := h.engine.RefreshShow(ctx, showID, true); err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	eps = h.season(t, show.ID, 1)
	if len(eps) != 3 {
		t.Fatalf("promotion must not duplicate rows, got %d", len(eps))
	}
	promoted := eps[2]
	if !promoted.Confirmed() || promoted.IMDbID != "tt0000103" || promoted.Title != "The Real Third" {
		t.Fatalf("expected promoted episode, got %#v", promoted)
	}
	if promoted.Rating == nil || *promoted.Rating != 8.5 {
		t.Fatalf("expected primary rating after promotion, got %v", promoted.Rating)
	}
	if sig := h.signature(t, show.ID, 1); sig != "3:7.833" {
		t.Fatalf("unexpected signature after promotion %q", sig)
	}

	if _, err := h.engine.RefreshShow(ctx, showID, true); err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	eps = h.season(t, show.ID, 1)
	if !eps[2].Confirmed() {
		t.Fatal("confirmed episode reverted to placeholder")
	}
}

func TestRefreshShowSkipsUnchangedSeason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.primary.setSeason(1,
		episode(1, "Pilot", "8.0", "tt0000101"),
		episode(2, "Second", "7.0", "tt0000102"),
	)
	show, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	before := h.season(t, show.ID, 1)

	later := fixedNow.Add(time.Hour)
	engine := reconcile.New(h.store, h.primary, h.catalog, reconcile.WithClock(func() time.Time { return later }))
	result, err := engine.RefreshShow(ctx, showID, true)
	if err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	if result.UpdatedSeasons != 0 {
		t.Fatalf("expected no updated seasons, got %d", result.UpdatedSeasons)
	}
	after := h.season(t, show.ID, 1)
	if !after[0].LastChecked.Equal(*before[0].LastChecked) {
		t.Fatal("unchanged season should not be rewritten")
	}
	stored, err := h.store.ShowByIMDbID(ctx, showID)
	if err != nil {
		t.Fatalf("ShowByIMDbID failed: %v", err)
	}
	if stored.LastFullRefresh == nil || !stored.LastFullRefresh.Equal(later) {
		t.Fatalf("expected last full refresh to advance, got %v", stored.LastFullRefresh)
	}
}

func TestRefreshShowGrowsSeasonCountOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	h.catalog.maxSeason = 2
	h.catalog.seasons[2] = []extract.Episode{{Season: 2, Number: 1, Title: "Premiere", EpisodeID: "tt0000201"}}
	if _, err := h.engine.RefreshShow(ctx, showID, true); err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	show, err := h.store.ShowByIMDbID(ctx, showID)
	if err != nil {
		t.Fatalf("ShowByIMDbID failed: %v", err)
	}
	if show.TotalSeasons != 2 {
		t.Fatalf("expected discovered season count, got %d", show.TotalSeasons)
	}
	eps := h.season(t, show.ID, 2)
	if len(eps) != 1 || !eps[0].Provisional || eps[0].IMDbID != "tt0000201" {
		t.Fatalf("expected season 2 placeholder, got %#v", eps)
	}

	h.catalog.maxSeason = 0
	if _, err := h.engine.RefreshShow(ctx, showID, true); err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	show, _ = h.store.ShowByIMDbID(ctx, showID)
	if show.TotalSeasons != 2 {
		t.Fatalf("season count must never shrink, got %d", show.TotalSeasons)
	}
}

func TestRefreshShowIngestsUnknownShow(t *testing.T) {
	h := newHarness(t)
	result, err := h.engine.RefreshShow(context.Background(), showID, true)
	if err != nil {
		t.Fatalf("RefreshShow failed: %v", err)
	}
	if !result.Ingested {
		t.Fatal("expected refresh of an unknown show to ingest it")
	}
}

func TestRefreshMetadataErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.engine.RefreshMetadata(ctx, showID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unstored show, got %v", err)
	}
	if _, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	h.primary.showErr = services.Wrap(services.ErrNotFound, "omdb", "show", "gone", nil)
	err := h.engine.RefreshMetadata(ctx, showID)
	if !errors.Is(err, services.ErrUpstreamUnavailable) || errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if status := services.HTTPStatus(err); status != 502 {
		t.Fatalf("expected 502 mapping, got %d", status)
	}
}

func TestRefreshMetadataKeepsValuesUpstreamOmits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	h.primary.shows[showID] = omdb.Show{
		IMDbID:       showID,
		Title:        "Renamed",
		IMDbRating:   "N/A",
		IMDbVotes:    "N/A",
		Poster:       "N/A",
		TotalSeasons: "0",
		Response:     "True",
	}
	if err := h.engine.RefreshMetadata(ctx, showID); err != nil {
		t.Fatalf("RefreshMetadata failed: %v", err)
	}
	show, err := h.store.ShowByIMDbID(ctx, showID)
	if err != nil {
		t.Fatalf("ShowByIMDbID failed: %v", err)
	}
	if show.Title != "Renamed" {
		t.Fatalf("expected title update, got %q", show.Title)
	}
	if show.Rating == nil || *show.Rating != 8.1 || show.Votes == nil || *show.Votes != 12345 {
		t.Fatalf("absent aggregate values must not erase stored ones: %v %v", show.Rating, show.Votes)
	}
	if show.Poster != "https://example.com/poster.jpg" || show.TotalSeasons != 1 {
		t.Fatalf("unexpected poster/seasons %q %d", show.Poster, show.TotalSeasons)
	}
}

func TestEnrichSeasonOverwritesOnlyWithValues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	show, err := h.engine.Ingest(ctx, showID, reconcile.IngestOptions{Fast: true})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	aired := time.Date(2020, time.February, 2, 0, 0, 0, 0, time.UTC)
	h.catalog.seasons[1] = []extract.Episode{
		{Season: 1, Number: 1, Title: "Pilot", Votes: testsupport.Int(150), AirDate: &aired},
		{Season: 1, Number: 2, Title: "Second", Rating: testsupport.Float(7.0)},
		{Season: 1, Number: 4, Title: "Bonus", Rating: testsupport.Float(6.0), EpisodeID: "tt0000104"},
	}
	changed, err := h.engine.EnrichSeason(ctx, show, 1)
	if err != nil {
		t.Fatalf("EnrichSeason failed: %v", err)
	}
	if !changed {
		t.Fatal("expected enrichment to change the season")
	}

	eps := h.season(t, show.ID, 1)
	if len(eps) != 4 {
		t.Fatalf("expected 4 episodes, got %d", len(eps))
	}
	if eps[0].Rating == nil || *eps[0].Rating != 8.0 {
		t.Fatalf("null catalog rating must not erase stored rating, got %v", eps[0].Rating)
	}
	if eps[0].Votes == nil || *eps[0].Votes != 150 || eps[0].AirDate == nil || !eps[0].AirDate.Equal(aired) {
		t.Fatalf("expected votes and air date overlay, got %#v", eps[0])
	}
	if eps[1].Rating == nil || *eps[1].Rating != 7.0 || eps[1].Missing {
		t.Fatalf("expected rating overlay on missing episode, got %#v", eps[1])
	}
	if !eps[3].Provisional || eps[3].IMDbID != "tt0000104" {
		t.Fatalf("expected placeholder for catalog-only episode, got %#v", eps[3])
	}
	if sig := h.signature(t, show.ID, 1); sig != "3:7.500" {
		t.Fatalf("unexpected signature %q", sig)
	}

	again, err := h.engine.EnrichSeason(ctx, show, 1)
	if err != nil {
		t.Fatalf("EnrichSeason failed: %v", err)
	}
	if again {
		t.Fatal("second enrichment with identical data should change nothing")
	}
}

func TestStaleness(t *testing.T) {
	policy := reconcile.DefaultStaleness()
	now := fixedNow

	recent := now.Add(-24 * time.Hour)
	old := now.Add(-8 * 24 * time.Hour)
	if !policy.ShowStale(&store.Show{}, now) {
		t.Fatal("never refreshed show must be stale")
	}
	if policy.ShowStale(&store.Show{LastFullRefresh: &recent}, now) {
		t.Fatal("recent show must not be stale")
	}
	if !policy.ShowStale(&store.Show{LastFullRefresh: &old}, now) {
		t.Fatal("week-old show must be stale")
	}

	checked := now.Add(-31 * 24 * time.Hour)
	eps := []*store.Episode{
		{Number: 1, Rating: testsupport.Float(8), LastChecked: &recent},
		{Number: 2, LastChecked: &recent},
		{Number: 3, Rating: testsupport.Float(8)},
		{Number: 4, Rating: testsupport.Float(8), LastChecked: &checked},
	}
	stale := policy.StaleEpisodes(eps, now)
	if len(stale) != 3 || stale[0].Number != 2 {
		t.Fatalf("unexpected stale episodes %d", len(stale))
	}
}
