package extract_test

import (
	"testing"
	"time"

	"heatmap/internal/imdb/extract"
)

const domFixture = `<div data-testid="episodes-list">
  <div data-testid="episodes-list-item">
    <span>S1.E1</span>
    <a href="/title/tt99999991/">Pilot</a>
    <div data-testid="ratingGroup--container"><span class="ipc-rating-star--rating">8.2</span><span class="voteCount">(1.3K)</span></div>
    <span>Fri Apr 03 2020</span>
  </div>
  <div data-testid="episodes-list-item">
    <span>S1.E2</span>
    <a href="/title/tt99999992/">Second</a>
    <div data-testid="ratingGroup--container"><span class="ipc-rating-star--rating">7.9</span><span class="voteCount">(987)</span></div>
    <span>Fri Apr 10 2020</span>
  </div>
</div>`

func TestPipelineDOMTierFixture(t *testing.T) {
	result := extract.NewPipeline().Run([]byte(domFixture), 1)
	if result.Tier != "dom" {
		t.Fatalf("expected dom tier, got %q", result.Tier)
	}
	eps := result.Episodes
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}
	assertEpisode(t, eps[0], 1, "Pilot", 8.2, 1300)
	assertEpisode(t, eps[1], 2, "Second", 7.9, 987)
	if eps[0].EpisodeID != "tt99999991" {
		t.Fatalf("unexpected episode id %q", eps[0].EpisodeID)
	}
	want := time.Date(2020, time.April, 3, 0, 0, 0, 0, time.UTC)
	if eps[0].AirDate == nil || !eps[0].AirDate.Equal(want) {
		t.Fatalf("unexpected air date %v", eps[0].AirDate)
	}
}

func TestPipelineRejectsEmptyNextData(t *testing.T) {
	page := `<html><head><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"contentData":{"episodes":{"items":[
  {"season":1,"episode":1},
  {"season":1,"episode":2}
]}}}}}
</script></head><body>` + domFixture + `</body></html>`

	tier := extract.NextDataTier{}
	doc, err := extract.NewDocument([]byte(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if eps, ok := tier.Extract(doc, 1); ok || eps != nil {
		t.Fatalf("expected next data tier to reject unrated unnamed episodes, got %v", eps)
	}

	result := extract.NewPipeline().RunDocument(doc, 1)
	if result.Tier != "dom" {
		t.Fatalf("expected fall through to dom tier, got %q", result.Tier)
	}
	if len(result.Episodes) != 2 || *result.Episodes[0].Rating != 8.2 {
		t.Fatalf("expected dom episodes, got %+v", result.Episodes)
	}
}

func TestNextDataSkipsJunkEpisodeNumbers(t *testing.T) {
	page := `<script id="__NEXT_DATA__">
{"props":{"pageProps":{"contentData":{"section":{"items":[
  {"content":{"seasonNumber":1,"episodeNumber":1,"titleText":{"text":"Pilot"},"id":"tt2000001"}},
  {"content":{"seasonNumber":1,"episodeNumber":4294967297,"titleText":{"text":"Junk"},"id":"tt2000002"}},
  {"content":{"seasonNumber":1,"episodeNumber":0,"titleText":{"text":"Special"},"id":"tt2000003"}}
]}}}}}
</script>`

	result := extract.NewPipeline().Run([]byte(page), 1)
	if result.Tier != "next_data" {
		t.Fatalf("expected next_data tier, got %q", result.Tier)
	}
	if len(result.Episodes) != 1 || result.Episodes[0].Number != 1 {
		t.Fatalf("expected only the valid episode, got %+v", result.Episodes)
	}
}

func TestNextDataKnownPath(t *testing.T) {
	page := `<script id="__NEXT_DATA__">
{"props":{"pageProps":{"contentData":{"section":{"items":[
  {"content":{"seasonNumber":2,"episodeNumber":1,"titleText":{"text":"Return"},
   "ratingsSummary":{"aggregateRating":8.7,"voteCount":12034},
   "releaseDate":{"year":2021,"month":2,"day":14},"id":"tt1000001"}},
  {"content":{"seasonNumber":2,"episodeNumber":2,"titleText":{"text":"Fallout"},
   "ratingsSummary":{"aggregateRating":null,"voteCount":null},"tconst":"tt1000002"}},
  {"content":{"seasonNumber":3,"episodeNumber":1,"titleText":{"text":"Other season"}}}
]}}}}}
</script>`

	result := extract.NewPipeline().Run([]byte(page), 2)
	if result.Tier != "next_data" {
		t.Fatalf("expected next_data tier, got %q", result.Tier)
	}
	eps := result.Episodes
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes for season 2, got %d", len(eps))
	}
	assertEpisode(t, eps[0], 1, "Return", 8.7, 12034)
	if eps[0].EpisodeID != "tt1000001" {
		t.Fatalf("unexpected id %q", eps[0].EpisodeID)
	}
	if eps[0].AirDate == nil || eps[0].AirDate.Format("2006-01-02") != "2021-02-14" {
		t.Fatalf("unexpected air date %v", eps[0].AirDate)
	}
	if eps[1].Rating != nil || eps[1].Votes != nil {
		t.Fatalf("expected unrated second episode, got %+v", eps[1])
	}
	if eps[1].EpisodeID != "tt1000002" {
		t.Fatalf("expected tconst fallback, got %q", eps[1].EpisodeID)
	}
}

func TestNextDataTreeSearchPicksBestSeasonMatch(t *testing.T) {
	page := `<script id="__NEXT_DATA__">
{"props":{"pageProps":{"other":{"list":[
    {"season":1,"episode":1,"titleText":{"text":"Wrong season"}}
  ]},
  "deep":{"nested":{"episodesBlock":[
    {"seasonNumber":"4","episodeNumber":"1","title":"First","ratingsSummary":{"aggregateRating":"7.5"}},
    {"seasonNumber":"4","episodeNumber":"2","title":"Second","ratingsSummary":{"aggregateRating":"7.1"}}
  ]}}}}}
</script>`

	result := extract.NewPipeline().Run([]byte(page), 4)
	if result.Tier != "next_data" {
		t.Fatalf("expected next_data tier, got %q", result.Tier)
	}
	if len(result.Episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(result.Episodes))
	}
	if result.Episodes[0].Title != "First" || *result.Episodes[1].Rating != 7.1 {
		t.Fatalf("unexpected episodes %+v", result.Episodes)
	}
}

func TestNextDataSearchRespectsDepthLimit(t *testing.T) {
	// The episode array sits at depth 9, one level beyond the search bound.
	page := `<script id="__NEXT_DATA__">
{"a":{"b":{"c":{"d":{"e":{"f":{"g":{"h":{"i":[
  {"season":1,"episode":1,"title":"Too deep","ratingsSummary":{"aggregateRating":9}}
]}}}}}}}}}
</script>`
	if result := extract.NewPipeline(extract.NextDataTier{}).Run([]byte(page), 1); len(result.Episodes) != 0 {
		t.Fatalf("expected nothing beyond depth limit, got %+v", result.Episodes)
	}
}

func TestHeuristicTierFindsLooseLabels(t *testing.T) {
	page := `<html><body>
<section>
  <div data-testid="episodes-list-item-card">
    <div><div><span>S3.E1 ∙ Opening</span></div></div>
    <a href="/title/tt5550001/"> </a>
    <a href="/title/tt5550001/">Opening</a>
    <div data-testid="ratingGroup--container"><span class="ipc-rating-star--rating">9.0</span><span class="voteCount">(2K)</span></div>
  </div>
  <p><b>S3.E2</b> <a href="/title/tt5550002/">Loose</a></p>
  <p>S3.E1 duplicate label</p>
</section>
</body></html>`

	result := extract.NewPipeline(extract.DOMTier{}, extract.HeuristicTier{}).Run([]byte(page), 3)
	if result.Tier != "dom" {
		// data-testid^=episodes-list-item matches the card, so dom wins here.
		t.Fatalf("expected dom tier first, got %q", result.Tier)
	}

	doc, err := extract.NewDocument([]byte(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	eps, ok := extract.HeuristicTier{}.Extract(doc, 3)
	if !ok || len(eps) != 2 {
		t.Fatalf("expected 2 heuristic episodes, got %d (%v)", len(eps), ok)
	}
	assertEpisode(t, eps[0], 1, "Opening", 9.0, 2000)
	if eps[1].Number != 2 || eps[1].Rating != nil {
		t.Fatalf("unexpected second episode %+v", eps[1])
	}
	// Without a tagged card the immediate parent is used, which holds no link.
	if eps[1].Title != extract.UnknownTitle {
		t.Fatalf("expected unknown title from bare parent, got %q", eps[1].Title)
	}
}

func TestPipelineEmptyOnUnknownMarkup(t *testing.T) {
	result := extract.NewPipeline().Run([]byte(`<html><body><p>nothing here</p></body></html>`), 1)
	if len(result.Episodes) != 0 || result.Tier != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func assertEpisode(t *testing.T, ep extract.Episode, number int, title string, rating float64, votes int64) {
	t.Helper()
	if ep.Number != number {
		t.Fatalf("episode number = %d, want %d", ep.Number, number)
	}
	if ep.Title != title {
		t.Fatalf("episode %d title = %q, want %q", number, ep.Title, title)
	}
	if ep.Rating == nil || *ep.Rating != rating {
		t.Fatalf("episode %d rating = %v, want %v", number, ep.Rating, rating)
	}
	if ep.Votes == nil || *ep.Votes != votes {
		t.Fatalf("episode %d votes = %v, want %d", number, ep.Votes, votes)
	}
}
