package imdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"heatmap/internal/fetch"
	"heatmap/internal/imdb"
	"heatmap/internal/services"
)

const seasonPage = `<div data-testid="episodes-list">
  <div data-testid="episodes-list-item">
    <span>S1.E1</span><a href="/title/tt99999991/">Pilot</a>
    <div data-testid="ratingGroup--container"><span class="ipc-rating-star--rating">8.2</span><span class="voteCount">(1.3K)</span></div>
  </div>
</div>`

const metaRatingPage = `<html><head><meta itemprop="ratingValue" content="6.9"></head><body></body></html>`

func newClient(t *testing.T, handler http.Handler, opts ...imdb.Option) *imdb.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	fetcher := fetch.New(fetch.WithInterval(fetch.ClassCatalog, 0))
	opts = append([]imdb.Option{imdb.WithRetry(3, time.Millisecond)}, opts...)
	client, err := imdb.New(fetcher, srv.URL, opts...)
	if err != nil {
		t.Fatalf("imdb.New: %v", err)
	}
	return client
}

func TestSeasonCachesNonEmptyResults(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/title/tt0000001/episodes/" || r.URL.Query().Get("season") != "1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		_, _ = w.Write([]byte(seasonPage))
	}))

	for i := 0; i < 2; i++ {
		eps, err := client.Season(context.Background(), "tt0000001", 1)
		if err != nil {
			t.Fatalf("Season: %v", err)
		}
		if len(eps) != 1 || *eps[0].Votes != 1300 {
			t.Fatalf("unexpected episodes %+v", eps)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached second call, got %d requests", calls.Load())
	}

	client.EvictSeason("tt0000001", 1)
	if _, err := client.Season(context.Background(), "tt0000001", 1); err != nil {
		t.Fatalf("Season after evict: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected refetch after evict, got %d requests", calls.Load())
	}
	if cleared := client.ClearSeasonCache("tt0000001"); cleared != 1 {
		t.Fatalf("expected 1 cleared entry, got %d", cleared)
	}
}

func TestSeasonDoesNotCacheEmptyPages(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html><body>nothing</body></html>`))
	}))
	for i := 0; i < 2; i++ {
		eps, err := client.Season(context.Background(), "tt0000001", 1)
		if err != nil || len(eps) != 0 {
			t.Fatalf("expected empty result, got %v %v", eps, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected empty result to bypass cache, got %d requests", calls.Load())
	}
}

func TestSeasonNon200IsUpstreamFailure(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := client.Season(context.Background(), "tt0000001", 1)
	if !errors.Is(err, services.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestRatingRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(metaRatingPage))
	}))

	rating, err := client.Rating(context.Background(), "tt8888888")
	if err != nil {
		t.Fatalf("Rating: %v", err)
	}
	if rating == nil || *rating != 6.9 {
		t.Fatalf("expected 6.9, got %v", rating)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestRatingGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	rating, err := client.Rating(context.Background(), "tt8888888")
	if rating != nil || !errors.Is(err, services.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream failure, got %v %v", rating, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestRatingCacheStoresHitsAndMisses(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/title/tt1111111/" {
			_, _ = w.Write([]byte(metaRatingPage))
			return
		}
		_, _ = w.Write([]byte(`<html><body>no rating</body></html>`))
	}), imdb.WithRatingCache(true, time.Hour, time.Minute))

	for i := 0; i < 2; i++ {
		if rating, err := client.Rating(context.Background(), "tt1111111"); err != nil || rating == nil {
			t.Fatalf("expected hit, got %v %v", rating, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected hit to be cached, got %d requests", calls.Load())
	}

	for i := 0; i < 2; i++ {
		if rating, err := client.Rating(context.Background(), "tt2222222"); err != nil || rating != nil {
			t.Fatalf("expected miss, got %v %v", rating, err)
		}
	}
	// three attempts for the first miss, none for the cached one
	if calls.Load() != 4 {
		t.Fatalf("expected miss to be cached after 3 attempts, got %d requests", calls.Load())
	}
}

func TestTrendingAndMaxSeason(t *testing.T) {
	var chartCalls atomic.Int32
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chart/tvmeter/":
			chartCalls.Add(1)
			_, _ = w.Write([]byte(`<ul><li class="ipc-metadata-list-summary-item"><a href="/title/tt3333333/">Gamma</a></li></ul>`))
		case "/title/tt3333333/episodes/":
			_, _ = w.Write([]byte(`<select data-testid="episodes-season-select"><option value="1">1</option><option value="5">5</option></select>`))
		default:
			http.NotFound(w, r)
		}
	}))

	for i := 0; i < 2; i++ {
		entries, err := client.Trending(context.Background())
		if err != nil || len(entries) != 1 || entries[0].IMDbID != "tt3333333" {
			t.Fatalf("unexpected trending %+v %v", entries, err)
		}
	}
	if chartCalls.Load() != 1 {
		t.Fatalf("expected trending to be cached, got %d requests", chartCalls.Load())
	}

	n, ok, err := client.MaxSeason(context.Background(), "tt3333333")
	if err != nil || !ok || n != 5 {
		t.Fatalf("MaxSeason = %d %v %v", n, ok, err)
	}
}
