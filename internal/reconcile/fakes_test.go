package reconcile_test

import (
	"context"
	"fmt"
	"sync"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/omdb"
	"heatmap/internal/services"
)

type fakePrimary struct {
	mu          sync.Mutex
	shows       map[string]omdb.Show
	seasons     map[int][]omdb.SeasonEpisode
	showErr     error
	seasonCalls int
}

func newFakePrimary(show omdb.Show) *fakePrimary {
	show.Response = "True"
	return &fakePrimary{
		shows:   map[string]omdb.Show{show.IMDbID: show},
		seasons: map[int][]omdb.SeasonEpisode{},
	}
}

func (f *fakePrimary) setSeason(season int, eps ...omdb.SeasonEpisode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seasons[season] = eps
}

func (f *fakePrimary) Show(_ context.Context, imdbID string) (*omdb.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return nil, f.showErr
	}
	show, ok := f.shows[imdbID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "omdb", "show", imdbID, nil)
	}
	return &show, nil
}

func (f *fakePrimary) Season(_ context.Context, imdbID string, season int) (*omdb.Season, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seasonCalls++
	eps, ok := f.seasons[season]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "omdb", "season", fmt.Sprintf("%s season %d", imdbID, season), nil)
	}
	copied := append([]omdb.SeasonEpisode(nil), eps...)
	return &omdb.Season{Season: fmt.Sprint(season), Episodes: copied, Response: "True"}, nil
}

func (f *fakePrimary) Search(context.Context, string, int) ([]omdb.SearchResult, error) {
	return nil, nil
}

func (f *fakePrimary) ByTitle(context.Context, string) (*omdb.Show, error) {
	return nil, services.ErrNotFound
}

type fakeCatalog struct {
	mu          sync.Mutex
	seasons     map[int][]extract.Episode
	ratings     map[string]float64
	ratingCalls map[string]int
	maxSeason   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		seasons:     map[int][]extract.Episode{},
		ratings:     map[string]float64{},
		ratingCalls: map[string]int{},
	}
}

func (f *fakeCatalog) Season(_ context.Context, _ string, season int) ([]extract.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]extract.Episode(nil), f.seasons[season]...), nil
}

func (f *fakeCatalog) Rating(_ context.Context, titleID string) (*float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratingCalls[titleID]++
	if v, ok := f.ratings[titleID]; ok {
		return &v, nil
	}
	return nil, nil
}

func (f *fakeCatalog) MaxSeason(context.Context, string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeason, f.maxSeason > 0, nil
}

func (f *fakeCatalog) Trending(context.Context) ([]extract.ChartEntry, error) { return nil, nil }

func (f *fakeCatalog) EvictSeason(string, int) {}

func (f *fakeCatalog) ClearSeasonCache(string) int { return 0 }

func (f *fakeCatalog) totalRatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.ratingCalls {
		total += n
	}
	return total
}

func episode(number int, title, rating, id string) omdb.SeasonEpisode {
	return omdb.SeasonEpisode{
		Title:      title,
		Episode:    fmt.Sprint(number),
		IMDbRating: rating,
		IMDbVotes:  "N/A",
		IMDbID:     id,
		Released:   "2020-01-0" + fmt.Sprint(number),
	}
}
