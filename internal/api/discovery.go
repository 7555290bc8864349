package api

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"heatmap/internal/logging"
	"heatmap/internal/omdb"
	"heatmap/internal/services"
	"heatmap/internal/store"
	"heatmap/internal/textutil"
)

const maxSearchResults = 10

// Search proxies a primary-source series search. Results are cached per
// case-folded query and page. When the primary source is unreachable the
// titles of stored shows are fuzzy-matched instead; those results are not
// cached.
func (s *ShowService) Search(ctx context.Context, query string, page int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	if page < 1 {
		page = 1
	}
	key := textutil.FoldKey(query) + "|" + strconv.Itoa(page)
	if cached, ok := s.searches.Get(key, true); ok {
		return cached, nil
	}

	hits, err := s.primary.Search(ctx, query, page)
	if err != nil {
		logging.WarnWithContext(s.logger, "search fell back to stored shows", "search_fallback",
			logging.String("query", query),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check OMDb availability and API key quota"),
			logging.String(logging.FieldImpact, "search only covers shows already stored"),
		)
		return s.searchStored(ctx, query)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if len(results) == maxSearchResults {
			break
		}
		results = append(results, SearchResult{Title: hit.Title, Year: hit.Year, IMDbID: hit.IMDbID, Type: hit.Type})
	}
	s.searches.Set(key, results)
	return results, nil
}

// storedTitles adapts stored shows to fuzzy.Source.
type storedTitles []*store.Show

func (t storedTitles) String(i int) string { return textutil.FoldKey(t[i].Title) }

func (t storedTitles) Len() int { return len(t) }

func (s *ShowService) searchStored(ctx context.Context, query string) ([]SearchResult, error) {
	shows, err := s.store.ListShows(ctx)
	if err != nil {
		return nil, err
	}
	matches := fuzzy.FindFrom(textutil.FoldKey(query), storedTitles(shows))
	results := make([]SearchResult, 0, min(len(matches), maxSearchResults))
	for _, match := range matches {
		if len(results) == maxSearchResults {
			break
		}
		show := shows[match.Index]
		results = append(results, SearchResult{Title: show.Title, Year: show.Year, IMDbID: show.IMDbID, Type: "series"})
	}
	return results, nil
}

// LookupByTitle returns the raw primary-source record for an exact title.
func (s *ShowService) LookupByTitle(ctx context.Context, title string) (*omdb.Show, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "api", "lookup by title", "title not provided", nil)
	}
	return s.primary.ByTitle(ctx, title)
}

// ShowMeta returns the primary-source header of a show without touching the
// store.
func (s *ShowService) ShowMeta(ctx context.Context, rawID string) (*ShowMeta, error) {
	imdbID, err := requireIMDbID("show meta", rawID)
	if err != nil {
		return nil, err
	}
	show, err := s.primary.Show(services.WithShowID(ctx, imdbID), imdbID)
	if err != nil {
		return nil, err
	}
	return &ShowMeta{
		Title:        show.Title,
		Year:         show.Year,
		Poster:       show.Poster,
		Plot:         show.Plot,
		IMDbID:       show.IMDbID,
		TotalSeasons: show.TotalSeasons,
	}, nil
}

// Trending returns the catalog popularity chart.
func (s *ShowService) Trending(ctx context.Context) ([]TrendingShow, error) {
	entries, err := s.catalog.Trending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TrendingShow, 0, len(entries))
	for _, entry := range entries {
		out = append(out, TrendingShow{
			IMDbID:     entry.IMDbID,
			Title:      entry.Title,
			Year:       entry.Year,
			IMDbRating: entry.Rating,
			Poster:     entry.Poster,
		})
	}
	return out, nil
}

// Popular returns the most viewed stored shows. A show stored without a
// poster has it fetched from the primary source and saved; lookup failures
// leave the poster empty.
func (s *ShowService) Popular(ctx context.Context, limit int) ([]PopularShow, error) {
	if limit <= 0 {
		limit = s.popularLimit
	}
	shows, err := s.store.PopularShows(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PopularShow, 0, len(shows))
	for _, show := range shows {
		if show.Poster == "" {
			s.backfillPoster(ctx, show)
		}
		out = append(out, PopularShow{
			IMDbID:     show.IMDbID,
			Title:      show.Title,
			Year:       show.Year,
			IMDbRating: show.Rating,
			Genres:     show.Genres,
			Poster:     show.Poster,
		})
	}
	return out, nil
}

func (s *ShowService) backfillPoster(ctx context.Context, show *store.Show) {
	ctx = services.WithShowID(ctx, show.IMDbID)
	logger := logging.WithContext(ctx, s.logger)
	meta, err := s.primary.Show(ctx, show.IMDbID)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			logger.Debug("poster lookup failed", logging.Error(err))
		}
		return
	}
	poster := meta.PosterURL()
	if poster == "" {
		return
	}
	show.Poster = poster
	if err := s.store.UpdateShow(ctx, show); err != nil {
		logging.WarnWithContext(logger, "poster not saved", "poster_save_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "poster is fetched again on the next popular request"),
		)
	}
}
