package api

import (
	"context"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/services"
)

// ScrapeRatingDebug scrapes a single title page for its rating.
func (s *ShowService) ScrapeRatingDebug(ctx context.Context, rawID string) (RatingDebug, error) {
	imdbID, err := requireIMDbID("scrape rating", rawID)
	if err != nil {
		return RatingDebug{}, err
	}
	rating, err := s.catalog.Rating(services.WithShowID(ctx, imdbID), imdbID)
	if err != nil {
		return RatingDebug{}, err
	}
	return RatingDebug{IMDbID: imdbID, ScrapedRating: rating}, nil
}

// ClearSeasonCache drops every cached catalog season of a show.
func (s *ShowService) ClearSeasonCache(rawID string) (ClearCacheResult, error) {
	imdbID, err := requireIMDbID("clear season cache", rawID)
	if err != nil {
		return ClearCacheResult{}, err
	}
	return ClearCacheResult{Cleared: s.catalog.ClearSeasonCache(imdbID)}, nil
}

// ParseSeasonDebug re-fetches and parses one catalog season page, bypassing
// the season cache.
func (s *ShowService) ParseSeasonDebug(ctx context.Context, rawID string, season int) (SeasonDebug, error) {
	imdbID, err := requireIMDbID("parse season", rawID)
	if err != nil || season < 1 {
		return SeasonDebug{}, services.Wrap(services.ErrValidation, "api", "parse season", "imdbID and numeric season required", nil)
	}
	s.catalog.EvictSeason(imdbID, season)
	episodes, err := s.catalog.Season(services.WithSeason(services.WithShowID(ctx, imdbID), season), imdbID, season)
	if err != nil {
		return SeasonDebug{}, err
	}
	stats := extract.Summarize(episodes)
	return SeasonDebug{
		IMDbID:    imdbID,
		Season:    season,
		Count:     stats.Count,
		Episodes:  FromParsedEpisodes(episodes),
		Rated:     stats.Rated,
		WithVotes: stats.WithVotes,
	}, nil
}
