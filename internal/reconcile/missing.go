package reconcile

import (
	"context"
	"sort"

	"heatmap/internal/logging"
	"heatmap/internal/omdb"
	"heatmap/internal/services"
	"heatmap/internal/store"
)

// MissingResult reports a missing-rating refresh.
type MissingResult struct {
	Updated int `json:"updated"`
}

// RefreshMissing retries every unrated episode of a stored show.
func (e *Engine) RefreshMissing(ctx context.Context, imdbID string) (MissingResult, error) {
	ctx = services.WithShowID(ctx, imdbID)
	show, err := e.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return MissingResult{}, err
	}
	if show == nil {
		return MissingResult{}, notStored("refresh missing", imdbID)
	}
	targets, err := e.store.UnratedEpisodes(ctx, show.ID)
	if err != nil {
		return MissingResult{}, err
	}
	updated, err := e.ResolveMissing(ctx, show, targets)
	return MissingResult{Updated: updated}, err
}

// ResolveMissing re-resolves the given episodes season by season: the
// primary-source rating first, then a catalog scrape of the episode page.
// Resolved episodes clear missing; unresolved ones stay missing with a fresh
// lastChecked. Episodes the primary source does not list are left alone.
// Signatures are recomputed only for seasons where something resolved.
func (e *Engine) ResolveMissing(ctx context.Context, show *store.Show, targets []*store.Episode) (int, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	ctx = services.WithShowID(ctx, show.IMDbID)

	bySeason := make(map[int][]*store.Episode)
	for _, ep := range targets {
		bySeason[ep.Season] = append(bySeason[ep.Season], ep)
	}
	seasons := make([]int, 0, len(bySeason))
	for season := range bySeason {
		seasons = append(seasons, season)
	}
	sort.Ints(seasons)

	updated := 0
	for _, season := range seasons {
		seasonCtx := services.WithSeason(ctx, season)
		listing, err := e.primary.Season(seasonCtx, show.IMDbID, season)
		if err != nil {
			e.warnSeasonFetch(seasonCtx, err)
			continue
		}
		entries := indexListing(listing)

		resolved := 0
		for _, ep := range bySeason[season] {
			entry, ok := entries[ep.Number]
			if !ok {
				continue
			}
			rating := entry.Rating()
			if rating == nil {
				rating = e.scrapeRating(seasonCtx, entry.IMDbID, ep.IMDbID)
			}
			now := e.timestamp()
			ep.LastChecked = &now
			if rating != nil {
				ep.Rating = rating
				ep.Missing = false
				if votes := entry.Votes(); votes != nil {
					ep.Votes = votes
				}
				resolved++
			} else {
				ep.Missing = true
			}
			if err := e.store.UpdateEpisode(seasonCtx, ep); err != nil {
				return updated + resolved, err
			}
		}
		if resolved > 0 {
			if _, err := e.RecomputeSignature(seasonCtx, show.ID, season); err != nil {
				return updated + resolved, err
			}
			updated += resolved
		}
	}

	if updated > 0 {
		if err := e.store.TouchShow(ctx, show.ID); err != nil {
			return updated, err
		}
	}
	logging.WithContext(ctx, e.logger).Info("missing ratings checked",
		logging.String(logging.FieldEventType, "missing_refreshed"),
		logging.Int("targets", len(targets)),
		logging.Int("updated", updated),
	)
	return updated, nil
}

func indexListing(listing *omdb.Season) map[int]omdb.SeasonEpisode {
	entries := make(map[int]omdb.SeasonEpisode, len(listing.Episodes))
	for _, entry := range listing.Episodes {
		if number, ok := entry.Number(); ok {
			entries[number] = entry
		}
	}
	return entries
}
