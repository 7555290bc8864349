package reconcile

import (
	"context"
	"fmt"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/logging"
	"heatmap/internal/services"
	"heatmap/internal/store"
)

// PlaceholderID returns the catalog id when present, otherwise a synthesized
// "{showId}-S{season}E{episode}" key.
func PlaceholderID(showIMDbID string, season int, scraped extract.Episode) string {
	if scraped.EpisodeID != "" {
		return scraped.EpisodeID
	}
	return fmt.Sprintf("%s-S%dE%d", showIMDbID, season, scraped.Number)
}

// InjectPlaceholders inserts catalog-only episodes of a season as absent and
// provisional rows and returns how many were created. The signature is
// recomputed when anything was inserted.
func (e *Engine) InjectPlaceholders(ctx context.Context, show *store.Show, season int) (int, error) {
	scraped, err := e.catalog.Season(ctx, show.IMDbID, season)
	if err != nil {
		return 0, err
	}
	if len(scraped) == 0 {
		return 0, nil
	}
	existing, err := e.seasonIndex(ctx, show.ID, season)
	if err != nil {
		return 0, err
	}
	inserted, err := e.insertPlaceholders(ctx, show, season, scraped, existing)
	if err != nil {
		return inserted, err
	}
	if inserted > 0 {
		if _, err := e.RecomputeSignature(ctx, show.ID, season); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// EnrichSeason overlays catalog data onto one stored season. Ratings, votes
// and air dates are only overwritten by non-null values that differ, and
// catalog-only episodes become placeholders. It reports whether anything
// changed; on change the signature and the show's lastUpdated are refreshed.
func (e *Engine) EnrichSeason(ctx context.Context, show *store.Show, season int) (bool, error) {
	ctx = services.WithSeason(services.WithShowID(ctx, show.IMDbID), season)
	scraped, err := e.catalog.Season(ctx, show.IMDbID, season)
	if err != nil {
		return false, err
	}
	if len(scraped) == 0 {
		return false, nil
	}
	existing, err := e.seasonIndex(ctx, show.ID, season)
	if err != nil {
		return false, err
	}

	modified := 0
	for _, meta := range scraped {
		ep, ok := existing[meta.Number]
		if !ok || !e.mergeCatalog(ep, meta) {
			continue
		}
		if err := e.store.UpdateEpisode(ctx, ep); err != nil {
			return modified > 0, err
		}
		modified++
	}
	inserted, err := e.insertPlaceholders(ctx, show, season, scraped, existing)
	if err != nil {
		return modified+inserted > 0, err
	}
	if modified+inserted == 0 {
		return false, nil
	}

	sig, err := e.RecomputeSignature(ctx, show.ID, season)
	if err != nil {
		return true, err
	}
	if err := e.store.TouchShow(ctx, show.ID); err != nil {
		return true, err
	}
	logging.WithContext(ctx, e.logger).Debug("season enriched",
		logging.Int("updated", modified),
		logging.Int("placeholders", inserted),
		logging.String("signature", sig),
	)
	return true, nil
}

func (e *Engine) mergeCatalog(ep *store.Episode, meta extract.Episode) bool {
	changed := false
	if meta.Rating != nil && !sameFloat(ep.Rating, meta.Rating) {
		ep.Rating = meta.Rating
		ep.Missing = false
		changed = true
	}
	if meta.Votes != nil && !sameInt(ep.Votes, meta.Votes) {
		ep.Votes = meta.Votes
		changed = true
	}
	if meta.AirDate != nil && (ep.AirDate == nil || !ep.AirDate.Equal(*meta.AirDate)) {
		ep.AirDate = meta.AirDate
		changed = true
	}
	if changed {
		now := e.timestamp()
		ep.LastChecked = &now
	}
	return changed
}

func (e *Engine) insertPlaceholders(ctx context.Context, show *store.Show, season int, scraped []extract.Episode, existing map[int]*store.Episode) (int, error) {
	inserted := 0
	for _, meta := range scraped {
		if _, ok := existing[meta.Number]; ok || meta.Number <= 0 {
			continue
		}
		now := e.timestamp()
		ep := &store.Episode{
			ShowID:      show.ID,
			Season:      season,
			Number:      meta.Number,
			Title:       meta.Title,
			Rating:      meta.Rating,
			Votes:       meta.Votes,
			IMDbID:      PlaceholderID(show.IMDbID, season, meta),
			AirDate:     meta.AirDate,
			LastChecked: &now,
			Missing:     meta.Rating == nil,
			Absent:      true,
			Provisional: true,
		}
		created, err := e.store.InsertEpisode(ctx, ep)
		if err != nil {
			return inserted, err
		}
		existing[meta.Number] = ep
		if created {
			inserted++
		}
	}
	return inserted, nil
}

func (e *Engine) seasonIndex(ctx context.Context, showID int64, season int) (map[int]*store.Episode, error) {
	episodes, err := e.store.EpisodesBySeason(ctx, showID, season)
	if err != nil {
		return nil, err
	}
	index := make(map[int]*store.Episode, len(episodes))
	for _, ep := range episodes {
		index[ep.Number] = ep
	}
	return index, nil
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
