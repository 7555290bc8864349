package reconcile

import (
	"context"
	"errors"
	"strings"

	"heatmap/internal/logging"
	"heatmap/internal/omdb"
	"heatmap/internal/services"
	"heatmap/internal/store"
	"heatmap/internal/textutil"
)

// RefreshResult reports a whole-show refresh.
type RefreshResult struct {
	UpdatedSeasons int  `json:"updatedSeasons"`
	Ingested       bool `json:"ingested,omitempty"`
}

// RefreshShow re-synchronizes every season of a stored show. A show that is
// not stored yet is ingested instead.
func (e *Engine) RefreshShow(ctx context.Context, imdbID string, fast bool) (RefreshResult, error) {
	ctx = services.WithShowID(ctx, imdbID)
	logger := logging.WithContext(ctx, e.logger)

	show, err := e.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return RefreshResult{}, err
	}
	if show == nil {
		if _, err := e.Ingest(ctx, imdbID, IngestOptions{Fast: fast}); err != nil {
			return RefreshResult{}, err
		}
		return RefreshResult{Ingested: true}, nil
	}

	if meta, err := e.primary.Show(ctx, imdbID); err == nil {
		applyMetadata(show, meta)
	} else {
		logging.WarnWithContext(logger, "primary metadata fetch failed", "metadata_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check OMDb availability"),
			logging.String(logging.FieldImpact, "show metadata left unchanged"),
		)
	}

	if maxSeason, ok, err := e.catalog.MaxSeason(ctx, imdbID); err != nil {
		logger.Debug("season discovery failed", logging.Error(err))
	} else if ok && maxSeason > show.TotalSeasons {
		logger.Info("catalog lists additional seasons",
			logging.String(logging.FieldEventType, "seasons_discovered"),
			logging.Int("stored", show.TotalSeasons),
			logging.Int("discovered", maxSeason),
		)
		show.TotalSeasons = maxSeason
	}

	result := RefreshResult{}
	fetchedAny := false
	for season := 1; season <= show.TotalSeasons; season++ {
		changed, fetched, err := e.refreshSeason(ctx, show, season)
		if err != nil {
			return result, err
		}
		if fetched {
			fetchedAny = true
		}
		if changed {
			result.UpdatedSeasons++
		}
	}

	now := e.timestamp()
	if fetchedAny {
		show.LastFullRefresh = &now
	}
	show.LastUpdated = now
	if err := e.store.UpdateShow(ctx, show); err != nil {
		return result, err
	}
	logger.Info("show refreshed",
		logging.String(logging.FieldEventType, "show_refreshed"),
		logging.Int("seasons", show.TotalSeasons),
		logging.Int("updated_seasons", result.UpdatedSeasons),
	)
	return result, nil
}

// refreshSeason reconciles one season. fetched reports whether the primary
// source returned a listing.
func (e *Engine) refreshSeason(ctx context.Context, show *store.Show, season int) (changed bool, fetched bool, err error) {
	ctx = services.WithSeason(ctx, season)
	logger := logging.WithContext(ctx, e.logger)

	listing, err := e.primary.Season(ctx, show.IMDbID, season)
	if err != nil {
		e.warnSeasonFetch(ctx, err)
	} else {
		fetched = true
		skip, err := e.signatureUnchanged(ctx, show.ID, season, listing)
		if err != nil {
			return false, fetched, err
		}
		if skip {
			logger.Debug("season signature unchanged")
		} else {
			changed, err = e.reconcileSeason(ctx, show, season, listing)
			if err != nil {
				return changed, fetched, err
			}
		}
	}

	inserted, err := e.InjectPlaceholders(ctx, show, season)
	if err != nil {
		logger.Debug("catalog season unavailable", logging.Error(err))
	} else if inserted > 0 {
		logger.Info("placeholder episodes added",
			logging.String(logging.FieldEventType, "placeholders_added"),
			logging.Int("count", inserted),
		)
		changed = true
	}
	return changed, fetched, nil
}

func (e *Engine) signatureUnchanged(ctx context.Context, showID int64, season int, listing *omdb.Season) (bool, error) {
	stored, ok, err := e.store.Signature(ctx, showID, season)
	if err != nil || !ok || stored != QuickSignature(listing.Episodes) {
		return false, err
	}
	missing, err := e.store.HasMissing(ctx, showID, season)
	if err != nil {
		return false, err
	}
	return !missing, nil
}

// reconcileSeason applies a primary-source listing to the stored season:
// matching rows are updated and promoted, unknown keys are inserted.
func (e *Engine) reconcileSeason(ctx context.Context, show *store.Show, season int, listing *omdb.Season) (bool, error) {
	existing, err := e.seasonIndex(ctx, show.ID, season)
	if err != nil {
		return false, err
	}

	changed := false
	for _, entry := range listing.Episodes {
		number, ok := entry.Number()
		if !ok {
			continue
		}
		rating := entry.Rating()
		if rating == nil {
			rating = e.scrapeRating(ctx, entry.IMDbID)
		}

		ep, ok := existing[number]
		if !ok {
			ep = e.primaryEpisode(show.ID, season, number, entry, rating)
			created, err := e.store.InsertEpisode(ctx, ep)
			if err != nil {
				return changed, err
			}
			if created {
				changed = true
				existing[number] = ep
			}
			continue
		}

		if e.mergePrimary(ep, entry, rating) {
			changed = true
		}
		if err := e.store.UpdateEpisode(ctx, ep); err != nil {
			return changed, err
		}
	}

	if !changed {
		if _, ok, err := e.store.Signature(ctx, show.ID, season); err != nil || ok {
			return false, err
		}
	}
	if _, err := e.RecomputeSignature(ctx, show.ID, season); err != nil {
		return changed, err
	}
	return changed, nil
}

// mergePrimary folds a primary-source entry into a stored row and reports
// whether anything the signature depends on changed. Placeholders are
// promoted here and never demoted.
func (e *Engine) mergePrimary(ep *store.Episode, entry omdb.SeasonEpisode, rating *float64) bool {
	changed := false
	if rating != nil && !sameFloat(ep.Rating, rating) {
		ep.Rating = rating
		changed = true
	}
	if votes := entry.Votes(); votes != nil {
		ep.Votes = votes
	}
	now := e.timestamp()
	ep.LastChecked = &now
	ep.Missing = ep.Rating == nil

	if ep.Absent || ep.Provisional {
		ep.Absent = false
		ep.Provisional = false
		if id := presentOrEmpty(entry.IMDbID); textutil.IsEpisodeID(id) {
			ep.IMDbID = id
		}
		if title := presentOrEmpty(entry.Title); title != "" {
			ep.Title = title
		}
		changed = true
	}
	if ep.AirDate == nil {
		ep.AirDate = releasedDate(entry.Released)
	}
	return changed
}

// RefreshMetadata re-reads the primary-source show record and updates the
// mutable show fields. A show that is not stored is ErrNotFound; a primary
// source without data is ErrUpstreamUnavailable.
func (e *Engine) RefreshMetadata(ctx context.Context, imdbID string) error {
	ctx = services.WithShowID(ctx, imdbID)
	show, err := e.store.ShowByIMDbID(ctx, imdbID)
	if err != nil {
		return err
	}
	if show == nil {
		return notStored("refresh metadata", imdbID)
	}
	return e.UpdateMetadata(ctx, show)
}

// UpdateMetadata applies fresh primary-source metadata to a loaded show.
func (e *Engine) UpdateMetadata(ctx context.Context, show *store.Show) error {
	meta, err := e.primary.Show(ctx, show.IMDbID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return services.Wrap(services.ErrUpstreamUnavailable, "reconcile", "refresh metadata",
				"primary source returned no data: "+err.Error(), nil)
		}
		return err
	}
	applyMetadata(show, meta)
	show.LastUpdated = e.timestamp()
	if err := e.store.UpdateShow(ctx, show); err != nil {
		return err
	}
	logging.WithContext(ctx, e.logger).Debug("metadata refreshed", logging.Int("total_seasons", show.TotalSeasons))
	return nil
}

// applyMetadata overwrites mutable show fields. The season count only grows
// and absent values never erase stored ones.
func applyMetadata(show *store.Show, meta *omdb.Show) {
	if title := strings.TrimSpace(meta.Title); title != "" {
		show.Title = title
	}
	if genres := presentOrEmpty(meta.Genre); genres != "" {
		show.Genres = genres
	}
	if year := presentOrEmpty(meta.Year); year != "" {
		show.Year = year
	}
	if rating := meta.Rating(); rating != nil {
		show.Rating = rating
	}
	if votes := meta.Votes(); votes != nil {
		show.Votes = votes
	}
	if poster := meta.PosterURL(); poster != "" {
		show.Poster = poster
	}
	if seasons := meta.Seasons(); seasons > show.TotalSeasons {
		show.TotalSeasons = seasons
	}
}
