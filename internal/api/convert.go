package api

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/reconcile"
	"heatmap/internal/store"
)

// ViewFlags carries the runtime indicators that are not stored with a show.
type ViewFlags struct {
	Enriching      bool
	RefreshMissing bool
}

// FromShow converts a stored show and its episodes into a ShowView.
func FromShow(show *store.Show, episodes []*store.Episode, flags ViewFlags, policy reconcile.Staleness, now time.Time) ShowView {
	view := ShowView{
		IMDbID:                   show.IMDbID,
		Title:                    show.Title,
		Year:                     show.Year,
		Genres:                   show.GenreList(),
		Rating:                   show.Rating,
		Votes:                    show.Votes,
		Poster:                   show.Poster,
		TotalSeasons:             show.TotalSeasons,
		ViewCount:                show.ViewCount,
		LastUpdated:              formatTimestamp(show.LastUpdated),
		Episodes:                 make([]EpisodeView, 0, len(episodes)),
		PartialData:              flags.Enriching,
		MissingRefreshInProgress: flags.RefreshMissing,
		MetadataStale:            policy.ShowStale(show, now),
		EpisodesStaleCount:       len(policy.StaleEpisodes(episodes, now)),
	}
	if view.Genres == nil {
		view.Genres = []string{}
	}
	if show.LastFullRefresh != nil {
		view.LastFullRefresh = formatTimestamp(*show.LastFullRefresh)
	}

	seasons := make(map[int]struct{})
	for _, ep := range episodes {
		view.Episodes = append(view.Episodes, FromEpisode(ep))
		seasons[ep.Season] = struct{}{}
		if ep.Rating == nil {
			view.Incomplete = true
		}
	}
	if len(seasons) < show.TotalSeasons {
		view.Incomplete = true
	}
	view.ETag = showETag(view)
	return view
}

// FromEpisode converts a stored episode.
func FromEpisode(ep *store.Episode) EpisodeView {
	view := EpisodeView{
		Season:      ep.Season,
		Episode:     ep.Number,
		Title:       ep.Title,
		Rating:      ep.Rating,
		Votes:       ep.Votes,
		IMDbID:      ep.IMDbID,
		Missing:     ep.Missing,
		Absent:      ep.Absent,
		Provisional: ep.Provisional,
	}
	if ep.AirDate != nil {
		view.AirDate = ep.AirDate.Format(airDateFormat)
	}
	if ep.LastChecked != nil {
		view.LastChecked = formatTimestamp(*ep.LastChecked)
	}
	return view
}

// FromParsedEpisodes converts catalog rows for the season debug view.
func FromParsedEpisodes(episodes []extract.Episode) []ParsedEpisode {
	out := make([]ParsedEpisode, 0, len(episodes))
	for _, ep := range episodes {
		parsed := ParsedEpisode{
			Season:    ep.Season,
			Episode:   ep.Number,
			Title:     ep.Title,
			Rating:    ep.Rating,
			Votes:     ep.Votes,
			EpisodeID: ep.EpisodeID,
		}
		if ep.AirDate != nil {
			parsed.AirDate = ep.AirDate.Format(airDateFormat)
		}
		out = append(out, parsed)
	}
	return out
}

// FromHealth converts a store health report.
func FromHealth(health store.Health) DatabaseStatus {
	return DatabaseStatus{
		Path:          health.DatabasePath,
		Readable:      health.DatabaseReadable,
		SchemaVersion: health.SchemaVersion,
		Shows:         health.Shows,
		Episodes:      health.Episodes,
		Unrated:       health.Unrated,
		Placeholders:  health.Placeholders,
		Error:         health.Error,
	}
}

// showETag fingerprints the parts of a view that change when a client should
// re-render: lastUpdated, the episode count and the progress flags.
func showETag(view ShowView) string {
	rated := 0
	for _, ep := range view.Episodes {
		if ep.Rating != nil {
			rated++
		}
	}
	sum := sha1.Sum(fmt.Appendf(nil, "%s|%s|%d|%d|%t|%t|%t",
		view.IMDbID, view.LastUpdated, len(view.Episodes), rated,
		view.PartialData, view.MissingRefreshInProgress, view.MetadataStale))
	return `W/"` + hex.EncodeToString(sum[:8]) + `"`
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
