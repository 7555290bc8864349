package reconcile

import (
	"time"

	"heatmap/internal/store"
)

const (
	defaultShowStaleAfter    = 7 * 24 * time.Hour
	defaultEpisodeStaleAfter = 30 * 24 * time.Hour
)

// Staleness decides when stored data is due for a re-fetch.
type Staleness struct {
	ShowAfter    time.Duration
	EpisodeAfter time.Duration
}

// DefaultStaleness returns the 7 day show and 30 day episode policy.
func DefaultStaleness() Staleness {
	return Staleness{ShowAfter: defaultShowStaleAfter, EpisodeAfter: defaultEpisodeStaleAfter}
}

// ShowStale reports whether the show has never been fully refreshed or was
// last fully refreshed longer ago than ShowAfter.
func (s Staleness) ShowStale(show *store.Show, now time.Time) bool {
	if show.LastFullRefresh == nil {
		return true
	}
	return now.Sub(*show.LastFullRefresh) > s.showAfter()
}

// EpisodeStale reports whether the episode has no rating, was never checked,
// or was last checked longer ago than EpisodeAfter.
func (s Staleness) EpisodeStale(ep *store.Episode, now time.Time) bool {
	if ep.Rating == nil || ep.LastChecked == nil {
		return true
	}
	return now.Sub(*ep.LastChecked) > s.episodeAfter()
}

// StaleEpisodes filters episodes by EpisodeStale.
func (s Staleness) StaleEpisodes(episodes []*store.Episode, now time.Time) []*store.Episode {
	var out []*store.Episode
	for _, ep := range episodes {
		if s.EpisodeStale(ep, now) {
			out = append(out, ep)
		}
	}
	return out
}

func (s Staleness) showAfter() time.Duration {
	if s.ShowAfter <= 0 {
		return defaultShowStaleAfter
	}
	return s.ShowAfter
}

func (s Staleness) episodeAfter() time.Duration {
	if s.EpisodeAfter <= 0 {
		return defaultEpisodeStaleAfter
	}
	return s.EpisodeAfter
}
