package extract

import "time"

// UnknownTitle is used when a page offers no title for an episode.
const UnknownTitle = "Unknown"

// Episode is a season-page row normalized across tiers.
type Episode struct {
	Season    int
	Number    int
	Title     string
	Rating    *float64
	Votes     *int64
	AirDate   *time.Time
	EpisodeID string
}

// Stats summarizes a tier's output for acceptance checks and debug views.
type Stats struct {
	Count         int
	Rated         int
	WithVotes     int
	UnknownTitles int
}

// Summarize counts rated, voted and unnamed episodes.
func Summarize(episodes []Episode) Stats {
	stats := Stats{Count: len(episodes)}
	for _, ep := range episodes {
		if ep.Rating != nil {
			stats.Rated++
		}
		if ep.Votes != nil {
			stats.WithVotes++
		}
		if ep.Title == UnknownTitle {
			stats.UnknownTitles++
		}
	}
	return stats
}
