package store

import (
	"time"

	"heatmap/internal/textutil"
)

// Show is a stored series record keyed by its IMDb id.
type Show struct {
	ID              int64
	IMDbID          string
	Title           string
	Year            string
	Genres          string
	TotalSeasons    int
	Rating          *float64
	Votes           *int64
	Poster          string
	ViewCount       int64
	LastFullRefresh *time.Time
	LastUpdated     time.Time
	CreatedAt       time.Time
}

// GenreList splits the stored genre string.
func (s *Show) GenreList() []string {
	if s == nil {
		return nil
	}
	return textutil.SplitGenres(s.Genres)
}

// Episode is a stored episode row. The (ShowID, Season, Number) triple is
// unique.
type Episode struct {
	ID          int64
	ShowID      int64
	Season      int
	Number      int
	Title       string
	Rating      *float64
	Votes       *int64
	IMDbID      string
	AirDate     *time.Time
	LastChecked *time.Time
	Missing     bool
	Absent      bool
	Provisional bool
}

// Confirmed reports whether the primary source has vouched for the episode.
func (e *Episode) Confirmed() bool {
	return e != nil && !e.Absent && !e.Provisional
}

// Key returns the (season, episode) identity within the show.
func (e *Episode) Key() EpisodeKey {
	return EpisodeKey{Season: e.Season, Number: e.Number}
}

// EpisodeKey identifies an episode within one show.
type EpisodeKey struct {
	Season int
	Number int
}

// SeasonSignature is the last computed fingerprint for a season.
type SeasonSignature struct {
	ShowID     int64
	Season     int
	Signature  string
	ComputedAt time.Time
}
