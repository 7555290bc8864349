package omdb

import (
	"strconv"
	"strings"

	"heatmap/internal/textutil"
)

// Show is the series record returned for i= and t= lookups.
type Show struct {
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Rated        string `json:"Rated,omitempty"`
	Released     string `json:"Released,omitempty"`
	Runtime      string `json:"Runtime,omitempty"`
	Genre        string `json:"Genre"`
	Director     string `json:"Director,omitempty"`
	Writer       string `json:"Writer,omitempty"`
	Actors       string `json:"Actors,omitempty"`
	Plot         string `json:"Plot"`
	Language     string `json:"Language,omitempty"`
	Country      string `json:"Country,omitempty"`
	Awards       string `json:"Awards,omitempty"`
	Poster       string `json:"Poster"`
	IMDbRating   string `json:"imdbRating"`
	IMDbVotes    string `json:"imdbVotes"`
	IMDbID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
	Response     string `json:"Response"`
	Error        string `json:"Error,omitempty"`
}

// Seasons parses totalSeasons, returning 0 when OMDb reports N/A.
func (s Show) Seasons() int {
	n, err := strconv.Atoi(strings.TrimSpace(s.TotalSeasons))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Rating parses the aggregate rating.
func (s Show) Rating() *float64 { return ParseRating(s.IMDbRating) }

// Votes parses the aggregate vote count.
func (s Show) Votes() *int64 { return ParseVotes(s.IMDbVotes) }

// PosterURL returns the poster unless OMDb reported N/A.
func (s Show) PosterURL() string {
	if strings.EqualFold(strings.TrimSpace(s.Poster), "n/a") {
		return ""
	}
	return strings.TrimSpace(s.Poster)
}

// SeasonEpisode is one row of a season listing.
type SeasonEpisode struct {
	Title      string `json:"Title"`
	Released   string `json:"Released"`
	Episode    string `json:"Episode"`
	IMDbRating string `json:"imdbRating"`
	IMDbVotes  string `json:"imdbVotes,omitempty"`
	IMDbID     string `json:"imdbID"`
}

// Number parses the episode number. Specials and unaired pilots listed as
// episode 0 are reported as not numbered.
func (e SeasonEpisode) Number() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(e.Episode))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Rating parses the episode rating.
func (e SeasonEpisode) Rating() *float64 { return ParseRating(e.IMDbRating) }

// Votes parses the episode vote count.
func (e SeasonEpisode) Votes() *int64 { return ParseVotes(e.IMDbVotes) }

// Season is a season listing.
type Season struct {
	Title        string          `json:"Title"`
	Season       string          `json:"Season"`
	TotalSeasons string          `json:"totalSeasons"`
	Episodes     []SeasonEpisode `json:"Episodes"`
	Response     string          `json:"Response"`
	Error        string          `json:"Error,omitempty"`
}

// SearchResult is one search hit.
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

type searchResponse struct {
	Search       []SearchResult `json:"Search"`
	TotalResults string         `json:"totalResults"`
	Response     string         `json:"Response"`
	Error        string         `json:"Error,omitempty"`
}

// ParseRating reads an OMDb rating string such as "8.4" or "N/A".
func ParseRating(value string) *float64 {
	return textutil.ParseFloat(value)
}

// ParseVotes reads an OMDb vote string such as "1,234" or "N/A".
func ParseVotes(value string) *int64 {
	return textutil.ParseCount(value)
}
