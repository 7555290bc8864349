package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// airDateFormat is used for episode air dates.
const airDateFormat = "2006-01-02"

// ShowView is a stored show in a transport-friendly format.
type ShowView struct {
	IMDbID                   string        `json:"imdbID"`
	Title                    string        `json:"title"`
	Year                     string        `json:"year,omitempty"`
	Genres                   []string      `json:"genres"`
	Rating                   *float64      `json:"rating"`
	Votes                    *int64        `json:"votes"`
	Poster                   string        `json:"poster,omitempty"`
	TotalSeasons             int           `json:"totalSeasons"`
	ViewCount                int64         `json:"viewCount"`
	LastUpdated              string        `json:"lastUpdated,omitempty"`
	LastFullRefresh          string        `json:"lastFullRefresh,omitempty"`
	Episodes                 []EpisodeView `json:"episodes"`
	PartialData              bool          `json:"partialData"`
	MissingRefreshInProgress bool          `json:"missingRefreshInProgress"`
	MetadataStale            bool          `json:"metadataStale"`
	EpisodesStaleCount       int           `json:"episodesStaleCount"`
	Incomplete               bool          `json:"incomplete"`

	// ETag is sent as a response header, not in the body.
	ETag string `json:"-"`
}

// EpisodeView is one episode of a ShowView.
type EpisodeView struct {
	Season      int      `json:"season"`
	Episode     int      `json:"episode"`
	Title       string   `json:"title"`
	Rating      *float64 `json:"rating"`
	Votes       *int64   `json:"votes"`
	IMDbID      string   `json:"imdbId,omitempty"`
	AirDate     string   `json:"airDate,omitempty"`
	Missing     bool     `json:"missing"`
	Absent      bool     `json:"absent"`
	Provisional bool     `json:"provisional"`
	LastChecked string   `json:"lastChecked,omitempty"`
}

// SearchResult is one series search hit.
type SearchResult struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"type"`
}

// ShowMeta is the lightweight header used by show pages before the full
// episode list loads.
type ShowMeta struct {
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Poster       string `json:"Poster"`
	Plot         string `json:"Plot"`
	IMDbID       string `json:"imdbID"`
	TotalSeasons string `json:"totalSeasons"`
}

// TrendingShow is one entry of the catalog popularity chart.
type TrendingShow struct {
	IMDbID     string   `json:"imdbID"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	IMDbRating *float64 `json:"imdbRating"`
	Poster     string   `json:"poster,omitempty"`
}

// PopularShow is one of the most viewed stored shows.
type PopularShow struct {
	IMDbID     string   `json:"imdbID"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	IMDbRating *float64 `json:"imdbRating"`
	Genres     string   `json:"genres,omitempty"`
	Poster     string   `json:"poster,omitempty"`
}

// MetadataResult is returned by a metadata-only refresh.
type MetadataResult struct {
	Status string `json:"status"`
}

// RemoveResult is returned when a stored show is deleted.
type RemoveResult struct {
	Removed bool `json:"removed"`
}

// ClearCacheResult reports how many cached seasons were dropped.
type ClearCacheResult struct {
	Cleared int `json:"cleared"`
}

// RatingDebug reports a single-title rating scrape.
type RatingDebug struct {
	IMDbID        string   `json:"imdbID"`
	ScrapedRating *float64 `json:"scrapedRating"`
}

// SeasonDebug reports a fresh parse of one catalog season page.
type SeasonDebug struct {
	IMDbID    string          `json:"imdbID"`
	Season    int             `json:"season"`
	Count     int             `json:"count"`
	Episodes  []ParsedEpisode `json:"episodes"`
	Rated     int             `json:"rated"`
	WithVotes int             `json:"withVotes"`
}

// ParsedEpisode is one row of a SeasonDebug.
type ParsedEpisode struct {
	Season    int      `json:"season"`
	Episode   int      `json:"episode"`
	Title     string   `json:"title"`
	Rating    *float64 `json:"rating"`
	Votes     *int64   `json:"votes"`
	AirDate   string   `json:"airDate,omitempty"`
	EpisodeID string   `json:"imdbEpisodeId,omitempty"`
}

// DatabaseStatus summarizes the store for status reports.
type DatabaseStatus struct {
	Path          string `json:"path"`
	Readable      bool   `json:"readable"`
	SchemaVersion int    `json:"schemaVersion,omitempty"`
	Shows         int    `json:"shows"`
	Episodes      int    `json:"episodes"`
	Unrated       int    `json:"unrated"`
	Placeholders  int    `json:"placeholders"`
	Error         string `json:"error,omitempty"`
}

// MaintenanceStatus summarizes the staleness sweep.
type MaintenanceStatus struct {
	Enabled          bool   `json:"enabled"`
	Running          bool   `json:"running"`
	LastRun          string `json:"lastRun,omitempty"`
	Shows            int    `json:"shows"`
	MetadataRefresh  int    `json:"metadataRefreshed"`
	EpisodesResolved int    `json:"episodesResolved"`
	Failures         int    `json:"failures"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool              `json:"running"`
	PID            int               `json:"pid"`
	Bind           string            `json:"bind"`
	LockFilePath   string            `json:"lockFilePath"`
	LogPath        string            `json:"logPath,omitempty"`
	FastIngest     bool              `json:"fastIngest"`
	EnrichmentJobs int               `json:"enrichmentJobs"`
	Database       DatabaseStatus    `json:"database"`
	Maintenance    MaintenanceStatus `json:"maintenance"`
}
