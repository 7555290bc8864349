package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"heatmap/internal/omdb"
)

// Upstream serves canned OMDb JSON and IMDb HTML from two httptest servers.
type Upstream struct {
	mu       sync.Mutex
	shows    map[string]omdb.Show
	seasons  map[string]omdb.Season
	searches map[string][]omdb.SearchResult
	pages    map[string]string
	hits     map[string]int
	failOMDb bool

	omdbServer *httptest.Server
	imdbServer *httptest.Server
}

// NewUpstream starts both stub servers and closes them on cleanup.
func NewUpstream(t testing.TB) *Upstream {
	t.Helper()

	u := &Upstream{
		shows:    map[string]omdb.Show{},
		seasons:  map[string]omdb.Season{},
		searches: map[string][]omdb.SearchResult{},
		pages:    map[string]string{},
		hits:     map[string]int{},
	}
	u.omdbServer = httptest.NewServer(http.HandlerFunc(u.serveOMDb))
	u.imdbServer = httptest.NewServer(http.HandlerFunc(u.serveIMDb))
	t.Cleanup(func() {
		u.omdbServer.Close()
		u.imdbServer.Close()
	})
	return u
}

// OMDbURL returns the OMDb stub base URL.
func (u *Upstream) OMDbURL() string { return u.omdbServer.URL + "/" }

// IMDbURL returns the IMDb stub base URL.
func (u *Upstream) IMDbURL() string { return u.imdbServer.URL }

// SetShow registers a series record. Response is forced to "True".
func (u *Upstream) SetShow(show omdb.Show) {
	u.mu.Lock()
	defer u.mu.Unlock()
	show.Response = "True"
	if show.Type == "" {
		show.Type = "series"
	}
	u.shows[show.IMDbID] = show
}

// SetSeason registers a season listing for a show.
func (u *Upstream) SetSeason(imdbID string, season int, episodes ...omdb.SeasonEpisode) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seasons[seasonPath(imdbID, season)] = omdb.Season{
		Season:   strconv.Itoa(season),
		Episodes: episodes,
		Response: "True",
	}
}

// SetSearch registers search hits for a query.
func (u *Upstream) SetSearch(query string, results ...omdb.SearchResult) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.searches[strings.ToLower(query)] = results
}

// FailOMDb makes every OMDb request answer 503.
func (u *Upstream) FailOMDb(fail bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failOMDb = fail
}

// SetPage registers an IMDb page body. The key is the request path plus the
// raw query when present, for example "/title/tt1/episodes/?season=1".
func (u *Upstream) SetPage(pathAndQuery, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pages[pathAndQuery] = body
}

// SetSeasonPage registers an IMDb season listing page.
func (u *Upstream) SetSeasonPage(imdbID string, season int, episodes ...PageEpisode) {
	u.SetPage(fmt.Sprintf("/title/%s/episodes/?season=%d", imdbID, season), SeasonPage(season, episodes...))
}

// SetRatingPage registers an IMDb title page carrying a JSON-LD rating.
func (u *Upstream) SetRatingPage(titleID, rating string) {
	body := fmt.Sprintf(`<html><head><script type="application/ld+json">{"aggregateRating":{"ratingValue":%q}}</script></head><body></body></html>`, rating)
	u.SetPage(fmt.Sprintf("/title/%s/", titleID), body)
}

// Hits returns how many requests reached the key, which is "omdb:<params>"
// for OMDb requests or the IMDb path plus query.
func (u *Upstream) Hits(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

func (u *Upstream) serveOMDb(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.failOMDb {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	var payload any
	switch {
	case q.Get("s") != "":
		u.hits["omdb:s="+strings.ToLower(q.Get("s"))]++
		results, ok := u.searches[strings.ToLower(q.Get("s"))]
		if !ok {
			payload = map[string]string{"Response": "False", "Error": "Series not found!"}
			break
		}
		payload = map[string]any{"Search": results, "totalResults": strconv.Itoa(len(results)), "Response": "True"}
	case q.Get("t") != "":
		u.hits["omdb:t="+strings.ToLower(q.Get("t"))]++
		payload = map[string]string{"Response": "False", "Error": "Series not found!"}
		for _, show := range u.shows {
			if strings.EqualFold(show.Title, q.Get("t")) {
				payload = show
				break
			}
		}
	case q.Get("season") != "":
		season, _ := strconv.Atoi(q.Get("season"))
		key := seasonPath(q.Get("i"), season)
		u.hits["omdb:"+key]++
		if listing, ok := u.seasons[key]; ok {
			payload = listing
		} else {
			payload = map[string]string{"Response": "False", "Error": "Series or season not found!"}
		}
	default:
		u.hits["omdb:i="+q.Get("i")]++
		if show, ok := u.shows[q.Get("i")]; ok {
			payload = show
		} else {
			payload = map[string]string{"Response": "False", "Error": "Incorrect IMDb ID."}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (u *Upstream) serveIMDb(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	u.mu.Lock()
	u.hits[key]++
	body, ok := u.pages[key]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func seasonPath(imdbID string, season int) string {
	return fmt.Sprintf("i=%s&season=%d", imdbID, season)
}

// PageEpisode is one card rendered by SeasonPage.
type PageEpisode struct {
	Number  int
	Title   string
	ID      string
	Rating  string
	Votes   string
	AirDate string
}

// SeasonPage renders an episodes listing in the data-testid card markup.
func SeasonPage(season int, episodes ...PageEpisode) string {
	var b strings.Builder
	b.WriteString(`<html><body><div data-testid="episodes-list">`)
	for _, ep := range episodes {
		b.WriteString(`<div data-testid="episodes-list-item">`)
		fmt.Fprintf(&b, `<span>S%d.E%d</span>`, season, ep.Number)
		if ep.ID != "" {
			fmt.Fprintf(&b, `<a href="/title/%s/">%s</a>`, ep.ID, ep.Title)
		}
		if ep.Rating != "" {
			b.WriteString(`<div data-testid="ratingGroup--container">`)
			fmt.Fprintf(&b, `<span class="ipc-rating-star--rating">%s</span>`, ep.Rating)
			if ep.Votes != "" {
				fmt.Fprintf(&b, `<span class="voteCount">(%s)</span>`, ep.Votes)
			}
			b.WriteString(`</div>`)
		}
		if ep.AirDate != "" {
			fmt.Fprintf(&b, `<span>%s</span>`, ep.AirDate)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}
