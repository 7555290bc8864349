package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"heatmap/internal/api"
	"heatmap/internal/maintenance"
	"heatmap/internal/omdb"
	"heatmap/internal/reconcile"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// APIError is a non-2xx daemon response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.Status)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Client talks to a running heatmapd over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a client for the daemon listening on bind. A bind without
// a host, or bound to every interface, is reached via loopback.
func NewClient(bind string, opts ...ClientOption) (*Client, error) {
	base, err := baseURLFromBind(bind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func baseURLFromBind(bind string) (string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", errors.New("daemon bind address is empty")
	}
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/"), nil
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", fmt.Errorf("parse daemon bind %q: %w", bind, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// BaseURL returns the daemon root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status returns the daemon runtime report.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetShow fetches, ingesting on first use, the stored view of a show.
func (c *Client) GetShow(ctx context.Context, imdbID string, trackView bool) (*api.ShowView, error) {
	query := url.Values{"imdbID": {imdbID}}
	if !trackView {
		query.Set("trackView", "0")
	}
	var view api.ShowView
	if err := c.do(ctx, http.MethodGet, "/getShow", query, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ShowMeta returns the lightweight show header.
func (c *Client) ShowMeta(ctx context.Context, imdbID string) (*api.ShowMeta, error) {
	var meta api.ShowMeta
	if err := c.do(ctx, http.MethodGet, "/getShowMeta", url.Values{"imdbID": {imdbID}}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LookupByTitle resolves a show by exact title.
func (c *Client) LookupByTitle(ctx context.Context, title string) (*omdb.Show, error) {
	var show omdb.Show
	if err := c.do(ctx, http.MethodGet, "/getShowByTitle", url.Values{"title": {title}}, &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// Search runs a series search.
func (c *Client) Search(ctx context.Context, q string, page int) ([]api.SearchResult, error) {
	query := url.Values{"q": {q}}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	var results []api.SearchResult
	if err := c.do(ctx, http.MethodGet, "/search", query, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Trending returns the catalog popularity chart.
func (c *Client) Trending(ctx context.Context) ([]api.TrendingShow, error) {
	var shows []api.TrendingShow
	if err := c.do(ctx, http.MethodGet, "/trending", nil, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// Popular returns the most viewed stored shows.
func (c *Client) Popular(ctx context.Context, limit int) ([]api.PopularShow, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var shows []api.PopularShow
	if err := c.do(ctx, http.MethodGet, "/popular", query, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// RefreshMissing re-checks only episodes without a rating.
func (c *Client) RefreshMissing(ctx context.Context, imdbID string) (reconcile.MissingResult, error) {
	var result reconcile.MissingResult
	err := c.do(ctx, http.MethodPost, "/refresh/missing", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// RefreshShow re-reads every season of a show.
func (c *Client) RefreshShow(ctx context.Context, imdbID string) (reconcile.RefreshResult, error) {
	var result reconcile.RefreshResult
	err := c.do(ctx, http.MethodPost, "/refresh/show", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// RefreshMetadata updates show-level fields only.
func (c *Client) RefreshMetadata(ctx context.Context, imdbID string) (api.MetadataResult, error) {
	var result api.MetadataResult
	err := c.do(ctx, http.MethodPost, "/refresh/metadata", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// Remove deletes a stored show and its episodes.
func (c *Client) Remove(ctx context.Context, imdbID string) (api.RemoveResult, error) {
	var result api.RemoveResult
	err := c.do(ctx, http.MethodDelete, "/remove", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// ScrapeRating scrapes one title rating, bypassing the store.
func (c *Client) ScrapeRating(ctx context.Context, imdbID string) (api.RatingDebug, error) {
	var result api.RatingDebug
	err := c.do(ctx, http.MethodGet, "/debug/scrapeRating", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// ClearSeasonCache drops cached catalog seasons of a show.
func (c *Client) ClearSeasonCache(ctx context.Context, imdbID string) (api.ClearCacheResult, error) {
	var result api.ClearCacheResult
	err := c.do(ctx, http.MethodGet, "/debug/clearSeasonCache", url.Values{"imdbID": {imdbID}}, &result)
	return result, err
}

// ParseSeason parses one catalog season page fresh.
func (c *Client) ParseSeason(ctx context.Context, imdbID string, season int) (api.SeasonDebug, error) {
	var result api.SeasonDebug
	query := url.Values{"imdbID": {imdbID}, "season": {strconv.Itoa(season)}}
	err := c.do(ctx, http.MethodGet, "/debug/parseSeason", query, &result)
	return result, err
}

// RunMaintenance triggers one staleness sweep and waits for its summary.
func (c *Client) RunMaintenance(ctx context.Context) (maintenance.Summary, error) {
	var summary maintenance.Summary
	err := c.do(ctx, http.MethodPost, "/maintenance/run", nil, &summary)
	return summary, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isDaemonUnavailable(err) {
			return fmt.Errorf("%w at %s", ErrDaemonNotRunning, c.baseURL)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

// IsNotFound reports whether err is a daemon 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
