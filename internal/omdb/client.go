package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"heatmap/internal/fetch"
	"heatmap/internal/services"
)

const maxSearchResults = 10

// API is the OMDb surface used by reconciliation and the API layer.
type API interface {
	Show(ctx context.Context, imdbID string) (*Show, error)
	Season(ctx context.Context, imdbID string, season int) (*Season, error)
	Search(ctx context.Context, query string, page int) ([]SearchResult, error)
	ByTitle(ctx context.Context, title string) (*Show, error)
}

// Client provides access to the OMDb API.
type Client struct {
	apiKey  string
	baseURL string
	fetcher fetch.Doer
}

var _ API = (*Client)(nil)

// New creates an OMDb client.
func New(fetcher fetch.Doer, apiKey, baseURL string) (*Client, error) {
	if fetcher == nil {
		return nil, errors.New("omdb fetcher required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "omdb", "new", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "omdb", "new", "base url required", nil)
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, fetcher: fetcher}, nil
}

// Show looks up a series by IMDb id.
func (c *Client) Show(ctx context.Context, imdbID string) (*Show, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	var show Show
	if err := c.get(ctx, "show", params, &show); err != nil {
		return nil, err
	}
	if show.Response != "True" {
		return nil, notFound("show", imdbID, show.Error)
	}
	return &show, nil
}

// ByTitle looks up a series by exact title.
func (c *Client) ByTitle(ctx context.Context, title string) (*Show, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "omdb", "by title", "title must not be empty", nil)
	}
	params := url.Values{}
	params.Set("t", title)
	var show Show
	if err := c.get(ctx, "by title", params, &show); err != nil {
		return nil, err
	}
	if show.Response != "True" {
		return nil, notFound("by title", title, show.Error)
	}
	return &show, nil
}

// Season fetches one season's episode list.
func (c *Client) Season(ctx context.Context, imdbID string, season int) (*Season, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("season", strconv.Itoa(season))
	var payload Season
	if err := c.get(ctx, "season", params, &payload); err != nil {
		return nil, err
	}
	if payload.Response != "True" {
		return nil, notFound("season", fmt.Sprintf("%s season %d", imdbID, season), payload.Error)
	}
	return &payload, nil
}

// Search runs a series search and returns at most ten hits. OMDb's
// "not found" answer is an empty result, not an error.
func (c *Client) Search(ctx context.Context, query string, page int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("s", query)
	params.Set("type", "series")
	params.Set("page", strconv.Itoa(page))
	var payload searchResponse
	if err := c.get(ctx, "search", params, &payload); err != nil {
		return nil, err
	}
	if payload.Response != "True" {
		return []SearchResult{}, nil
	}
	results := payload.Search
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, operation string, params url.Values, target any) error {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "omdb", operation, "parse base url", err)
	}
	params.Set("apikey", c.apiKey)
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Get(ctx, fetch.ClassAPI, endpoint.String(), nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return services.Wrap(services.ErrUpstreamUnavailable, "omdb", operation,
			fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, resp.Latency), nil)
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return services.Wrap(services.ErrParseFailure, "omdb", operation, "decode response", err)
	}
	return nil
}

func notFound(operation, subject, upstreamMessage string) error {
	message := subject
	if upstreamMessage = strings.TrimSpace(upstreamMessage); upstreamMessage != "" {
		message = subject + ": " + upstreamMessage
	}
	return services.Wrap(services.ErrNotFound, "omdb", operation, message, nil)
}
