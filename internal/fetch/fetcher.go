package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"heatmap/internal/logging"
	"heatmap/internal/services"
)

// Class identifies an upstream host class with its own throttle.
type Class int

const (
	// ClassAPI is the structured primary-source API.
	ClassAPI Class = iota
	// ClassCatalog is the HTML catalog scraped as the secondary source.
	ClassCatalog
)

func (c Class) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassCatalog:
		return "catalog"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

const (
	defaultAPIInterval     = 250 * time.Millisecond
	defaultCatalogInterval = 500 * time.Millisecond
	defaultTimeout         = 10 * time.Second
	maxBodyBytes           = 16 << 20
)

// Response is a fully buffered upstream reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// OK reports whether the upstream answered 200.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}

// Doer is the subset of the fetcher used by upstream clients.
type Doer interface {
	Get(ctx context.Context, class Class, rawURL string, headers map[string]string) (*Response, error)
}

// Fetcher issues throttled GET requests per upstream class.
type Fetcher struct {
	httpClient *http.Client
	throttles  map[Class]*Throttle
	timeouts   map[Class]time.Duration
	headers    map[Class]map[string]string
	logger     *slog.Logger
}

var _ Doer = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithInterval sets the minimum spacing between requests of a class.
func WithInterval(class Class, interval time.Duration) Option {
	return func(f *Fetcher) {
		f.throttles[class] = NewThrottle(interval)
	}
}

// WithTimeout sets the per-request timeout of a class.
func WithTimeout(class Class, timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeouts[class] = timeout
		}
	}
}

// WithHeader adds a header sent on every request of a class.
func WithHeader(class Class, key, value string) Option {
	return func(f *Fetcher) {
		if strings.TrimSpace(value) == "" {
			return
		}
		if f.headers[class] == nil {
			f.headers[class] = map[string]string{}
		}
		f.headers[class][key] = value
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// New creates a Fetcher with one throttle per class.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{},
		throttles: map[Class]*Throttle{
			ClassAPI:     NewThrottle(defaultAPIInterval),
			ClassCatalog: NewThrottle(defaultCatalogInterval),
		},
		timeouts: map[Class]time.Duration{
			ClassAPI:     defaultTimeout,
			ClassCatalog: defaultTimeout,
		},
		headers: map[Class]map[string]string{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get performs a throttled GET. Transport failures are returned as
// services.ErrUpstreamUnavailable; any HTTP status is returned as a Response.
func (f *Fetcher) Get(ctx context.Context, class Class, rawURL string, headers map[string]string) (*Response, error) {
	throttle, ok := f.throttles[class]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "get", fmt.Sprintf("unknown upstream class %s", class), nil)
	}

	var resp *Response
	err := throttle.Do(ctx, func() error {
		var doErr error
		resp, doErr = f.do(ctx, class, rawURL, headers)
		return doErr
	})
	if err != nil {
		logging.WithContext(ctx, f.logger).Debug("upstream request failed",
			logging.String("class", class.String()),
			logging.String("url", redact(rawURL)),
			logging.Error(err),
		)
		return nil, err
	}
	logging.WithContext(ctx, f.logger).Debug("upstream request",
		logging.String("class", class.String()),
		logging.String("url", redact(rawURL)),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", resp.Latency),
	)
	return resp, nil
}

func (f *Fetcher) do(ctx context.Context, class Class, rawURL string, headers map[string]string) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeouts[class])
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", "build request", "", err)
	}
	for key, value := range f.headers[class] {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	requestStart := time.Now()
	httpResp, err := f.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstreamUnavailable, "fetch", class.String(), fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrUpstreamUnavailable, "fetch", class.String(), "read body", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Latency:    time.Since(requestStart),
	}, nil
}

// redact strips the query string so API keys never reach the logs.
func redact(rawURL string) string {
	if idx := strings.IndexByte(rawURL, '?'); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}
