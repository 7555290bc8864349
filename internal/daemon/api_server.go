package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"heatmap/internal/api"
	"heatmap/internal/config"
	"heatmap/internal/logging"
)

var errMaintenanceDisabled = errors.New("maintenance loop is disabled")

type errorBody struct {
	Error string `json:"error"`
}

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	service *api.ShowService
	limiter *ipRateLimiter

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    cfg.Paths.APIBind,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		service: d.parts.Service,
		limiter: newIPRateLimiter(cfg.API.RatePerMinute, cfg.API.Burst),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Full-path ingestion of a long show scrapes every unrated episode.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestContext(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/status", s.handleStatus)
	r.Post("/maintenance/run", s.handleMaintenanceRun)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)

		r.Get("/getShow", s.handleGetShow)
		r.Get("/getShowMeta", s.handleShowMeta)
		r.Get("/getShowByTitle", s.handleShowByTitle)
		r.Get("/search", s.handleSearch)
		r.Get("/trending", s.handleTrending)
		r.Get("/popular", s.handlePopular)

		r.Route("/refresh", func(r chi.Router) {
			r.Post("/missing", s.handleRefreshMissing)
			r.Post("/show", s.handleRefreshShow)
			r.Post("/metadata", s.handleRefreshMetadata)
		})
		r.Post("/remove", s.handleRemove)
		r.Delete("/remove", s.handleRemove)

		r.Route("/debug", func(r chi.Router) {
			r.Get("/scrapeRating", s.handleScrapeRating)
			r.Get("/clearSeasonCache", s.handleClearSeasonCache)
			r.Get("/parseSeason", s.handleParseSeason)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.api_bind"),
				logging.String(logging.FieldImpact, "HTTP API unavailable until restart"),
			)
		}
	}()
	if s.limiter != nil {
		go s.limiter.run(ctx)
	}

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
