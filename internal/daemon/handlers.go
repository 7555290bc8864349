package daemon

import (
	"net/http"
	"strconv"
	"strings"

	"heatmap/internal/logging"
	"heatmap/internal/services"
)

func (s *apiServer) handleGetShow(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	trackView := query.Get("trackView") != "0"
	view, err := s.service.GetOrIngestShow(r.Context(), query.Get("imdbID"), trackView)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", view.ETag)
	if etagMatches(r.Header.Get("If-None-Match"), view.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *apiServer) handleShowMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.service.ShowMeta(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=30")
	writeJSON(w, http.StatusOK, meta)
}

func (s *apiServer) handleShowByTitle(w http.ResponseWriter, r *http.Request) {
	show, err := s.service.LookupByTitle(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	results, err := s.service.Search(r.Context(), query.Get("q"), intParam(query.Get("page"), 1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *apiServer) handleTrending(w http.ResponseWriter, r *http.Request) {
	shows, err := s.service.Trending(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *apiServer) handlePopular(w http.ResponseWriter, r *http.Request) {
	shows, err := s.service.Popular(r.Context(), intParam(r.URL.Query().Get("limit"), 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *apiServer) handleRefreshMissing(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RefreshMissing(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRefreshShow(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RefreshShow(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRefreshMetadata(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RefreshMetadata(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RemoveShow(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleScrapeRating(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ScrapeRatingDebug(r.Context(), r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleClearSeasonCache(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ClearSeasonCache(r.URL.Query().Get("imdbID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleParseSeason(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := s.service.ParseSeasonDebug(r.Context(), query.Get("imdbID"), intParam(query.Get("season"), 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleMaintenanceRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.daemon.RunMaintenance(r.Context())
	if err != nil {
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeError maps classified errors to a status and logs server-side failures.
func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldImpact, "caller received an error response"),
		)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// etagMatches implements the If-None-Match comparison, which may list several
// tags or "*".
func etagMatches(header, etag string) bool {
	if etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
