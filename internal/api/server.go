package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"drivetime/internal/core"
	"drivetime/internal/grid"
	"drivetime/internal/logging"
	"drivetime/internal/orchestrator"
	"drivetime/internal/series"
)

// Server exposes the Service over HTTP.
type Server struct {
	svc *Service
	log *slog.Logger
	mux *http.ServeMux
}

func NewServer(svc *Service, log *slog.Logger) *Server {
	s := &Server{svc: svc, log: log, mux: http.NewServeMux()}
	s.registerHandlers()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.mux)
}

func (s *Server) registerHandlers() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /v1/geocode", s.handleGeocode)
	s.mux.HandleFunc("POST /v1/series", s.handleSeries)
	s.mux.HandleFunc("POST /v1/staticmap", s.handleStaticMap)
}

// withRequestLog tags every request with an ID and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		log := s.log.With("request_id", reqID, "method", r.Method, "path", r.URL.Path)
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logging.NewContext(r.Context(), log)))
		log.Info("request handled", "elapsed", time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type geocodeRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	places, err := s.svc.Geocode(r.Context(), req.Query)
	if err != nil {
		logging.FromContext(r.Context()).Error("geocode failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": places})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := s.svc.Series(r.Context(), req, nil)
	if err != nil {
		log := logging.FromContext(r.Context())
		switch {
		case errors.Is(err, grid.ErrInvalidWindow), errors.Is(err, orchestrator.ErrNoTasks):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, series.ErrEmptyResult):
			log.Error("run produced no usable data", "error", err)
			writeError(w, http.StatusBadGateway, "no data points could be fetched")
		default:
			log.Error("series failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type staticMapRequest struct {
	Origin      core.LatLng `json:"origin"`
	Destination core.LatLng `json:"destination"`
}

func (s *Server) handleStaticMap(w http.ResponseWriter, r *http.Request) {
	var req staticMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"url": s.svc.StaticMapURL(req.Origin, req.Destination),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
