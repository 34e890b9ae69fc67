// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/fairmeet/internal/app"
	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/session"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	MeetupDependencies
	SessionDependencies
	QuotaDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	meetupsHandler  *MeetupsHandler
	sessionsHandler *SessionsHandler
	quotaHandler    *QuotaHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		meetupsHandler:  NewMeetupsHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
		quotaHandler:    NewQuotaHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /quota", MetricsMiddleware(s.quotaHandler.HandleQuota, "quota"))
	mux.HandleFunc("GET /categories", MetricsMiddleware(HandleCategories, "categories"))
	mux.HandleFunc("POST /meetups", MetricsMiddleware(s.meetupsHandler.HandleRecommend, "meetups"))

	sh := s.sessionsHandler
	mux.HandleFunc("POST /sessions", MetricsMiddleware(sh.HandleCreate, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(sh.HandleGet, "session"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(sh.HandleDelete, "session"))
	mux.HandleFunc("POST /sessions/{id}/parties", MetricsMiddleware(sh.HandleAddParty, "session_parties"))
	mux.HandleFunc("DELETE /sessions/{id}/parties/{party}", MetricsMiddleware(sh.HandleRemoveParty, "session_party"))
	mux.HandleFunc("PUT /sessions/{id}/parties/{party}/position", MetricsMiddleware(sh.HandleUpdatePosition, "session_position"))
	mux.HandleFunc("POST /sessions/{id}/recommend", MetricsMiddleware(sh.HandleRecommend, "session_recommend"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and session errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest), errors.Is(err, model.ErrInvalidPoint):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, session.ErrPartyNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, session.ErrMinimumParties):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decode reads a JSON body. An empty body leaves v untouched when optional is true.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: request body is required", ErrBadRequest)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeRecommendation(w http.ResponseWriter, rec service.Recommendation) {
	if rec.Status == service.StatusUnavailable {
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
