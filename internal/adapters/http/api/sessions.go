// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/fairmeet/internal/app"
	"github.com/okian/fairmeet/internal/domain/model"
)

// SessionDependencies defines the interface for session operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context) service.SessionView
	GetSession(id string) (service.SessionView, error)
	DeleteSession(id string) error
	AddParty(id string) (model.Party, error)
	RemoveParty(id, partyID string) error
	UpdatePosition(id, partyID string, pos *model.Point) error
	RecommendForSession(ctx context.Context, id string, category model.Category) (service.Recommendation, error)
}

// SessionsHandler handles session requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type positionRequest struct {
	Position *model.Point `json:"position"`
}

type sessionRecommendRequest struct {
	Category model.Category `json:"category"`
}

// HandleCreate handles POST /sessions requests.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.deps.CreateSession(r.Context()))
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.GetSession(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddParty handles POST /sessions/{id}/parties requests.
func (h *SessionsHandler) HandleAddParty(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.AddParty(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleRemoveParty handles DELETE /sessions/{id}/parties/{party} requests.
func (h *SessionsHandler) HandleRemoveParty(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RemoveParty(r.PathValue("id"), r.PathValue("party")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdatePosition handles PUT /sessions/{id}/parties/{party}/position.
// A null position clears the party's location.
func (h *SessionsHandler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decode(w, r, &req, false); err != nil {
		writeServiceError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := h.deps.UpdatePosition(id, r.PathValue("party"), req.Position); err != nil {
		writeServiceError(w, err)
		return
	}
	v, err := h.deps.GetSession(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleRecommend handles POST /sessions/{id}/recommend requests.
func (h *SessionsHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req sessionRecommendRequest
	if err := decode(w, r, &req, true); err != nil {
		writeServiceError(w, err)
		return
	}
	rec, err := h.deps.RecommendForSession(r.Context(), r.PathValue("id"), req.Category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecommendation(w, rec)
}
