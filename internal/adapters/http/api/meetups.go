// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/fairmeet/internal/app"
)

// MeetupDependencies defines the interface for one-shot recommendations.
type MeetupDependencies interface {
	Recommend(ctx context.Context, req service.RecommendRequest) service.Recommendation
}

// MeetupsHandler handles meetup requests.
type MeetupsHandler struct {
	deps MeetupDependencies
}

// NewMeetupsHandler creates a new meetups handler.
func NewMeetupsHandler(deps MeetupDependencies) *MeetupsHandler {
	return &MeetupsHandler{deps: deps}
}

// HandleRecommend handles POST /meetups requests. Degraded results are
// still answered with 200.
func (h *MeetupsHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req service.RecommendRequest
	if err := decode(w, r, &req, false); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeRecommendation(w, h.deps.Recommend(r.Context(), req))
}
