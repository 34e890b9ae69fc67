// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/fairmeet/internal/domain/model"
	"github.com/okian/fairmeet/internal/domain/quota"
)

// QuotaDependencies defines the interface for quota reporting.
type QuotaDependencies interface {
	QuotaStatus(ctx context.Context) (quota.Status, error)
	QuotaHistory(ctx context.Context, days int) ([]quota.State, error)
}

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

type quotaResponse struct {
	quota.Status
	History []quota.State `json:"history,omitempty"`
}

// QuotaHandler handles quota requests.
type QuotaHandler struct {
	deps QuotaDependencies
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(deps QuotaDependencies) *QuotaHandler {
	return &QuotaHandler{deps: deps}
}

// HandleQuota handles GET /quota requests. The optional days query parameter
// bounds the usage history.
func (h *QuotaHandler) HandleQuota(w http.ResponseWriter, r *http.Request) {
	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryDays {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: days must be between 1 and %d", ErrBadRequest, maxHistoryDays))
			return
		}
		days = n
	}

	st, err := h.deps.QuotaStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	history, err := h.deps.QuotaHistory(r.Context(), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{Status: st, History: history})
}

type categoryEntry struct {
	Category  model.Category `json:"category"`
	PlaceType string         `json:"place_type"`
}

// HandleCategories handles GET /categories requests.
func HandleCategories(w http.ResponseWriter, _ *http.Request) {
	cats := model.Categories()
	out := make([]categoryEntry, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryEntry{Category: c, PlaceType: c.PlaceType()})
	}
	writeJSON(w, http.StatusOK, out)
}
