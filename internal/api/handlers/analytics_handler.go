package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

const (
	defaultZeroResultLimit = 50
	maxZeroResultLimit     = 500
)

// ZeroResultQuerier lists searches that found nothing
type ZeroResultQuerier interface {
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchQuery, error)
}

// AnalyticsHandler exposes search telemetry
type AnalyticsHandler struct {
	analytics ZeroResultQuerier
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics ZeroResultQuerier) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetZeroResultQueries handles GET /api/analytics/zero-result-queries?limit=
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := defaultZeroResultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(parsed, maxZeroResultLimit)
	}

	queries, err := h.analytics.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}
