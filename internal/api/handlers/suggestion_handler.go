package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/utils"
)

// SuggestionQuerier serves ranked suggestion lookups
type SuggestionQuerier interface {
	Suggest(ctx context.Context, query string, category *entities.Category, limit int) ([]*entities.Suggestion, error)
	ClampLimit(limit int) int
}

// SuggestionIndexSearcher serves as-you-type lookups from the search index
type SuggestionIndexSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]*entities.Suggestion, error)
}

// SuggestionHandler handles autocomplete requests
type SuggestionHandler struct {
	query SuggestionQuerier
	index SuggestionIndexSearcher
}

// NewSuggestionHandler creates a new suggestion handler. index may be nil.
func NewSuggestionHandler(query SuggestionQuerier, index SuggestionIndexSearcher) *SuggestionHandler {
	return &SuggestionHandler{query: query, index: index}
}

// SuggestionResponse is one suggestion as returned to clients
type SuggestionResponse struct {
	Term      string            `json:"term"`
	Display   string            `json:"display"`
	Category  entities.Category `json:"category"`
	Frequency int               `json:"frequency"`
}

func toSuggestionResponses(suggestions []*entities.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		display := s.Term
		if s.Category.TitleCasedDisplay() {
			display = utils.DisplayTerm(s.Term)
		}
		out = append(out, SuggestionResponse{
			Term:      s.Term,
			Display:   display,
			Category:  s.Category,
			Frequency: s.Frequency,
		})
	}
	return out
}

// GetSuggestions handles GET /api/search/suggestions?q=&type=&limit=
func (h *SuggestionHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))

	// unknown types reach the engine, which answers them with no suggestions
	var category *entities.Category
	if raw := strings.TrimSpace(params.Get("type")); raw != "" && raw != "all" {
		c := entities.Category(strings.ToLower(raw))
		category = &c
	}

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}
	limit = h.query.ClampLimit(limit)

	suggestions, err := h.query.Suggest(r.Context(), query, category, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"suggestions": toSuggestionResponses(suggestions),
		"count":       len(suggestions),
	})
}

// InstantSearch handles GET /api/search/instant?q=&limit=
func (h *SuggestionHandler) InstantSearch(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondWithError(w, http.StatusServiceUnavailable, "instant search is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utils.TermLength(query) < entities.MinTermLength {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"query":       query,
			"suggestions": []SuggestionResponse{},
			"count":       0,
		})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	suggestions, err := h.index.Search(r.Context(), query, h.query.ClampLimit(limit))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":       query,
		"suggestions": toSuggestionResponses(suggestions),
		"count":       len(suggestions),
	})
}
