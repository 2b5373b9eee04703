package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/handlers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

type stubZeroResults struct {
	limit int
	err   error
}

func (s *stubZeroResults) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchQuery, error) {
	s.limit = limit
	return []*entities.SearchQuery{{ID: "q1", Query: "moonlit harbour"}}, s.err
}

func TestAnalyticsHandler_GetZeroResultQueries(t *testing.T) {
	stub := &stubZeroResults{}
	handler := handlers.NewAnalyticsHandler(stub)

	w := httptest.NewRecorder()
	handler.GetZeroResultQueries(w, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, stub.limit)
	assert.Contains(t, w.Body.String(), "moonlit harbour")

	w = httptest.NewRecorder()
	handler.GetZeroResultQueries(w, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?limit=9000", nil))
	assert.Equal(t, 500, stub.limit)

	w = httptest.NewRecorder()
	handler.GetZeroResultQueries(w, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsHandler_StoreFailure(t *testing.T) {
	handler := handlers.NewAnalyticsHandler(&stubZeroResults{err: errors.New("timeout")})

	w := httptest.NewRecorder()
	handler.GetZeroResultQueries(w, httptest.NewRequest(http.MethodGet, "/api/analytics/zero-result-queries", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthHandler(t *testing.T) {
	healthy := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	healthy.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	degraded := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
	})
	w = httptest.NewRecorder()
	degraded.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"dial tcp: connection refused"`)
}
