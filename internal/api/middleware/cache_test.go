package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/middleware"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	c.ttls[key] = expirationSeconds
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *mapCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"count":1}`))
	})
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	cache := newMapCache()
	calls := 0
	handler := middleware.NewCacheMiddleware(cache, nil).Middleware(countingHandler(&calls, http.StatusOK))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=par", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=par", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"count":1}`, w.Body.String())
	assert.Equal(t, 1, calls)

	key := middleware.CacheKey(httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=par", nil))
	assert.Equal(t, 180, cache.ttls[key])
}

func TestCacheMiddleware_DistinctQueries(t *testing.T) {
	calls := 0
	handler := middleware.NewCacheMiddleware(newMapCache(), nil).Middleware(countingHandler(&calls, http.StatusOK))

	for _, target := range []string{"/api/search/suggestions?q=rain", "/api/search/suggestions?q=snow"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestCacheMiddleware_SkipsErrorsAndUncachedRoutes(t *testing.T) {
	cache := newMapCache()
	calls := 0
	handler := middleware.NewCacheMiddleware(cache, nil).Middleware(countingHandler(&calls, http.StatusNotFound))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/scenes/99", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/search?q=rain", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/scenes/", nil))

	assert.Empty(t, cache.data)
	assert.Equal(t, 4, calls)
}

func TestCacheMiddleware_ScenePrefixRoute(t *testing.T) {
	cache := newMapCache()
	calls := 0
	handler := middleware.NewCacheMiddleware(cache, nil).Middleware(countingHandler(&calls, http.StatusOK))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/scenes/7", nil))

	require.Contains(t, cache.data, "http:cache:GET:/api/scenes/7")
	assert.Equal(t, 600, cache.ttls["http:cache:GET:/api/scenes/7"])
}

func TestCacheKey(t *testing.T) {
	plain := middleware.CacheKey(httptest.NewRequest(http.MethodGet, "/api/scenes/7", nil))
	assert.Equal(t, "http:cache:GET:/api/scenes/7", plain)

	a := middleware.CacheKey(httptest.NewRequest(http.MethodGet, "/api/search?q=rain&page=2", nil))
	b := middleware.CacheKey(httptest.NewRequest(http.MethodGet, "/api/search?page=2&q=rain", nil))
	assert.Equal(t, a, b, "query parameter order does not matter")
	assert.True(t, strings.HasPrefix(a, "http:cache:GET:/api/search?"))
	assert.Len(t, strings.TrimPrefix(a, "http:cache:GET:/api/search?"), 16)
}
