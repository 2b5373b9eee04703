package routes

import (
	"net/http"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/handlers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/middleware"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler     *handlers.HealthHandler
	suggestionHandler *handlers.SuggestionHandler
	sceneHandler      *handlers.SceneHandler
	analyticsHandler  *handlers.AnalyticsHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router. cacheMiddleware and metrics may be nil.
func NewRouter(
	healthHandler *handlers.HealthHandler,
	suggestionHandler *handlers.SuggestionHandler,
	sceneHandler *handlers.SceneHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		healthHandler:     healthHandler,
		suggestionHandler: suggestionHandler,
		sceneHandler:      sceneHandler,
		analyticsHandler:  analyticsHandler,
		cacheMiddleware:   cacheMiddleware,
		metrics:           metrics,
		allowedOrigins:    allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Autocomplete
	r.mux.HandleFunc("GET /api/search/suggestions", r.suggestionHandler.GetSuggestions)
	r.mux.HandleFunc("GET /api/search/instant", r.suggestionHandler.InstantSearch)

	// Scene search
	r.mux.HandleFunc("GET /api/search", r.sceneHandler.SearchScenes)

	// Scenes
	r.mux.HandleFunc("POST /api/scenes", r.sceneHandler.CreateScene)
	r.mux.HandleFunc("GET /api/scenes/{id}", r.sceneHandler.GetScene)
	r.mux.HandleFunc("PUT /api/scenes/{id}", r.sceneHandler.UpdateScene)
	r.mux.HandleFunc("DELETE /api/scenes/{id}", r.sceneHandler.DeleteScene)

	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/zero-result-queries", r.analyticsHandler.GetZeroResultQueries)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
