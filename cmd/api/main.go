package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/cache"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/database"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/events"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/search"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/handlers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/middleware"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/api/routes"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/redis"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/typesense"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

func main() {
	var migrate bool
	var warmInterval time.Duration
	flag.BoolVar(&migrate, "migrate", false, "apply pending schema migrations before serving")
	flag.DurationVar(&warmInterval, "warm-interval", 5*time.Minute, "suggestion cache warming interval")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "api",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if migrate {
		migrator, err := pgClient.NewMigrator()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create migrator")
		}
		if err := migrator.Up(); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Redis is optional: without it there is no cache and no cross-instance events
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	sceneRepo := database.NewSceneAdapter(pgClient)
	suggestionRepo := database.NewSuggestionAdapter(pgClient)
	searchQueryRepo := database.NewSearchQueryAdapter(pgClient)

	index, closeIndex := openSuggestionIndex(ctx, cfg)
	defer closeIndex()
	indexService := services.NewSuggestionIndexService(suggestionRepo, index)
	if _, err := indexService.Sync(ctx, false); err != nil {
		logger.Warn().Err(err).Msg("initial suggestion index sync failed")
	}

	extractor := services.NewSceneTextExtractorFromConfig(&cfg.Suggestions)
	trainer := services.NewSuggestionTrainer(sceneRepo, suggestionRepo, extractor, cacheProvider, &cfg.Suggestions, metrics)
	queryService := services.NewSuggestionQueryService(suggestionRepo, sceneRepo, cacheProvider, &cfg.Suggestions, metrics)
	analyticsService := services.NewSearchAnalyticsService(searchQueryRepo)
	sceneService := services.NewSceneService(sceneRepo, trainer, eventBus, analyticsService)

	var invalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		invalidation.OnEvent(func(ctx context.Context, event *entities.SceneEvent) {
			if _, err := indexService.Sync(ctx, false); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Int64("scene_id", event.SceneID).Msg("index resync after scene event failed")
			}
		})
		if err := invalidation.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start cache invalidation service")
			invalidation = nil
		}
	}

	if cacheProvider != nil && warmInterval > 0 {
		services.NewCacheWarmingService(suggestionRepo, queryService).StartPeriodicWarming(ctx, warmInterval)
	}

	checks := map[string]handlers.HealthCheck{"postgres": pgClient.Ping}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	router := routes.NewRouter(
		handlers.NewHealthHandler(checks),
		handlers.NewSuggestionHandler(queryService, indexService),
		handlers.NewSceneHandler(sceneService),
		handlers.NewAnalyticsHandler(analyticsService),
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	if invalidation != nil {
		invalidation.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing event bus")
		}
	}

	logger.Info().Msg("server stopped")
}

// openSuggestionIndex returns the Typesense mirror when configured and an
// in-process bleve index otherwise.
func openSuggestionIndex(ctx context.Context, cfg *config.Config) (repositories.SuggestionIndex, func()) {
	logger := observability.GetLogger()

	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err == nil {
			logger.Info().Msg("serving instant search from Typesense")
			return search.NewTypesenseAdapter(tsClient), func() {}
		}
		logger.Warn().Err(err).Msg("Typesense unavailable; falling back to in-process index")
	}

	bleveIndex, err := search.NewBleveAdapter()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create in-process suggestion index")
	}
	return bleveIndex, func() {
		if err := bleveIndex.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close suggestion index")
		}
	}
}
