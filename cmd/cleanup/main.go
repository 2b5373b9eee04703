package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/cache"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/database"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/search"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/redis"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/typesense"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		minFrequency int
		daysOld      int
		dryRun       bool
	)
	flag.IntVar(&minFrequency, "min-frequency", cfg.Cleanup.MinFrequency, "remove suggestions below this frequency (0 disables)")
	flag.IntVar(&daysOld, "days-old", cfg.Cleanup.MaxAgeDays, "remove suggestions unused for this many days (0 disables)")
	flag.BoolVar(&dryRun, "dry-run", false, "report what would be removed without deleting")
	flag.Parse()

	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "cleanup",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	var (
		cacheProvider providers.CacheProvider
		jobLock       providers.JobLock
	)
	if redisClient, err := redis.NewClient(ctx, &cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; cleaning up without job lock or cache invalidation")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		jobLock = cache.NewRedisJobLock(redisClient)
	}

	var index repositories.SuggestionIndex
	if cfg.Typesense.URL != "" {
		if tsClient, err := typesense.NewClient(ctx, &cfg.Typesense); err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable; index will not be pruned")
		} else {
			index = search.NewTypesenseAdapter(tsClient)
		}
	}

	cleanup := services.NewSuggestionCleanupService(
		database.NewSceneAdapter(pgClient),
		database.NewSuggestionAdapter(pgClient),
		index,
		cacheProvider,
		nil,
	)

	opts := services.CleanupOptions{MinFrequency: minFrequency, DryRun: dryRun}
	if daysOld > 0 {
		maxAge := time.Duration(daysOld) * 24 * time.Hour
		opts.MaxAge = &maxAge
	}

	var result *services.CleanupResult
	err = services.RunExclusive(ctx, jobLock, cfg.Jobs.LockKey, cfg.Jobs.LockTTL, func(ctx context.Context) error {
		var err error
		result, err = cleanup.Cleanup(ctx, opts)
		return err
	})
	if errors.Is(err, services.ErrJobLocked) {
		logger.Fatal().Msg("another training or cleanup run holds the job lock")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("cleanup failed")
	}

	verb := "Removed"
	if result.DryRun {
		verb = "Would remove"
	}
	fmt.Printf("Scenes scanned:        %d (live vocabulary %d terms)\n", result.ScenesScanned, result.Vocabulary)
	if result.ScenesSkipped > 0 {
		fmt.Printf("Scenes skipped:        %d (malformed details)\n", result.ScenesSkipped)
	}
	fmt.Printf("Unused terms:          %d\n", result.Unused)
	if minFrequency > 0 {
		fmt.Printf("Below frequency %-5d  %d\n", minFrequency, result.LowFrequency)
	}
	if opts.MaxAge != nil {
		fmt.Printf("Unused for %d+ days:   %d\n", daysOld, result.Old)
	}
	fmt.Printf("%s %d suggestions\n", verb, result.Total)
}
