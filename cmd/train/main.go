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
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/redis"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

const topTermsPerCategory = 5

func main() {
	var (
		clear     bool
		verbose   bool
		batchSize int
		mode      string
		sceneID   int64
	)
	flag.BoolVar(&clear, "clear", false, "delete every suggestion before training")
	flag.BoolVar(&verbose, "verbose", false, "print per-category statistics and top terms")
	flag.IntVar(&batchSize, "batch-size", 0, "scenes per page (default 50, or 100 for 1000+ scenes)")
	flag.StringVar(&mode, "mode", "", "accumulation mode: additive or reconcile (default from SUGGEST_ACCUMULATION_MODE)")
	flag.Int64Var(&sceneID, "scene", 0, "train a single scene incrementally")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "train",
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
		logger.Warn().Err(err).Msg("Redis unavailable; training without job lock or cache invalidation")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		jobLock = cache.NewRedisJobLock(redisClient)
	}

	sceneRepo := database.NewSceneAdapter(pgClient)
	suggestionRepo := database.NewSuggestionAdapter(pgClient)
	extractor := services.NewSceneTextExtractorFromConfig(&cfg.Suggestions)
	trainer := services.NewSuggestionTrainer(sceneRepo, suggestionRepo, extractor, cacheProvider, &cfg.Suggestions, nil)

	if mode != "" {
		parsed, err := services.ParseAccumulationMode(mode)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid --mode")
		}
		trainer = trainer.WithMode(parsed)
	}

	if sceneID > 0 {
		scene, err := sceneRepo.GetByID(ctx, sceneID)
		if err != nil {
			logger.Fatal().Err(err).Int64("scene_id", sceneID).Msg("failed to load scene")
		}
		if err := trainer.TrainOne(ctx, scene); err != nil {
			logger.Fatal().Err(err).Int64("scene_id", sceneID).Msg("failed to train scene")
		}
		fmt.Printf("Trained scene %d (%q)\n", scene.ID, scene.Title)
		return
	}

	err = services.RunExclusive(ctx, jobLock, cfg.Jobs.LockKey, cfg.Jobs.LockTTL, func(ctx context.Context) error {
		return train(ctx, trainer, sceneRepo, suggestionRepo, clear, verbose, batchSize)
	})
	if errors.Is(err, services.ErrJobLocked) {
		logger.Fatal().Msg("another training or cleanup run holds the job lock")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("training failed")
	}
}

func train(
	ctx context.Context,
	trainer *services.SuggestionTrainer,
	scenes repositories.SceneRepository,
	suggestions repositories.SuggestionRepository,
	clear, verbose bool,
	batchSize int,
) error {
	sceneCount, err := scenes.Count(ctx)
	if err != nil {
		return err
	}
	if sceneCount == 0 {
		return errors.New("no scenes to train from")
	}

	if clear {
		deleted, err := trainer.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d existing suggestions\n", deleted)
	}

	if batchSize <= 0 {
		batchSize = services.DefaultBatchSize(sceneCount)
	}
	fmt.Printf("Training from %d scenes (mode=%s, batch size=%d)\n", sceneCount, trainer.Mode(), batchSize)

	summary, err := trainer.TrainAll(ctx, batchSize)
	if err != nil {
		return err
	}

	fmt.Printf("Scenes processed:  %d\n", summary.ScenesProcessed)
	if summary.ScenesSkipped > 0 {
		fmt.Printf("Scenes skipped:    %d (malformed details)\n", summary.ScenesSkipped)
	}
	fmt.Printf("Initial count:     %d\n", summary.InitialCount)
	fmt.Printf("Final count:       %d\n", summary.FinalCount)
	fmt.Printf("New suggestions:   %d\n", summary.NewSuggestions())
	fmt.Printf("Elapsed:           %s (%.1f scenes/s)\n", summary.Duration.Round(time.Millisecond), summary.ScenesPerSecond())

	if verbose {
		return printStats(ctx, suggestions)
	}
	return nil
}

func printStats(ctx context.Context, suggestions repositories.SuggestionRepository) error {
	stats, err := suggestions.CategoryStats(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%-12s %8s %10s\n", "category", "count", "avg freq")
	for _, stat := range stats {
		fmt.Printf("%-12s %8d %10.2f\n", stat.Category, stat.Count, stat.AvgFrequency)
	}

	for _, category := range entities.Categories {
		top, err := suggestions.Search(ctx, repositories.SuggestionFilter{Category: &category, Limit: topTermsPerCategory})
		if err != nil {
			return err
		}
		if len(top) == 0 {
			continue
		}
		fmt.Printf("\nTop %s terms:\n", category)
		for _, s := range top {
			fmt.Printf("  %-30s %d\n", s.Term, s.Frequency)
		}
	}
	return nil
}
