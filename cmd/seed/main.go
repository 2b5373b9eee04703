package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/database"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

//go:embed scenes.yaml
var defaultScenes []byte

type sceneFixture struct {
	Title         string                 `yaml:"title"`
	EffeminateAge int                    `yaml:"effeminate_age"`
	MasculineAge  int                    `yaml:"masculine_age"`
	Country       string                 `yaml:"country"`
	Setting       string                 `yaml:"setting"`
	Emotion       string                 `yaml:"emotion"`
	FullText      string                 `yaml:"full_text"`
	Details       *entities.SceneDetails `yaml:"details"`
}

func main() {
	var file string
	var train bool
	flag.StringVar(&file, "file", "", "YAML file of scenes to load (default: built-in sample corpus)")
	flag.BoolVar(&train, "train", true, "train suggestions after seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "seed",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	data := defaultScenes
	if file != "" {
		if data, err = os.ReadFile(file); err != nil {
			logger.Fatal().Err(err).Str("file", file).Msg("failed to read scene file")
		}
	}

	var fixtures []sceneFixture
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse scenes")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if os.Getenv("RESET_DB") == "true" {
		logger.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE scenes, search_suggestions, search_queries RESTART IDENTITY`); err != nil {
			logger.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	sceneRepo := database.NewSceneAdapter(pgClient)
	created := 0
	for _, f := range fixtures {
		scene := &entities.Scene{
			Title:         f.Title,
			EffeminateAge: f.EffeminateAge,
			MasculineAge:  f.MasculineAge,
			Country:       f.Country,
			Setting:       f.Setting,
			Emotion:       f.Emotion,
			FullText:      f.FullText,
			Details:       f.Details,
		}
		if err := sceneRepo.Save(ctx, scene); err != nil {
			if apperrors.Is(err, apperrors.ErrorTypeConflict) {
				logger.Info().Str("title", f.Title).Msg("scene already exists, skipping")
				continue
			}
			logger.Fatal().Err(err).Str("title", f.Title).Msg("failed to create scene")
		}
		created++
	}
	logger.Info().Int("created", created).Int("total", len(fixtures)).Msg("scenes seeded")

	if !train || created == 0 {
		return
	}

	suggestionRepo := database.NewSuggestionAdapter(pgClient)
	extractor := services.NewSceneTextExtractorFromConfig(&cfg.Suggestions)
	trainer := services.NewSuggestionTrainer(sceneRepo, suggestionRepo, extractor, nil, &cfg.Suggestions, nil).
		WithMode(services.AccumulationReconcile)
	if _, err := trainer.TrainAll(ctx, 0); err != nil {
		logger.Fatal().Err(err).Msg("failed to train suggestions")
	}
}
