package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/database"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/search"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/typesense"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "drop and recreate the suggestions collection before indexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "indexer",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("interval must be greater than zero")
		}
	}
	if os.Getenv("RESET_TYPESENSE") == "true" {
		reset = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Typesense")
	}

	indexService := services.NewSuggestionIndexService(
		database.NewSuggestionAdapter(pgClient),
		search.NewTypesenseAdapter(tsClient),
	)

	for {
		if _, err := indexService.Sync(ctx, reset); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			logger.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}
