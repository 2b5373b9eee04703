package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/adapters/database"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/evaluation"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
)

//go:embed golden_queries.yaml
var defaultGolden []byte

func main() {
	var (
		goldenPath string
		k          int
		thresholds evaluation.Thresholds
	)
	flag.StringVar(&goldenPath, "golden", "", "YAML golden query file (default: built-in set)")
	flag.IntVar(&k, "k", 10, "cutoff rank for recall and MRR")
	flag.Float64Var(&thresholds.MinRecall, "min-recall", 0, "fail when average recall is below this")
	flag.Float64Var(&thresholds.MinMRR, "min-mrr", 0, "fail when average MRR is below this")
	flag.Float64Var(&thresholds.MinHitRate, "min-hit-rate", 0, "fail when the share of queries with results is below this")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LoggerOptions{
		Service: cfg.OTEL.ServiceName,
		Version: cfg.OTEL.ServiceVersion,
		Command: "evaluate",
		Env:     cfg.Logging.Env,
		Level:   cfg.Logging.Level,
	})
	logger := observability.GetLogger()

	var queries []evaluation.GoldenQuery
	if goldenPath != "" {
		queries, err = evaluation.LoadGoldenQueries(goldenPath)
	} else {
		queries, err = evaluation.ParseGoldenQueries(defaultGolden)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load golden queries")
	}

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	// No cache: every query must hit the store
	queryService := services.NewSuggestionQueryService(
		database.NewSuggestionAdapter(pgClient),
		database.NewSceneAdapter(pgClient),
		nil,
		&cfg.Suggestions,
		nil,
	)

	summary, results := evaluation.NewRunner(queryService, k).Run(ctx, queries)
	for _, res := range results {
		if res.Err != nil {
			logger.Warn().Err(res.Err).Str("query_id", res.QueryID).Msg("query failed")
		}
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if violations := thresholds.Check(summary); len(violations) > 0 {
		for _, v := range violations {
			logger.Error().Str("violation", v).Msg("evaluation below threshold")
		}
		os.Exit(1)
	}
}
