//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

func setupPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("scenes_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	client, err := postgres.NewClient(ctx, &config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test_user",
		Password: "test_password",
		Database: "scenes_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	migrator, err := client.NewMigrator()
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return client
}

func truncateAll(t *testing.T, client *postgres.Client) {
	t.Helper()
	_, err := client.DB().Exec(`TRUNCATE scenes, search_suggestions, search_queries RESTART IDENTITY`)
	require.NoError(t, err)
}

func TestPostgresAdapters_Integration(t *testing.T) {
	client := setupPostgres(t)
	ctx := context.Background()

	scenes := NewSceneAdapter(client)
	suggestions := NewSuggestionAdapter(client)
	queries := NewSearchQueryAdapter(client)

	t.Run("scene round trip and title uniqueness", func(t *testing.T) {
		truncateAll(t, client)

		scene := &entities.Scene{
			Title:   "Quiet Dawn",
			Country: "Japan",
			Details: &entities.SceneDetails{Atmosphere: &entities.AtmosphereProfile{Sound: entities.StringPtr("distant bells")}},
		}
		require.NoError(t, scenes.Save(ctx, scene))
		require.NotZero(t, scene.ID)

		loaded, err := scenes.GetByID(ctx, scene.ID)
		require.NoError(t, err)
		assert.Equal(t, "distant bells", *loaded.Details.Atmosphere.Sound)

		err = scenes.Save(ctx, &entities.Scene{Title: "Quiet Dawn"})
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConflict))

		values, err := scenes.MatchFieldValues(ctx, "country", "JAP", 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"Japan"}, values)
	})

	t.Run("malformed details are skipped while paging", func(t *testing.T) {
		truncateAll(t, client)

		require.NoError(t, scenes.Save(ctx, &entities.Scene{Title: "Good"}))
		_, err := client.DB().Exec(`INSERT INTO scenes (title, details) VALUES ('Broken', '{"masculine": "not an object"}')`)
		require.NoError(t, err)

		page, err := scenes.ListAfter(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Scanned)
		assert.Equal(t, 1, page.Skipped)
		assert.Len(t, page.Scenes, 1)
	})

	t.Run("increment upserts one row per pair", func(t *testing.T) {
		truncateAll(t, client)

		first, err := suggestions.Increment(ctx, "paris", entities.CategoryCountry, 3)
		require.NoError(t, err)
		second, err := suggestions.Increment(ctx, "paris", entities.CategoryCountry, 2)
		require.NoError(t, err)
		_, err = suggestions.Increment(ctx, "paris", entities.CategoryContent, 1)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 5, second.Frequency)

		count, err := suggestions.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("search ranks by frequency then recency", func(t *testing.T) {
		truncateAll(t, client)

		require.NoError(t, suggestions.BulkInsert(ctx, []repositories.SuggestionDelta{
			{Term: "paris", Category: entities.CategoryContent, Amount: 3},
			{Term: "paris hotel", Category: entities.CategoryContent, Amount: 5},
			{Term: "tokyo", Category: entities.CategoryCountry, Amount: 9},
		}))

		results, err := suggestions.Search(ctx, repositories.SuggestionFilter{Query: "PAR", Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "paris hotel", results[0].Term)
		assert.Equal(t, "paris", results[1].Term)
	})

	t.Run("reconcile training is idempotent", func(t *testing.T) {
		truncateAll(t, client)

		require.NoError(t, scenes.Save(ctx, &entities.Scene{Title: "Quiet Dawn", Country: "Japan", Setting: "Garden"}))
		cfg := &config.SuggestionConfig{
			TitleWholeWeight: 2, TitleWordWeight: 1, FieldWeight: 3,
			CharacterWordWeight: 1, AtmosphereWordWeight: 1, ContentMaxWeight: 5,
			ContentTopN: 30, RepeatBoostCap: 3, AccumulationMode: "reconcile",
			DefaultLimit: 10, MaxLimit: 50,
		}
		trainer := services.NewSuggestionTrainer(scenes, suggestions, services.NewSceneTextExtractorFromConfig(cfg), nil, cfg, nil)

		_, err := trainer.TrainAll(ctx, 0)
		require.NoError(t, err)
		before, err := suggestions.Search(ctx, repositories.SuggestionFilter{Limit: 100})
		require.NoError(t, err)

		summary, err := trainer.TrainAll(ctx, 0)
		require.NoError(t, err)
		after, err := suggestions.Search(ctx, repositories.SuggestionFilter{Limit: 100})
		require.NoError(t, err)

		assert.Zero(t, summary.NewSuggestions())
		require.Len(t, after, len(before))
		for i := range before {
			assert.Equal(t, before[i].Frequency, after[i].Frequency, before[i].Term)
		}
	})

	t.Run("delete by ids and category stats", func(t *testing.T) {
		truncateAll(t, client)

		require.NoError(t, suggestions.BulkInsert(ctx, []repositories.SuggestionDelta{
			{Term: "dawn", Category: entities.CategoryTitle, Amount: 1},
			{Term: "rain", Category: entities.CategoryContent, Amount: 4},
			{Term: "wind", Category: entities.CategoryContent, Amount: 2},
		}))
		keys, err := suggestions.Keys(ctx)
		require.NoError(t, err)

		deleted, err := suggestions.DeleteByIDs(ctx, []int64{keys[entities.SuggestionKey{Term: "dawn", Category: entities.CategoryTitle}]})
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		stats, err := suggestions.CategoryStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, entities.CategoryContent, stats[0].Category)
		assert.Equal(t, int64(2), stats[0].Count)
		assert.InDelta(t, 3.0, stats[0].AvgFrequency, 0.001)
	})

	t.Run("zero result queries", func(t *testing.T) {
		truncateAll(t, client)

		require.NoError(t, queries.LogQuery(ctx, &entities.SearchQuery{Query: "moonlit harbour", ResultCount: 0}))
		require.NoError(t, queries.LogQuery(ctx, &entities.SearchQuery{Query: "dawn", ResultCount: 3}))

		zero, err := queries.GetZeroResultQueries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, zero, 1)
		assert.Equal(t, "moonlit harbour", zero[0].Query)
	})
}
