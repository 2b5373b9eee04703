package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

// SearchQueryAdapter stores search telemetry
type SearchQueryAdapter struct {
	db *sqlx.DB
}

// NewSearchQueryAdapter creates a new search query adapter
func NewSearchQueryAdapter(client *postgres.Client) repositories.SearchQueryRepository {
	return &SearchQueryAdapter{db: sqlx.NewDb(client.DB(), "postgres")}
}

// LogQuery inserts one telemetry row
func (a *SearchQueryAdapter) LogQuery(ctx context.Context, q *entities.SearchQuery) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO search_queries (id, query, session_key, result_count, created_at)
		VALUES (:id, :query, :session_key, :result_count, :created_at)
	`
	if _, err := a.db.NamedExecContext(ctx, query, q); err != nil {
		return apperrors.NewInternalError("failed to log search query", err)
	}

	return nil
}

// GetZeroResultQueries returns the latest searches that matched nothing
func (a *SearchQueryAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchQuery, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, query, session_key, result_count, created_at
		FROM search_queries
		WHERE result_count = 0
		ORDER BY created_at DESC
		LIMIT $1
	`

	queries := []*entities.SearchQuery{}
	if err := a.db.SelectContext(ctx, &queries, query, limit); err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}

	return queries, nil
}
