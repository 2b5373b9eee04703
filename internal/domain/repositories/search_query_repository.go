package repositories

import (
	"context"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// SearchQueryRepository stores search telemetry
type SearchQueryRepository interface {
	LogQuery(ctx context.Context, query *entities.SearchQuery) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchQuery, error)
}
