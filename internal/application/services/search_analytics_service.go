package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

// SearchAnalyticsService records scene searches off the request path
type SearchAnalyticsService struct {
	repo repositories.SearchQueryRepository
}

// NewSearchAnalyticsService creates a new analytics service
func NewSearchAnalyticsService(repo repositories.SearchQueryRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo}
}

// TrackSearch logs a search in the background. Failures are only logged.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, query *entities.SearchQuery) {
	if s == nil || s.repo == nil || query == nil {
		return
	}
	if query.ID == "" {
		query.ID = uuid.New().String()
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now().UTC()
	}
	logger := observability.LoggerFromContext(ctx)

	go func() {
		// the request context is cancelled once the response is written
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.LogQuery(bgCtx, query); err != nil {
			logger.Warn().Err(err).Str("query", query.Query).Msg("failed to log search query")
		}
	}()
}

// GetZeroResultQueries returns recent searches that found nothing
func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchQuery, error) {
	return s.repo.GetZeroResultQueries(ctx, limit)
}
