package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/utils"
)

const suggestCacheName = "suggestions"

// SuggestionQueryService serves ranked autocomplete lookups
type SuggestionQueryService struct {
	suggestions   repositories.SuggestionRepository
	scenes        repositories.SceneRepository
	cache         providers.CacheProvider
	metrics       *observability.Metrics
	fallbackOrder []entities.Category
	defaultLimit  int
	maxLimit      int
	cacheTTL      time.Duration
}

// NewSuggestionQueryService creates a new query service. scenes disables the
// live fallback when nil; cache and metrics may be nil.
func NewSuggestionQueryService(
	suggestions repositories.SuggestionRepository,
	scenes repositories.SceneRepository,
	cache providers.CacheProvider,
	cfg *config.SuggestionConfig,
	metrics *observability.Metrics,
) *SuggestionQueryService {
	order := make([]entities.Category, 0, len(cfg.FallbackOrder))
	for _, field := range cfg.FallbackOrder {
		order = append(order, entities.Category(field))
	}
	return &SuggestionQueryService{
		suggestions:   suggestions,
		scenes:        scenes,
		cache:         cache,
		metrics:       metrics,
		fallbackOrder: order,
		defaultLimit:  cfg.DefaultLimit,
		maxLimit:      cfg.MaxLimit,
		cacheTTL:      cfg.CacheTTL,
	}
}

// ClampLimit applies the default and maximum result counts
func (s *SuggestionQueryService) ClampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// Suggest returns suggestions whose term contains query, most frequent first.
// Queries shorter than two characters return an empty result. When the store
// has fewer than limit matches, verbatim scene field values are appended with
// frequency 1.
func (s *SuggestionQueryService) Suggest(ctx context.Context, query string, category *entities.Category, limit int) ([]*entities.Suggestion, error) {
	q := strings.TrimSpace(query)
	if utils.TermLength(q) < entities.MinTermLength {
		return []*entities.Suggestion{}, nil
	}
	if category != nil && !category.Valid() {
		return []*entities.Suggestion{}, nil
	}
	limit = s.ClampLimit(limit)

	ctx, span := observability.StartSpan(ctx, "suggestions.suggest")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("suggestion.query", q), attribute.Int("suggestion.limit", limit))

	cacheKey := suggestCacheKey(q, category, limit)
	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	results, err := s.suggestions.Search(ctx, repositories.SuggestionFilter{
		Query:    utils.NormalizeTerm(q),
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	usedFallback := false
	if len(results) < limit && s.scenes != nil {
		before := len(results)
		results = s.appendFallback(ctx, results, q, category, limit)
		usedFallback = len(results) > before
	}

	categoryLabel := "all"
	if category != nil {
		categoryLabel = string(*category)
	}
	observability.RecordSuggestLookup(ctx, s.metrics, categoryLabel, len(results), usedFallback)

	s.toCache(ctx, cacheKey, results)
	return results, nil
}

// appendFallback tops results up from the live scene fields in the configured
// order. Scene store failures leave results as they are.
func (s *SuggestionQueryService) appendFallback(ctx context.Context, results []*entities.Suggestion, query string, category *entities.Category, limit int) []*entities.Suggestion {
	seen := make(map[string]struct{}, limit)
	for _, r := range results {
		seen[strings.ToLower(r.Term)] = struct{}{}
	}

	for _, field := range s.fallbackOrder {
		if len(results) >= limit {
			break
		}
		if category != nil && *category != field {
			continue
		}

		values, err := s.scenes.MatchFieldValues(ctx, string(field), query, limit-len(results))
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("field", string(field)).Msg("suggestion fallback scan failed")
			continue
		}
		for _, value := range values {
			if len(results) >= limit {
				break
			}
			key := strings.ToLower(value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, &entities.Suggestion{Term: value, Category: field, Frequency: 1})
		}
	}
	return results
}

func suggestCacheKey(query string, category *entities.Category, limit int) string {
	cat := "all"
	if category != nil {
		cat = string(*category)
	}
	return fmt.Sprintf("%s%s:%d:%s", providers.SuggestCachePrefix, cat, limit, strings.ToLower(query))
}

func (s *SuggestionQueryService) fromCache(ctx context.Context, key string) ([]*entities.Suggestion, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		observability.RecordCacheMiss(ctx, s.metrics, suggestCacheName)
		return nil, false
	}

	var cached []*entities.Suggestion
	if err := json.Unmarshal(data, &cached); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable cached suggestions")
		observability.RecordCacheMiss(ctx, s.metrics, suggestCacheName)
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, suggestCacheName)
	return cached, true
}

func (s *SuggestionQueryService) toCache(ctx context.Context, key string, results []*entities.Suggestion) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, int(s.cacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache suggestions")
	}
}
