package services

import (
	"context"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

const (
	warmTopTerms      = 20
	warmPrefixLengths = 3
)

// CacheWarmingService pre-computes suggestion lookups for the prefixes of
// the most popular terms
type CacheWarmingService struct {
	suggestions repositories.SuggestionRepository
	query       *SuggestionQueryService
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(suggestions repositories.SuggestionRepository, query *SuggestionQueryService) *CacheWarmingService {
	return &CacheWarmingService{suggestions: suggestions, query: query}
}

// WarmCache runs the default lookup for every 2 and 3 rune prefix of the top
// terms. It returns the number of prefixes warmed.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	top, err := s.suggestions.Search(ctx, repositories.SuggestionFilter{Limit: warmTopTerms})
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, prefix := range popularPrefixes(top) {
		if _, err := s.query.Suggest(ctx, prefix, nil, 0); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("prefix", prefix).Msg("failed to warm suggestion prefix")
			continue
		}
		warmed++
	}

	observability.LoggerFromContext(ctx).Info().Int("prefixes", warmed).Msg("suggestion cache warmed")
	return warmed, nil
}

// StartPeriodicWarming warms immediately and then every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	if _, err := s.WarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					logger.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("started periodic cache warming")
}

// popularPrefixes returns the distinct short prefixes of terms in input order
func popularPrefixes(top []*entities.Suggestion) []string {
	seen := make(map[string]struct{})
	prefixes := []string{}
	for _, s := range top {
		runes := []rune(s.Term)
		for n := entities.MinTermLength; n <= warmPrefixLengths && n <= len(runes); n++ {
			prefix := string(runes[:n])
			if _, ok := seen[prefix]; ok {
				continue
			}
			seen[prefix] = struct{}{}
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}
