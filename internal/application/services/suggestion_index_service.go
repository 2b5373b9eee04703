package services

import (
	"context"
	"sync"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

const indexSyncPageSize = 500

// SuggestionIndexService keeps a search index in step with the suggestion store
type SuggestionIndexService struct {
	suggestions repositories.SuggestionRepository
	index       repositories.SuggestionIndex
	syncMu      sync.Mutex
}

// NewSuggestionIndexService creates a new index service
func NewSuggestionIndexService(suggestions repositories.SuggestionRepository, index repositories.SuggestionIndex) *SuggestionIndexService {
	return &SuggestionIndexService{suggestions: suggestions, index: index}
}

// Sync copies every stored suggestion into the index, recreating it first
// when reset is set. Without reset, indexed documents whose rows are gone
// from the store are deleted afterwards. It returns how many suggestions
// were indexed.
func (s *SuggestionIndexService) Sync(ctx context.Context, reset bool) (int, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	ctx, span := observability.StartSpan(ctx, "suggestions.index_sync")
	defer span.End()
	start := time.Now()

	if reset {
		if err := s.index.Reset(ctx); err != nil {
			observability.RecordError(span, err)
			return 0, err
		}
	} else if err := s.index.EnsureSchema(ctx); err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	indexed := 0
	seen := make(map[int64]struct{})
	var afterID int64
	for {
		page, err := s.suggestions.ListAfter(ctx, afterID, indexSyncPageSize)
		if err != nil {
			observability.RecordError(span, err)
			return indexed, err
		}
		if len(page) == 0 {
			break
		}
		if err := s.index.Upsert(ctx, page); err != nil {
			observability.RecordError(span, err)
			return indexed, err
		}
		for _, suggestion := range page {
			seen[suggestion.ID] = struct{}{}
		}
		indexed += len(page)
		afterID = page[len(page)-1].ID
		if len(page) < indexSyncPageSize {
			break
		}
	}

	pruned := 0
	if !reset {
		stale, err := s.staleIDs(ctx, seen)
		if err != nil {
			observability.RecordError(span, err)
			return indexed, err
		}
		if len(stale) > 0 {
			if err := s.index.Delete(ctx, stale); err != nil {
				observability.RecordError(span, err)
				return indexed, err
			}
			pruned = len(stale)
		}
	}

	observability.LoggerFromContext(ctx).Info().
		Int("indexed", indexed).
		Int("pruned", pruned).
		Bool("reset", reset).
		Dur("duration", time.Since(start)).
		Msg("suggestion index synced")
	return indexed, nil
}

// staleIDs returns the indexed ids that the store no longer has
func (s *SuggestionIndexService) staleIDs(ctx context.Context, live map[int64]struct{}) ([]int64, error) {
	indexedIDs, err := s.index.IDs(ctx)
	if err != nil {
		return nil, err
	}
	var stale []int64
	for _, id := range indexedIDs {
		if _, ok := live[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

// Search queries the index as-you-type
func (s *SuggestionIndexService) Search(ctx context.Context, query string, limit int) ([]*entities.Suggestion, error) {
	return s.index.Search(ctx, query, limit)
}

// Prune removes deleted suggestions from the index
func (s *SuggestionIndexService) Prune(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.index.Delete(ctx, ids)
}

// StartPeriodicSync re-syncs the index every interval until ctx is done
func (s *SuggestionIndexService) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping periodic index sync")
				return
			case <-ticker.C:
				if _, err := s.Sync(ctx, false); err != nil {
					logger.Error().Err(err).Msg("periodic index sync failed")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("started periodic index sync")
}
