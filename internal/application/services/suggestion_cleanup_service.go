package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

const (
	cleanupScenePageSize      = 200
	cleanupSuggestionPageSize = 1000
)

// CleanupOptions selects which suggestions a cleanup run removes
type CleanupOptions struct {
	// MinFrequency removes rows below this frequency. Zero or less disables it.
	MinFrequency int
	// MaxAge removes rows not used within this window when set
	MaxAge *time.Duration
	DryRun bool
}

// CleanupResult reports the rows each criterion matched. A row matched by
// several criteria counts once in Total.
type CleanupResult struct {
	Unused        int     `json:"unused"`
	LowFrequency  int     `json:"low_frequency"`
	Old           int     `json:"old"`
	Total         int     `json:"total"`
	DryRun        bool    `json:"dry_run"`
	ScenesScanned int     `json:"scenes_scanned"`
	ScenesSkipped int     `json:"scenes_skipped"`
	Vocabulary    int     `json:"vocabulary"`
	DeletedIDs    []int64 `json:"-"`
}

// SuggestionCleanupService removes suggestions no live scene backs any more
type SuggestionCleanupService struct {
	scenes      repositories.SceneRepository
	suggestions repositories.SuggestionRepository
	index       repositories.SuggestionIndex
	cache       providers.CacheProvider
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewSuggestionCleanupService creates a new cleanup service. index, cache and
// metrics may be nil.
func NewSuggestionCleanupService(
	scenes repositories.SceneRepository,
	suggestions repositories.SuggestionRepository,
	index repositories.SuggestionIndex,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
) *SuggestionCleanupService {
	return &SuggestionCleanupService{
		scenes:      scenes,
		suggestions: suggestions,
		index:       index,
		cache:       cache,
		metrics:     metrics,
		now:         time.Now,
	}
}

// LiveVocabulary collects every term the current corpus can back. Scenes
// with unreadable details are skipped.
func (s *SuggestionCleanupService) LiveVocabulary(ctx context.Context) (map[string]struct{}, int, int, error) {
	vocab := make(map[string]struct{})
	scanned, skipped := 0, 0

	var afterID int64
	for {
		page, err := s.scenes.ListAfter(ctx, afterID, cleanupScenePageSize)
		if err != nil {
			return nil, scanned, skipped, err
		}
		for _, scene := range page.Scenes {
			LiveTerms(scene, vocab)
		}
		scanned += len(page.Scenes)
		skipped += page.Skipped
		afterID = page.LastID
		if page.Exhausted(cleanupScenePageSize) {
			break
		}
	}
	return vocab, scanned, skipped, nil
}

// Cleanup evaluates every criterion against one snapshot of the store and
// deletes the union of the matches unless opts.DryRun is set.
func (s *SuggestionCleanupService) Cleanup(ctx context.Context, opts CleanupOptions) (*CleanupResult, error) {
	ctx, span := observability.StartSpan(ctx, "suggestions.cleanup")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	vocab, scanned, skipped, err := s.LiveVocabulary(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("scenes with malformed details left out of the live vocabulary")
	}

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	result := &CleanupResult{
		DryRun:        opts.DryRun,
		ScenesScanned: scanned,
		ScenesSkipped: skipped,
		Vocabulary:    len(vocab),
		DeletedIDs:    []int64{},
	}

	var cutoff time.Time
	if opts.MaxAge != nil {
		cutoff = s.now().Add(-*opts.MaxAge)
	}

	for _, suggestion := range snapshot {
		matched := false
		if _, live := vocab[suggestion.Term]; !live {
			result.Unused++
			matched = true
		}
		if opts.MinFrequency > 0 && suggestion.Frequency < opts.MinFrequency {
			result.LowFrequency++
			matched = true
		}
		if opts.MaxAge != nil && suggestion.LastUsed.Before(cutoff) {
			result.Old++
			matched = true
		}
		if matched {
			result.DeletedIDs = append(result.DeletedIDs, suggestion.ID)
		}
	}
	result.Total = len(result.DeletedIDs)

	if !opts.DryRun && len(result.DeletedIDs) > 0 {
		deleted, err := s.suggestions.DeleteByIDs(ctx, result.DeletedIDs)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		result.Total = int(deleted)

		if s.index != nil {
			if err := s.index.Delete(ctx, result.DeletedIDs); err != nil {
				logger.Warn().Err(err).Msg("failed to prune suggestion index")
			}
		}
		if s.cache != nil {
			for _, pattern := range providers.SearchCachePatterns {
				if err := s.cache.DeletePattern(ctx, pattern); err != nil {
					logger.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate suggestion cache")
				}
			}
		}
		observability.RecordCleanup(ctx, s.metrics, result.Total)
	}

	observability.SetSpanAttributes(span,
		attribute.Int("cleanup.total", result.Total),
		attribute.Bool("cleanup.dry_run", opts.DryRun),
	)
	logger.Info().
		Int("unused", result.Unused).
		Int("low_frequency", result.LowFrequency).
		Int("old", result.Old).
		Int("total", result.Total).
		Bool("dry_run", opts.DryRun).
		Msg("suggestion cleanup finished")

	return result, nil
}

func (s *SuggestionCleanupService) snapshot(ctx context.Context) ([]*entities.Suggestion, error) {
	var (
		all     []*entities.Suggestion
		afterID int64
	)
	for {
		page, err := s.suggestions.ListAfter(ctx, afterID, cleanupSuggestionPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < cleanupSuggestionPageSize {
			return all, nil
		}
		afterID = page[len(page)-1].ID
	}
}
