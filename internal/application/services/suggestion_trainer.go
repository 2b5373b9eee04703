package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/config"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/utils"
)

// AccumulationMode decides what batch training does to pairs that already exist
type AccumulationMode string

const (
	// AccumulationAdditive adds the corpus weight to the stored frequency
	AccumulationAdditive AccumulationMode = "additive"
	// AccumulationReconcile overwrites the stored frequency with the corpus weight
	AccumulationReconcile AccumulationMode = "reconcile"
)

// ParseAccumulationMode validates a mode name
func ParseAccumulationMode(s string) (AccumulationMode, error) {
	switch mode := AccumulationMode(s); mode {
	case AccumulationAdditive, AccumulationReconcile:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown accumulation mode %q", s)
	}
}

const (
	smallCorpusBatchSize = 50
	largeCorpusBatchSize = 100
	largeCorpusThreshold = 1000
)

// DefaultBatchSize picks the scene chunk size for a corpus of the given size
func DefaultBatchSize(sceneCount int64) int {
	if sceneCount >= largeCorpusThreshold {
		return largeCorpusBatchSize
	}
	return smallCorpusBatchSize
}

// TrainingSummary reports one batch training run
type TrainingSummary struct {
	Mode            AccumulationMode `json:"mode"`
	ScenesProcessed int              `json:"scenes_processed"`
	ScenesSkipped   int              `json:"scenes_skipped"`
	Pairs           int              `json:"pairs"`
	Created         int              `json:"created"`
	Updated         int              `json:"updated"`
	InitialCount    int64            `json:"initial_count"`
	FinalCount      int64            `json:"final_count"`
	Duration        time.Duration    `json:"duration"`
}

// NewSuggestions is how many rows the run added to the store
func (s *TrainingSummary) NewSuggestions() int64 {
	return s.FinalCount - s.InitialCount
}

// ScenesPerSecond is the processing rate of the run
func (s *TrainingSummary) ScenesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.ScenesProcessed) / s.Duration.Seconds()
}

// SuggestionTrainer mines scenes into the suggestion store
type SuggestionTrainer struct {
	scenes         repositories.SceneRepository
	suggestions    repositories.SuggestionRepository
	extractor      *SceneTextExtractor
	cache          providers.CacheProvider
	metrics        *observability.Metrics
	mode           AccumulationMode
	repeatBoostCap int
}

// NewSuggestionTrainer creates a new trainer. cache and metrics may be nil.
func NewSuggestionTrainer(
	scenes repositories.SceneRepository,
	suggestions repositories.SuggestionRepository,
	extractor *SceneTextExtractor,
	cache providers.CacheProvider,
	cfg *config.SuggestionConfig,
	metrics *observability.Metrics,
) *SuggestionTrainer {
	mode, err := ParseAccumulationMode(cfg.AccumulationMode)
	if err != nil {
		mode = AccumulationAdditive
	}
	return &SuggestionTrainer{
		scenes:         scenes,
		suggestions:    suggestions,
		extractor:      extractor,
		cache:          cache,
		metrics:        metrics,
		mode:           mode,
		repeatBoostCap: cfg.RepeatBoostCap,
	}
}

// Mode returns the accumulation mode used by TrainAll
func (t *SuggestionTrainer) Mode() AccumulationMode {
	return t.mode
}

// WithMode returns a copy of the trainer using a different accumulation mode
func (t *SuggestionTrainer) WithMode(mode AccumulationMode) *SuggestionTrainer {
	clone := *t
	clone.mode = mode
	return &clone
}

// TrainAll mines the whole corpus and commits the summed weights against a
// single snapshot of the store. batchSize <= 0 picks a size from the corpus.
func (t *SuggestionTrainer) TrainAll(ctx context.Context, batchSize int) (*TrainingSummary, error) {
	ctx, span := observability.StartSpan(ctx, "suggestions.train_all")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()
	summary := &TrainingSummary{Mode: t.mode}

	initial, err := t.suggestions.Count(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	summary.InitialCount = initial

	if batchSize <= 0 {
		sceneCount, err := t.scenes.Count(ctx)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		batchSize = DefaultBatchSize(sceneCount)
	}

	acc := make(map[entities.SuggestionKey]*aggregatedPair)
	var afterID int64
	for {
		page, err := t.scenes.ListAfter(ctx, afterID, batchSize)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		for _, scene := range page.Scenes {
			aggregateContributions(acc, nil, t.extractor.Extract(scene))
		}
		summary.ScenesProcessed += len(page.Scenes)
		summary.ScenesSkipped += page.Skipped
		afterID = page.LastID

		logger.Debug().Int("scenes", summary.ScenesProcessed).Int("pairs", len(acc)).Msg("training batch aggregated")
		if page.Exhausted(batchSize) {
			break
		}
	}
	summary.Pairs = len(acc)

	existing, err := t.suggestions.Keys(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	var (
		inserts []repositories.SuggestionDelta
		updates []repositories.FrequencyUpdate
	)
	for _, key := range sortedKeys(acc) {
		pair := acc[key]
		if id, ok := existing[key]; ok {
			updates = append(updates, repositories.FrequencyUpdate{ID: id, Value: pair.weight})
			continue
		}
		inserts = append(inserts, repositories.SuggestionDelta{Term: key.Term, Category: key.Category, Amount: pair.weight})
	}

	if err := t.suggestions.BulkInsert(ctx, inserts); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if t.mode == AccumulationReconcile {
		err = t.suggestions.BulkSetFrequency(ctx, updates)
	} else {
		err = t.suggestions.BulkIncrement(ctx, updates)
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	summary.Created = len(inserts)
	summary.Updated = len(updates)

	final, err := t.suggestions.Count(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	summary.FinalCount = final
	summary.Duration = time.Since(start)

	t.invalidateCache(ctx)
	observability.RecordTraining(ctx, t.metrics, string(t.mode), summary.Pairs, summary.Duration)
	observability.SetSpanAttributes(span,
		attribute.Int("training.scenes", summary.ScenesProcessed),
		attribute.Int("training.pairs", summary.Pairs),
	)

	logger.Info().
		Str("mode", string(t.mode)).
		Int("scenes", summary.ScenesProcessed).
		Int("skipped", summary.ScenesSkipped).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Dur("duration", summary.Duration).
		Msg("batch training finished")

	return summary, nil
}

// TrainOne commits the contributions of a single scene, one upsert per
// distinct pair, then boosts body words the scene repeats.
func (t *SuggestionTrainer) TrainOne(ctx context.Context, scene *entities.Scene) error {
	if scene == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "suggestions.train_one")
	defer span.End()
	start := time.Now()

	acc := make(map[entities.SuggestionKey]*aggregatedPair)
	var order []entities.SuggestionKey
	aggregateContributions(acc, &order, t.extractor.Extract(scene))

	for _, key := range order {
		pair := acc[key]
		if _, err := t.suggestions.Increment(ctx, key.Term, key.Category, pair.weight); err != nil {
			observability.RecordError(span, err)
			return fmt.Errorf("train scene %d: %w", scene.ID, err)
		}
		if boost := t.repeatBoost(pair); boost > 0 {
			if _, err := t.suggestions.Increment(ctx, key.Term, key.Category, boost); err != nil {
				observability.RecordError(span, err)
				return fmt.Errorf("boost %q for scene %d: %w", key.Term, scene.ID, err)
			}
		}
	}

	observability.RecordTraining(ctx, t.metrics, "incremental", len(order), time.Since(start))
	observability.LoggerFromContext(ctx).Debug().
		Int64("scene_id", scene.ID).
		Int("pairs", len(order)).
		Msg("scene suggestions updated")
	return nil
}

func (t *SuggestionTrainer) repeatBoost(pair *aggregatedPair) int {
	if pair.occurrences < 2 || t.repeatBoostCap <= 0 {
		return 0
	}
	return min(pair.occurrences-1, t.repeatBoostCap)
}

// Reinforce bumps a single term by one. Terms outside the accepted length or
// carrying an unknown category are ignored.
func (t *SuggestionTrainer) Reinforce(ctx context.Context, term string, category entities.Category) (*entities.Suggestion, error) {
	term = utils.NormalizeTerm(term)
	if !termFits(term) || !category.Valid() {
		return nil, nil
	}
	return t.suggestions.Increment(ctx, term, category, 1)
}

// Clear deletes every suggestion
func (t *SuggestionTrainer) Clear(ctx context.Context) (int64, error) {
	deleted, err := t.suggestions.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	t.invalidateCache(ctx)
	observability.LoggerFromContext(ctx).Info().Int64("deleted", deleted).Msg("suggestion store cleared")
	return deleted, nil
}

func (t *SuggestionTrainer) invalidateCache(ctx context.Context) {
	if t.cache == nil {
		return
	}
	for _, pattern := range providers.SearchCachePatterns {
		if err := t.cache.DeletePattern(ctx, pattern); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate suggestion cache")
		}
	}
}

func sortedKeys(acc map[entities.SuggestionKey]*aggregatedPair) []entities.SuggestionKey {
	keys := make([]entities.SuggestionKey, 0, len(acc))
	for key := range acc {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Term < keys[j].Term
	})
	return keys
}
