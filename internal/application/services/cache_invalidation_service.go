package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached suggestions and search pages when a
// scene changes on any instance
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	onEvent  func(context.Context, *entities.SceneEvent)
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnEvent registers a hook run after the caches of an event are dropped
func (s *CacheInvalidationService) OnEvent(fn func(context.Context, *entities.SceneEvent)) {
	s.onEvent = fn
}

// Start begins listening for scene events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelSceneUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to scene updates: %w", err)
	}

	go s.processEvents(eventChan)
	logger := observability.ForComponent("cache_invalidation")
	logger.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	logger := observability.ForComponent("cache_invalidation")
	logger.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.SceneEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.SceneEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.ForComponent("cache_invalidation").With().
		Str("event_id", event.ID).
		Int64("scene_id", event.SceneID).
		Str("event_type", string(event.EventType)).
		Logger()

	if err := s.InvalidateSceneCache(ctx, event.SceneID); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate scene cache")
	}
	// new vocabulary shows up in suggestions and search right away
	if err := s.InvalidateSearchCaches(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate search caches")
	}

	if s.onEvent != nil {
		s.onEvent(ctx, event)
	}
	logger.Debug().Msg("processed scene event")
}

// InvalidateSearchCaches drops cached suggestion lookups and search pages
func (s *CacheInvalidationService) InvalidateSearchCaches(ctx context.Context) error {
	for _, pattern := range providers.SearchCachePatterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}

// InvalidateSceneCache drops the cached responses of one scene
func (s *CacheInvalidationService) InvalidateSceneCache(ctx context.Context, sceneID int64) error {
	pattern := fmt.Sprintf("%s*scenes/%d*", providers.HTTPCachePrefix, sceneID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate scene cache: %w", err)
	}
	return nil
}
