package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
)

func seedCache(t *testing.T, cache *MockCacheProvider, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, cache.Set(context.Background(), key, []byte("{}"), 300))
	}
}

func TestCacheInvalidationService_Start(t *testing.T) {
	cache := NewMockCacheProvider()
	eventBus := NewMockEventBus()
	service := services.NewCacheInvalidationService(cache, eventBus)

	require.NoError(t, service.Start())
	defer service.Stop()

	assert.Equal(t, 1, eventBus.SubscriberCount(providers.EventChannelSceneUpdates))
}

func TestCacheInvalidationService_HandleEvent(t *testing.T) {
	cache := NewMockCacheProvider()
	eventBus := NewMockEventBus()
	seedCache(t, cache,
		"suggest:all:10:par",
		"http:cache:GET:/api/scenes/7",
		"http:cache:GET:/api/scenes/8",
		"http:cache:GET:/api/search?q=rain",
	)

	service := services.NewCacheInvalidationService(cache, eventBus)
	var hooked atomic.Int64
	service.OnEvent(func(ctx context.Context, event *entities.SceneEvent) {
		hooked.Store(event.SceneID)
	})
	require.NoError(t, service.Start())
	defer service.Stop()

	event := entities.NewSceneEvent(7, entities.SceneEventSaved)
	require.NoError(t, eventBus.Publish(context.Background(), providers.EventChannelSceneUpdates, event))

	assert.Eventually(t, func() bool { return hooked.Load() == 7 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"http:cache:GET:/api/scenes/8"}, cache.Keys())
}

func TestCacheInvalidationService_InvalidateSceneCache(t *testing.T) {
	cache := NewMockCacheProvider()
	seedCache(t, cache, "http:cache:GET:/api/scenes/3", "http:cache:GET:/api/scenes/4")

	service := services.NewCacheInvalidationService(cache, NewMockEventBus())
	require.NoError(t, service.InvalidateSceneCache(context.Background(), 3))

	assert.Equal(t, []string{"http:cache:GET:/api/scenes/4"}, cache.Keys())
}

func TestCacheInvalidationService_InvalidateSearchCaches(t *testing.T) {
	cache := NewMockCacheProvider()
	seedCache(t, cache,
		"suggest:title:5:quiet",
		"suggest:all:10:da",
		"http:cache:GET:/api/search?q=dawn",
		"http:cache:GET:/api/scenes/1",
	)

	service := services.NewCacheInvalidationService(cache, NewMockEventBus())
	require.NoError(t, service.InvalidateSearchCaches(context.Background()))

	assert.Equal(t, []string{"http:cache:GET:/api/scenes/1"}, cache.Keys())
	assert.Equal(t, []string{"suggest:*", "http:cache:*search*"}, cache.Patterns())
}

func TestCacheInvalidationService_StopsWhenChannelCloses(t *testing.T) {
	eventBus := NewMockEventBus()
	service := services.NewCacheInvalidationService(NewMockCacheProvider(), eventBus)
	require.NoError(t, service.Start())

	require.NoError(t, eventBus.Unsubscribe(context.Background(), providers.EventChannelSceneUpdates))
	service.Stop()
}
