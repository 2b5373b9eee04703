package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/providers"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/utils"
)

// AllowedPageSizes are the page sizes scene search accepts
var AllowedPageSizes = []int{10, 25, 50, 100}

const defaultPageSize = 10

// SceneSearchResult is one page of scene search results
type SceneSearchResult struct {
	Scenes     []*entities.Scene `json:"scenes"`
	Query      string            `json:"query"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
}

// SceneService is the write path for scenes. Saving a scene trains its
// suggestions and notifies every instance.
type SceneService struct {
	repo      repositories.SceneRepository
	trainer   *SuggestionTrainer
	eventBus  providers.EventBus
	analytics *SearchAnalyticsService
}

// NewSceneService creates a new scene service. eventBus and analytics may be nil.
func NewSceneService(
	repo repositories.SceneRepository,
	trainer *SuggestionTrainer,
	eventBus providers.EventBus,
	analytics *SearchAnalyticsService,
) *SceneService {
	return &SceneService{
		repo:      repo,
		trainer:   trainer,
		eventBus:  eventBus,
		analytics: analytics,
	}
}

// Get returns a scene by ID
func (s *SceneService) Get(ctx context.Context, id int64) (*entities.Scene, error) {
	return s.repo.GetByID(ctx, id)
}

// Save creates or updates a scene. Suggestion training failures are logged
// and never fail the write.
func (s *SceneService) Save(ctx context.Context, scene *entities.Scene) error {
	if scene == nil {
		return apperrors.NewValidationError("scene is required")
	}
	scene.Normalize()
	if scene.Title == "" {
		return apperrors.NewValidationError("title is required")
	}
	if utils.TermLength(scene.Title) > entities.MaxTitleLength {
		return apperrors.NewValidationError(fmt.Sprintf("title must be at most %d characters", entities.MaxTitleLength))
	}
	if scene.EffeminateAge < 0 || scene.MasculineAge < 0 {
		return apperrors.NewValidationError("ages must not be negative")
	}

	if err := s.repo.Save(ctx, scene); err != nil {
		return err
	}

	logger := observability.LoggerFromContext(ctx)
	if s.trainer != nil {
		if err := s.trainer.TrainOne(ctx, scene); err != nil {
			logger.Error().Err(err).Int64("scene_id", scene.ID).Msg("failed to update search suggestions")
		} else {
			logger.Info().Int64("scene_id", scene.ID).Str("title", scene.Title).Msg("updated search suggestions")
		}
	}

	s.publish(ctx, scene.ID, entities.SceneEventSaved)
	return nil
}

// Delete removes a scene. Its suggestions stay until the next cleanup run.
func (s *SceneService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, entities.SceneEventDeleted)
	return nil
}

// Search finds scenes by free text, logs the query and reinforces it as a
// content suggestion
func (s *SceneService) Search(ctx context.Context, query string, page, pageSize int, sessionKey string) (*SceneSearchResult, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if !validPageSize(pageSize) {
		pageSize = defaultPageSize
	}

	result := &SceneSearchResult{
		Scenes:   []*entities.Scene{},
		Query:    query,
		Page:     page,
		PageSize: pageSize,
	}
	if query == "" {
		return result, nil
	}

	scenes, total, err := s.repo.Search(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	result.Scenes = scenes
	result.Total = total
	result.TotalPages = (total + pageSize - 1) / pageSize
	result.HasNext = page < result.TotalPages

	s.analytics.TrackSearch(ctx, &entities.SearchQuery{
		Query:       query,
		SessionKey:  sessionKey,
		ResultCount: total,
	})

	if s.trainer != nil && utils.TermLength(query) >= 3 {
		if _, err := s.trainer.Reinforce(ctx, query, entities.CategoryContent); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("query", query).Msg("failed to reinforce search query")
		}
	}

	return result, nil
}

func (s *SceneService) publish(ctx context.Context, sceneID int64, eventType entities.SceneEventType) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewSceneEvent(sceneID, eventType)
	if err := s.eventBus.Publish(ctx, providers.EventChannelSceneUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int64("scene_id", sceneID).Msgf("failed to publish scene %s event", eventType)
	}
}

func validPageSize(size int) bool {
	for _, allowed := range AllowedPageSizes {
		if size == allowed {
			return true
		}
	}
	return false
}
