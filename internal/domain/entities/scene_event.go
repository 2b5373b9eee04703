package entities

import (
	"time"

	"github.com/google/uuid"
)

// SceneEventType represents what happened to a scene
type SceneEventType string

const (
	SceneEventSaved   SceneEventType = "saved"
	SceneEventDeleted SceneEventType = "deleted"
)

// SceneEvent is broadcast to every API instance when a scene changes
type SceneEvent struct {
	ID        string         `json:"id"`
	SceneID   int64          `json:"scene_id"`
	EventType SceneEventType `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewSceneEvent creates a new scene event
func NewSceneEvent(sceneID int64, eventType SceneEventType) *SceneEvent {
	return &SceneEvent{
		ID:        uuid.New().String(),
		SceneID:   sceneID,
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
