package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/application/services"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// SceneManager defines the scene operations used by the handler
type SceneManager interface {
	Get(ctx context.Context, id int64) (*entities.Scene, error)
	Save(ctx context.Context, scene *entities.Scene) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, page, pageSize int, sessionKey string) (*services.SceneSearchResult, error)
}

// SceneHandler handles scene CRUD and scene search
type SceneHandler struct {
	scenes SceneManager
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(scenes SceneManager) *SceneHandler {
	return &SceneHandler{scenes: scenes}
}

type sceneRequest struct {
	Title         string                 `json:"title"`
	EffeminateAge int                    `json:"effeminate_age"`
	MasculineAge  int                    `json:"masculine_age"`
	Country       string                 `json:"country"`
	Setting       string                 `json:"setting"`
	Emotion       string                 `json:"emotion"`
	FullText      string                 `json:"full_text"`
	Details       *entities.SceneDetails `json:"details"`
}

func (req sceneRequest) toScene(id int64) *entities.Scene {
	return &entities.Scene{
		ID:            id,
		Title:         req.Title,
		EffeminateAge: req.EffeminateAge,
		MasculineAge:  req.MasculineAge,
		Country:       req.Country,
		Setting:       req.Setting,
		Emotion:       req.Emotion,
		FullText:      req.FullText,
		Details:       req.Details,
	}
}

func sceneID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GetScene handles GET /api/scenes/{id}
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	id, ok := sceneID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid scene ID")
		return
	}

	scene, err := h.scenes.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scene)
}

// CreateScene handles POST /api/scenes
func (h *SceneHandler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var payload sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	scene := payload.toScene(0)
	if err := h.scenes.Save(r.Context(), scene); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, scene)
}

// UpdateScene handles PUT /api/scenes/{id}
func (h *SceneHandler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	id, ok := sceneID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid scene ID")
		return
	}

	var payload sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	scene := payload.toScene(id)
	if err := h.scenes.Save(r.Context(), scene); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, scene)
}

// DeleteScene handles DELETE /api/scenes/{id}
func (h *SceneHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	id, ok := sceneID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid scene ID")
		return
	}

	if err := h.scenes.Delete(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchScenes handles GET /api/search?q=&page=&page_size=
func (h *SceneHandler) SearchScenes(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	page, _ := strconv.Atoi(params.Get("page"))
	pageSize, _ := strconv.Atoi(params.Get("page_size"))

	result, err := h.scenes.Search(r.Context(), params.Get("q"), page, pageSize, r.Header.Get("X-Session-Key"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
