package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

const scenesTable = "scenes"

var sceneColumns = []interface{}{
	"id", "title", "effeminate_age", "masculine_age", "country", "setting",
	"emotion", "full_text", "details", "created_at", "updated_at",
}

// fields a caller may match verbatim against
var sceneMatchFields = map[string]bool{
	"title":   true,
	"country": true,
	"setting": true,
	"emotion": true,
}

// SceneAdapter implements SceneRepository
type SceneAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSceneAdapter creates a new scene adapter
func NewSceneAdapter(client *postgres.Client) repositories.SceneRepository {
	return &SceneAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save creates or updates a scene
func (a *SceneAdapter) Save(ctx context.Context, scene *entities.Scene) error {
	details, err := encodeDetails(scene.Details)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid scene details: %v", err))
	}

	now := time.Now().UTC()
	record := goqu.Record{
		"title":          scene.Title,
		"effeminate_age": scene.EffeminateAge,
		"masculine_age":  scene.MasculineAge,
		"country":        scene.Country,
		"setting":        scene.Setting,
		"emotion":        scene.Emotion,
		"full_text":      scene.FullText,
		"details":        details,
		"updated_at":     now,
	}

	if scene.ID == 0 {
		record["created_at"] = now
		query, args, err := a.db.Insert(scenesTable).Rows(record).Returning("id").ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&scene.ID); err != nil {
			return a.translateWriteError(scene, err)
		}
		scene.CreatedAt = now
		scene.UpdatedAt = now
		return nil
	}

	query, args, err := a.db.Update(scenesTable).Set(record).Where(goqu.Ex{"id": scene.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return a.translateWriteError(scene, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("scene %d not found", scene.ID))
	}

	scene.UpdatedAt = now
	return nil
}

func (a *SceneAdapter) translateWriteError(scene *entities.Scene, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return apperrors.NewConflictError(fmt.Sprintf("a scene titled %q already exists", scene.Title), err)
	}
	return apperrors.NewInternalError("failed to save scene", err)
}

// GetByID retrieves a scene by ID
func (a *SceneAdapter) GetByID(ctx context.Context, id int64) (*entities.Scene, error) {
	query, args, err := a.db.Select(sceneColumns...).From(scenesTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	scene, rawDetails, err := scanScene(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("scene %d not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get scene", err)
	}

	if scene.Details, err = decodeDetails(rawDetails); err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("scene %d has malformed details", id), err)
	}

	return scene, nil
}

// Delete deletes a scene
func (a *SceneAdapter) Delete(ctx context.Context, id int64) error {
	query, args, err := a.db.Delete(scenesTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete scene", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("scene %d not found", id))
	}

	return nil
}

// ListAfter reads one keyset page of scenes
func (a *SceneAdapter) ListAfter(ctx context.Context, afterID int64, limit int) (*repositories.ScenePage, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := a.db.Select(sceneColumns...).
		From(scenesTable).
		Where(goqu.C("id").Gt(afterID)).
		Order(goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list scenes", err)
	}
	defer rows.Close()

	page := &repositories.ScenePage{LastID: afterID, Scenes: make([]*entities.Scene, 0, limit)}
	for rows.Next() {
		scene, rawDetails, err := scanScene(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan scene", err)
		}
		page.Scanned++
		page.LastID = scene.ID

		details, err := decodeDetails(rawDetails)
		if err != nil {
			page.Skipped++
			observability.LoggerFromContext(ctx).Warn().Err(err).Int64("scene_id", scene.ID).Msg("skipping scene with malformed details")
			continue
		}
		scene.Details = details
		page.Scenes = append(page.Scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate scenes", err)
	}

	return page, nil
}

// Count returns the number of scenes
func (a *SceneAdapter) Count(ctx context.Context) (int64, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From(scenesTable).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count scenes", err)
	}
	return count, nil
}

// MatchFieldValues returns distinct non-empty values of field containing query
func (a *SceneAdapter) MatchFieldValues(ctx context.Context, field, query string, limit int) ([]string, error) {
	if !sceneMatchFields[field] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("field %q cannot be matched", field))
	}
	if limit <= 0 {
		return []string{}, nil
	}

	col := goqu.C(field)
	sqlQuery, args, err := a.db.From(scenesTable).
		Select(col).
		Distinct().
		Where(
			col.ILike(containsPattern(query)),
			col.Neq(""),
		).
		Order(col.Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build match query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to match scene field values", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.NewInternalError("failed to scan field value", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate field values", err)
	}

	return values, nil
}

// Search finds scenes matching query in any text field
func (a *SceneAdapter) Search(ctx context.Context, query string, limit, offset int) ([]*entities.Scene, int, error) {
	pattern := containsPattern(query)
	where := goqu.Or(
		goqu.C("title").ILike(pattern),
		goqu.C("country").ILike(pattern),
		goqu.C("setting").ILike(pattern),
		goqu.C("emotion").ILike(pattern),
		goqu.C("full_text").ILike(pattern),
	)

	countQuery, countArgs, err := a.db.Select(goqu.COUNT("*")).From(scenesTable).Where(where).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count matching scenes", err)
	}
	if total == 0 {
		return []*entities.Scene{}, 0, nil
	}

	listQuery, listArgs, err := a.db.Select(sceneColumns...).
		From(scenesTable).
		Where(where).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to search scenes", err)
	}
	defer rows.Close()

	scenes := []*entities.Scene{}
	for rows.Next() {
		scene, rawDetails, err := scanScene(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan scene", err)
		}
		if scene.Details, err = decodeDetails(rawDetails); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Int64("scene_id", scene.ID).Msg("returning scene without malformed details")
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to iterate scenes", err)
	}

	return scenes, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScene(row rowScanner) (*entities.Scene, []byte, error) {
	scene := &entities.Scene{}
	var rawDetails []byte
	err := row.Scan(
		&scene.ID,
		&scene.Title,
		&scene.EffeminateAge,
		&scene.MasculineAge,
		&scene.Country,
		&scene.Setting,
		&scene.Emotion,
		&scene.FullText,
		&rawDetails,
		&scene.CreatedAt,
		&scene.UpdatedAt,
	)
	if err != nil {
		return nil, nil, err
	}
	return scene, rawDetails, nil
}

func encodeDetails(details *entities.SceneDetails) (interface{}, error) {
	if details == nil {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeDetails(raw []byte) (*entities.SceneDetails, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	details := &entities.SceneDetails{}
	if err := json.Unmarshal(raw, details); err != nil {
		return nil, err
	}
	return details, nil
}
