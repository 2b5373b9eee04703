package repositories

import (
	"context"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// SceneRepository defines the interface for scene data operations
type SceneRepository interface {
	// Save creates the scene when its ID is zero and updates it otherwise.
	// A duplicate title yields a CONFLICT error.
	Save(ctx context.Context, scene *entities.Scene) error

	// GetByID retrieves a scene by ID
	GetByID(ctx context.Context, id int64) (*entities.Scene, error)

	// Delete deletes a scene
	Delete(ctx context.Context, id int64) error

	// ListAfter reads up to limit scenes with an ID greater than afterID,
	// ordered by ID. Rows whose details cannot be decoded are skipped but
	// still advance the cursor.
	ListAfter(ctx context.Context, afterID int64, limit int) (*ScenePage, error)

	// Count returns the number of scenes
	Count(ctx context.Context) (int64, error)

	// MatchFieldValues returns distinct values of field (title, country,
	// setting or emotion) containing query, case-insensitively.
	MatchFieldValues(ctx context.Context, field, query string, limit int) ([]string, error)

	// Search finds scenes whose title, country, setting, emotion or body
	// contains query. It also returns the total number of matches.
	Search(ctx context.Context, query string, limit, offset int) ([]*entities.Scene, int, error)
}

// ScenePage is one keyset page of the scene table
type ScenePage struct {
	Scenes []*entities.Scene
	// LastID is the ID of the last row read, skipped or not
	LastID int64
	// Scanned counts every row read, including skipped ones
	Scanned int
	Skipped int
}

// Exhausted reports whether the page was the last one for the given limit
func (p *ScenePage) Exhausted(limit int) bool {
	return p.Scanned < limit
}
