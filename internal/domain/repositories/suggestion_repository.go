package repositories

import (
	"context"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// SuggestionRepository defines the interface for the suggestion store
type SuggestionRepository interface {
	// Increment atomically creates the (term, category) row with frequency
	// `by` or adds `by` to the existing row, refreshing last_used.
	Increment(ctx context.Context, term string, category entities.Category, by int) (*entities.Suggestion, error)

	// BulkInsert creates new rows. Rows that already exist are incremented.
	BulkInsert(ctx context.Context, rows []SuggestionDelta) error

	// BulkIncrement adds each amount to the frequency of the row with that ID
	BulkIncrement(ctx context.Context, updates []FrequencyUpdate) error

	// BulkSetFrequency overwrites the frequency of the row with that ID
	BulkSetFrequency(ctx context.Context, updates []FrequencyUpdate) error

	// Keys returns a snapshot of every (term, category) key with its row ID
	Keys(ctx context.Context) (map[entities.SuggestionKey]int64, error)

	// Search returns suggestions whose term contains filter.Query, ordered by
	// frequency desc, last_used desc, id asc.
	Search(ctx context.Context, filter SuggestionFilter) ([]*entities.Suggestion, error)

	// ListAfter pages through the store in ID order
	ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.Suggestion, error)

	// DeleteByIDs deletes the given rows and returns how many were removed
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)

	// DeleteAll empties the store
	DeleteAll(ctx context.Context) (int64, error)

	// Count returns the number of rows
	Count(ctx context.Context) (int64, error)

	// CategoryStats returns the row count and average frequency per category
	CategoryStats(ctx context.Context) ([]entities.CategoryStat, error)
}

// SuggestionDelta is an amount to add to a (term, category) pair
type SuggestionDelta struct {
	Term     string
	Category entities.Category
	Amount   int
}

// FrequencyUpdate targets an existing row by ID
type FrequencyUpdate struct {
	ID    int64
	Value int
}

// SuggestionFilter defines the filters for a suggestion lookup
type SuggestionFilter struct {
	Query    string
	Category *entities.Category
	Limit    int
}

// SuggestionIndex mirrors the suggestion store into a search engine
type SuggestionIndex interface {
	// EnsureSchema creates the backing collection if needed
	EnsureSchema(ctx context.Context) error

	// Reset drops and recreates the collection
	Reset(ctx context.Context) error

	// Upsert indexes or replaces suggestions
	Upsert(ctx context.Context, suggestions []*entities.Suggestion) error

	// Delete removes suggestions by row ID
	Delete(ctx context.Context, ids []int64) error

	// IDs lists the row IDs currently indexed
	IDs(ctx context.Context) ([]int64, error)

	// Search returns indexed suggestions matching query as-you-type
	Search(ctx context.Context, query string, limit int) ([]*entities.Suggestion, error)
}
