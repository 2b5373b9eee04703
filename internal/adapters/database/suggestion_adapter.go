package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/postgres"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

const (
	suggestionsTable = "search_suggestions"
	// rows per statement for bulk writes
	suggestionChunkSize = 500
)

var suggestionColumns = []interface{}{"id", "term", "category", "frequency", "last_used", "created_at"}

const incrementSuggestionSQL = `
	INSERT INTO search_suggestions (term, category, frequency, last_used, created_at)
	VALUES ($1, $2, $3, $4, $4)
	ON CONFLICT (term, category) DO UPDATE SET
		frequency = search_suggestions.frequency + EXCLUDED.frequency,
		last_used = EXCLUDED.last_used
	RETURNING id, term, category, frequency, last_used, created_at
`

const bulkIncrementSQL = `
	UPDATE search_suggestions AS s
	SET frequency = s.frequency + u.value, last_used = $3
	FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::bigint[]) AS value) AS u
	WHERE s.id = u.id
`

const bulkSetFrequencySQL = `
	UPDATE search_suggestions AS s
	SET frequency = u.value, last_used = $3
	FROM (SELECT unnest($1::bigint[]) AS id, unnest($2::bigint[]) AS value) AS u
	WHERE s.id = u.id
`

// SuggestionAdapter implements SuggestionRepository on PostgreSQL
type SuggestionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewSuggestionAdapter creates a new suggestion adapter
func NewSuggestionAdapter(client *postgres.Client) repositories.SuggestionRepository {
	return &SuggestionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Increment upserts a single (term, category) pair in one statement
func (a *SuggestionAdapter) Increment(ctx context.Context, term string, category entities.Category, by int) (*entities.Suggestion, error) {
	row := a.client.DB().QueryRowContext(ctx, incrementSuggestionSQL, term, string(category), by, a.now())

	s, err := scanSuggestion(row)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to increment suggestion", err)
	}
	return s, nil
}

// BulkInsert inserts new pairs, adding to any row that already exists
func (a *SuggestionAdapter) BulkInsert(ctx context.Context, rows []repositories.SuggestionDelta) error {
	now := a.now()
	for start := 0; start < len(rows); start += suggestionChunkSize {
		end := min(start+suggestionChunkSize, len(rows))

		records := make([]interface{}, 0, end-start)
		for _, r := range rows[start:end] {
			records = append(records, goqu.Record{
				"term":       r.Term,
				"category":   string(r.Category),
				"frequency":  r.Amount,
				"last_used":  now,
				"created_at": now,
			})
		}

		query, args, err := a.db.Insert(suggestionsTable).
			Rows(records...).
			OnConflict(goqu.DoUpdate("term, category", goqu.Record{
				"frequency": goqu.L("search_suggestions.frequency + EXCLUDED.frequency"),
				"last_used": goqu.L("EXCLUDED.last_used"),
			})).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build bulk insert query", err)
		}

		if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to bulk insert suggestions", err)
		}
	}
	return nil
}

// BulkIncrement adds amounts to existing rows
func (a *SuggestionAdapter) BulkIncrement(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	return a.bulkUpdate(ctx, bulkIncrementSQL, updates, "failed to bulk increment suggestions")
}

// BulkSetFrequency overwrites the frequency of existing rows
func (a *SuggestionAdapter) BulkSetFrequency(ctx context.Context, updates []repositories.FrequencyUpdate) error {
	return a.bulkUpdate(ctx, bulkSetFrequencySQL, updates, "failed to bulk set suggestion frequencies")
}

func (a *SuggestionAdapter) bulkUpdate(ctx context.Context, stmt string, updates []repositories.FrequencyUpdate, failMsg string) error {
	now := a.now()
	for start := 0; start < len(updates); start += suggestionChunkSize {
		end := min(start+suggestionChunkSize, len(updates))

		ids := make([]int64, 0, end-start)
		values := make([]int64, 0, end-start)
		for _, u := range updates[start:end] {
			ids = append(ids, u.ID)
			values = append(values, int64(u.Value))
		}

		if _, err := a.client.DB().ExecContext(ctx, stmt, pq.Array(ids), pq.Array(values), now); err != nil {
			return apperrors.NewInternalError(failMsg, err)
		}
	}
	return nil
}

// Keys snapshots every (term, category) key of the store
func (a *SuggestionAdapter) Keys(ctx context.Context) (map[entities.SuggestionKey]int64, error) {
	query, args, err := a.db.Select("id", "term", "category").From(suggestionsTable).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build keys query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load suggestion keys", err)
	}
	defer rows.Close()

	keys := make(map[entities.SuggestionKey]int64)
	for rows.Next() {
		var (
			id       int64
			term     string
			category string
		)
		if err := rows.Scan(&id, &term, &category); err != nil {
			return nil, apperrors.NewInternalError("failed to scan suggestion key", err)
		}
		keys[entities.SuggestionKey{Term: term, Category: entities.Category(category)}] = id
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate suggestion keys", err)
	}

	return keys, nil
}

// Search looks up suggestions by substring in ranking order
func (a *SuggestionAdapter) Search(ctx context.Context, filter repositories.SuggestionFilter) ([]*entities.Suggestion, error) {
	ds := a.db.Select(suggestionColumns...).From(suggestionsTable)

	if filter.Query != "" {
		ds = ds.Where(goqu.C("term").ILike(containsPattern(filter.Query)))
	}
	if filter.Category != nil {
		ds = ds.Where(goqu.C("category").Eq(string(*filter.Category)))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.Order(
		goqu.C("frequency").Desc(),
		goqu.C("last_used").Desc(),
		goqu.C("id").Asc(),
	).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build suggestion search query", err)
	}

	return a.querySuggestions(ctx, query, args, "failed to search suggestions")
}

// ListAfter pages through the store by ID
func (a *SuggestionAdapter) ListAfter(ctx context.Context, afterID int64, limit int) ([]*entities.Suggestion, error) {
	if limit <= 0 {
		limit = 1000
	}

	query, args, err := a.db.Select(suggestionColumns...).
		From(suggestionsTable).
		Where(goqu.C("id").Gt(afterID)).
		Order(goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.querySuggestions(ctx, query, args, "failed to list suggestions")
}

// DeleteByIDs deletes the given rows
func (a *SuggestionAdapter) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	var deleted int64
	for _, chunk := range chunkIDs(ids, suggestionChunkSize) {
		query, args, err := a.db.Delete(suggestionsTable).Where(goqu.Ex{"id": chunk}).ToSQL()
		if err != nil {
			return deleted, apperrors.NewInternalError("failed to build delete query", err)
		}

		result, err := a.client.DB().ExecContext(ctx, query, args...)
		if err != nil {
			return deleted, apperrors.NewInternalError("failed to delete suggestions", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return deleted, apperrors.NewInternalError("failed to get rows affected", err)
		}
		deleted += n
	}
	return deleted, nil
}

// DeleteAll empties the store
func (a *SuggestionAdapter) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := a.db.Delete(suggestionsTable).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to clear suggestions", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return n, nil
}

// Count returns the number of suggestions
func (a *SuggestionAdapter) Count(ctx context.Context) (int64, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From(suggestionsTable).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int64
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count suggestions", err)
	}
	return count, nil
}

// CategoryStats returns count and average frequency per category
func (a *SuggestionAdapter) CategoryStats(ctx context.Context) ([]entities.CategoryStat, error) {
	query, args, err := a.db.Select(
		goqu.C("category"),
		goqu.COUNT("*").As("count"),
		goqu.AVG("frequency").As("avg_frequency"),
	).
		From(suggestionsTable).
		GroupBy("category").
		Order(goqu.C("category").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stats query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load suggestion stats", err)
	}
	defer rows.Close()

	stats := []entities.CategoryStat{}
	for rows.Next() {
		var (
			stat     entities.CategoryStat
			category string
		)
		if err := rows.Scan(&category, &stat.Count, &stat.AvgFrequency); err != nil {
			return nil, apperrors.NewInternalError("failed to scan suggestion stats", err)
		}
		stat.Category = entities.Category(category)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate suggestion stats", err)
	}

	return stats, nil
}

func (a *SuggestionAdapter) querySuggestions(ctx context.Context, query string, args []interface{}, failMsg string) ([]*entities.Suggestion, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}
	defer rows.Close()

	suggestions := []*entities.Suggestion{}
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan suggestion", err)
		}
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(failMsg, err)
	}

	return suggestions, nil
}

func scanSuggestion(row rowScanner) (*entities.Suggestion, error) {
	s := &entities.Suggestion{}
	var category string
	if err := row.Scan(&s.ID, &s.Term, &category, &s.Frequency, &s.LastUsed, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Category = entities.Category(category)
	return s, nil
}
