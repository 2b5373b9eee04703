package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

var suggestionRowColumns = []string{"id", "term", "category", "frequency", "last_used", "created_at"}

func newTestSuggestionAdapter(t *testing.T) (*SuggestionAdapter, sqlmock.Sqlmock, time.Time) {
	client, mock := setupMockClient(t)
	adapter := NewSuggestionAdapter(client).(*SuggestionAdapter)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	adapter.now = func() time.Time { return fixed }
	return adapter, mock, fixed
}

func TestSuggestionAdapter_Increment_IsSingleUpsert(t *testing.T) {
	adapter, mock, now := newTestSuggestionAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (term, category) DO UPDATE SET")).
		WithArgs("paris", "country", 3, now).
		WillReturnRows(sqlmock.NewRows(suggestionRowColumns).AddRow(4, "paris", "country", 6, now, now))

	s, err := adapter.Increment(context.Background(), "paris", entities.CategoryCountry, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.ID)
	assert.Equal(t, 6, s.Frequency)
	assert.Equal(t, entities.CategoryCountry, s.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_Increment_WrapsErrors(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	mock.ExpectQuery("INSERT INTO search_suggestions").WillReturnError(errors.New("connection reset"))

	_, err := adapter.Increment(context.Background(), "paris", entities.CategoryCountry, 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInternal))
}

func TestSuggestionAdapter_BulkInsert_AddsOnConflict(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	mock.ExpectExec(`INSERT INTO "search_suggestions" .* ON CONFLICT \(term, category\) DO UPDATE SET .*search_suggestions.frequency \+ EXCLUDED.frequency`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := adapter.BulkInsert(context.Background(), []repositories.SuggestionDelta{
		{Term: "quiet dawn", Category: entities.CategoryTitle, Amount: 2},
		{Term: "dawn", Category: entities.CategoryTitle, Amount: 1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_BulkInsert_Empty(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	require.NoError(t, adapter.BulkInsert(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_BulkIncrementAndSet(t *testing.T) {
	adapter, mock, now := newTestSuggestionAdapter(t)

	mock.ExpectExec(regexp.QuoteMeta("SET frequency = s.frequency + u.value")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("SET frequency = u.value")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updates := []repositories.FrequencyUpdate{{ID: 1, Value: 2}, {ID: 2, Value: 5}}
	require.NoError(t, adapter.BulkIncrement(context.Background(), updates))
	require.NoError(t, adapter.BulkSetFrequency(context.Background(), updates[:1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_Keys(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	mock.ExpectQuery(`SELECT "id", "term", "category" FROM "search_suggestions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "term", "category"}).
			AddRow(1, "paris", "country").
			AddRow(2, "paris", "content"))

	keys, err := adapter.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[entities.SuggestionKey]int64{
		{Term: "paris", Category: entities.CategoryCountry}: 1,
		{Term: "paris", Category: entities.CategoryContent}: 2,
	}, keys)
}

func TestSuggestionAdapter_Search_RankingOrderAndFilters(t *testing.T) {
	adapter, mock, now := newTestSuggestionAdapter(t)
	category := entities.CategoryContent

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE (("term" ILIKE '%paris%') AND ("category" = 'content')) ORDER BY "frequency" DESC, "last_used" DESC, "id" ASC LIMIT 10`)).
		WillReturnRows(sqlmock.NewRows(suggestionRowColumns).
			AddRow(2, "paris hotel", "content", 5, now, now).
			AddRow(1, "paris", "content", 3, now, now))

	results, err := adapter.Search(context.Background(), repositories.SuggestionFilter{
		Query:    "paris",
		Category: &category,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "paris hotel", results[0].Term)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_DeleteByIDs_Chunks(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	ids := make([]int64, suggestionChunkSize+3)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	mock.ExpectExec(`DELETE FROM "search_suggestions" WHERE \("id" IN \(1, 2,`).
		WillReturnResult(sqlmock.NewResult(0, int64(suggestionChunkSize)))
	mock.ExpectExec(`DELETE FROM "search_suggestions" WHERE \("id" IN \(501, 502, 503\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := adapter.DeleteByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(suggestionChunkSize+3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionAdapter_CategoryStats(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	mock.ExpectQuery(`SELECT "category", COUNT\(\*\) AS "count", AVG\("frequency"\) AS "avg_frequency" FROM "search_suggestions" GROUP BY "category"`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count", "avg_frequency"}).
			AddRow("content", 12, 2.5).
			AddRow("title", 3, 1.0))

	stats, err := adapter.CategoryStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, entities.CategoryContent, stats[0].Category)
	assert.Equal(t, int64(12), stats[0].Count)
	assert.InDelta(t, 2.5, stats[0].AvgFrequency, 0.001)
}

func TestSuggestionAdapter_DeleteAll(t *testing.T) {
	adapter, mock, _ := newTestSuggestionAdapter(t)

	mock.ExpectExec(`DELETE FROM "search_suggestions"$`).WillReturnResult(sqlmock.NewResult(0, 42))

	n, err := adapter.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
