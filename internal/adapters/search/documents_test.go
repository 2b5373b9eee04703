package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

func TestSuggestionDocument_RoundTripsThroughJSONNumbers(t *testing.T) {
	lastUsed := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	doc := suggestionDocument(&entities.Suggestion{
		ID:        42,
		Term:      "quiet dawn",
		Category:  entities.CategoryTitle,
		Frequency: 7,
		LastUsed:  lastUsed,
	})
	assert.Equal(t, "42", doc["id"])

	// indexes return numbers as float64
	doc["frequency"] = float64(7)
	doc["last_used"] = float64(lastUsed.Unix())

	s, ok := suggestionFromDocument("", doc)
	require.True(t, ok)
	assert.Equal(t, int64(42), s.ID)
	assert.Equal(t, "quiet dawn", s.Term)
	assert.Equal(t, entities.CategoryTitle, s.Category)
	assert.Equal(t, 7, s.Frequency)
	assert.True(t, lastUsed.Equal(s.LastUsed))
}

func TestSuggestionFromDocument_RejectsIncompleteHits(t *testing.T) {
	_, ok := suggestionFromDocument("abc", map[string]interface{}{"term": "paris", "category": "country"})
	assert.False(t, ok)

	_, ok = suggestionFromDocument("1", map[string]interface{}{"term": "paris", "category": "planet"})
	assert.False(t, ok)

	_, ok = suggestionFromDocument("1", map[string]interface{}{"category": "country"})
	assert.False(t, ok)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MaxSearchResults, clampLimit(0))
	assert.Equal(t, MaxSearchResults, clampLimit(500))
	assert.Equal(t, 5, clampLimit(5))
}
