package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// MaxSearchResults caps a single index lookup
const MaxSearchResults = 50

// idPageSize is the page size used when listing indexed ids
const idPageSize = 250

// suggestionDocument flattens a suggestion into the document both indexes store.
// last_used is kept as unix seconds so it sorts numerically.
func suggestionDocument(s *entities.Suggestion) map[string]interface{} {
	return map[string]interface{}{
		"id":        documentID(s.ID),
		"term":      s.Term,
		"category":  string(s.Category),
		"frequency": s.Frequency,
		"last_used": s.LastUsed.Unix(),
	}
}

// suggestionFromDocument rebuilds a suggestion from an index hit. It reports
// false when the document lacks a usable id, term or category.
func suggestionFromDocument(id string, doc map[string]interface{}) (*entities.Suggestion, bool) {
	if id == "" {
		id, _ = doc["id"].(string)
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, false
	}

	term, _ := doc["term"].(string)
	category := entities.Category(stringField(doc, "category"))
	if term == "" || !category.Valid() {
		return nil, false
	}

	s := &entities.Suggestion{
		ID:        rowID,
		Term:      term,
		Category:  category,
		Frequency: int(numberField(doc, "frequency")),
	}
	if lastUsed := numberField(doc, "last_used"); lastUsed > 0 {
		s.LastUsed = time.Unix(lastUsed, 0).UTC()
	}
	return s, true
}

func documentID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func stringField(doc map[string]interface{}, key string) string {
	v, _ := doc[key].(string)
	return v
}

// numberField accepts the numeric types JSON decoding and the indexes hand back
func numberField(doc map[string]interface{}, key string) int64 {
	switch v := doc[key].(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// normalizeQuery lower-cases and trims an as-you-type query
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxSearchResults {
		return MaxSearchResults
	}
	return limit
}
