package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

const suggestionDocType = "suggestion"

// wildcard metacharacters are dropped from user queries
var wildcardStripper = strings.NewReplacer("*", "", "?", "", `\`, "")

// BleveAdapter keeps an in-process suggestion index for deployments without
// Typesense. It is rebuilt from the store and lost on restart.
type BleveAdapter struct {
	mu    sync.RWMutex
	index bleve.Index
}

var _ repositories.SuggestionIndex = (*BleveAdapter)(nil)

// NewBleveAdapter creates an empty in-memory index
func NewBleveAdapter() (*BleveAdapter, error) {
	index, err := bleve.NewMemOnly(suggestionIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion index: %w", err)
	}
	return &BleveAdapter{index: index}, nil
}

func suggestionIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	termField := bleve.NewTextFieldMapping()
	termField.Store = true
	termField.Index = true
	termField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("term", termField)

	categoryField := bleve.NewTextFieldMapping()
	categoryField.Store = true
	categoryField.Index = true
	categoryField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("category", categoryField)

	frequencyField := bleve.NewNumericFieldMapping()
	frequencyField.Store = true
	frequencyField.Index = true
	docMapping.AddFieldMappingsAt("frequency", frequencyField)

	lastUsedField := bleve.NewNumericFieldMapping()
	lastUsedField.Store = true
	lastUsedField.Index = true
	docMapping.AddFieldMappingsAt("last_used", lastUsedField)

	indexMapping.AddDocumentMapping(suggestionDocType, docMapping)
	indexMapping.DefaultType = suggestionDocType
	return indexMapping
}

// EnsureSchema is a no-op, the mapping is fixed at construction
func (a *BleveAdapter) EnsureSchema(ctx context.Context) error {
	return nil
}

// Reset replaces the index with an empty one
func (a *BleveAdapter) Reset(ctx context.Context) error {
	fresh, err := bleve.NewMemOnly(suggestionIndexMapping())
	if err != nil {
		return apperrors.NewInternalError("failed to recreate suggestion index", err)
	}

	a.mu.Lock()
	old := a.index
	a.index = fresh
	a.mu.Unlock()

	if err := old.Close(); err != nil {
		return apperrors.NewInternalError("failed to close suggestion index", err)
	}
	return nil
}

// Upsert indexes or replaces suggestions in one batch
func (a *BleveAdapter) Upsert(ctx context.Context, suggestions []*entities.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	batch := a.index.NewBatch()
	for _, s := range suggestions {
		doc := suggestionDocument(s)
		delete(doc, "id")
		if err := batch.Index(documentID(s.ID), doc); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to index suggestion %d", s.ID), err)
		}
	}
	if err := a.index.Batch(batch); err != nil {
		return apperrors.NewInternalError("failed to index suggestions", err)
	}
	return nil
}

// Delete removes suggestions by row ID
func (a *BleveAdapter) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	batch := a.index.NewBatch()
	for _, id := range ids {
		batch.Delete(documentID(id))
	}
	if err := a.index.Batch(batch); err != nil {
		return apperrors.NewInternalError("failed to delete suggestions from index", err)
	}
	return nil
}

// IDs lists every indexed row ID
func (a *BleveAdapter) IDs(ctx context.Context) ([]int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := []int64{}
	for from := 0; ; from += idPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), idPageSize, from, false)
		req.SortBy([]string{"_id"})
		result, err := a.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to list indexed suggestions", err)
		}
		for _, hit := range result.Hits {
			if id, err := strconv.ParseInt(hit.ID, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(result.Hits) < idPageSize {
			return ids, nil
		}
	}
}

// Search matches terms containing query, ranked by frequency then recency
func (a *BleveAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Suggestion, error) {
	q := wildcardStripper.Replace(normalizeQuery(query))
	if q == "" {
		return []*entities.Suggestion{}, nil
	}

	contains := bleve.NewWildcardQuery("*" + q + "*")
	contains.SetField("term")

	req := bleve.NewSearchRequestOptions(contains, clampLimit(limit), 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-frequency", "-last_used", "_id"})

	a.mu.RLock()
	result, err := a.index.SearchInContext(ctx, req)
	a.mu.RUnlock()
	if err != nil {
		return nil, apperrors.NewInternalError("suggestion index search failed", err)
	}

	suggestions := make([]*entities.Suggestion, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if s, ok := suggestionFromDocument(hit.ID, hit.Fields); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

// Count returns the number of indexed suggestions
func (a *BleveAdapter) Count() (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index.DocCount()
}

// Close releases the index
func (a *BleveAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Close()
}
