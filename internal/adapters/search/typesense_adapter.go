package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/repositories"
	tsclient "github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/clients/typesense"
	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/infrastructure/observability"
	apperrors "github.com/codeaugment0-rgb/whispher-of-intemesy/pkg/errors"
)

// TypesenseAdapter mirrors the suggestion store into a Typesense collection
type TypesenseAdapter struct {
	client     *tsclient.Client
	collection string
}

var _ repositories.SuggestionIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client, collection: tsclient.SuggestionsCollection}
}

// EnsureSchema creates the collection if it does not exist
func (a *TypesenseAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.Client().Collection(a.collection).Retrieve(ctx); err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: a.collection,
		Fields: []api.Field{
			{Name: "term", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "frequency", Type: "int32"},
			{Name: "last_used", Type: "int64"},
		},
		DefaultSortingField: pointer.String("frequency"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return apperrors.NewExternalError("typesense request failed", err)
	}
	return nil
}

// Reset drops and recreates the collection
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	if _, err := a.client.Client().Collection(a.collection).Delete(ctx); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("collection", a.collection).Msg("collection delete failed, continuing")
	}
	return a.EnsureSchema(ctx)
}

// Upsert indexes or replaces suggestions one document at a time
func (a *TypesenseAdapter) Upsert(ctx context.Context, suggestions []*entities.Suggestion) error {
	docs := a.client.Client().Collection(a.collection).Documents()
	for _, s := range suggestions {
		if _, err := docs.Upsert(ctx, suggestionDocument(s)); err != nil {
			return apperrors.NewExternalError("typesense request failed", fmt.Errorf("upsert suggestion %d: %w", s.ID, err))
		}
	}
	return nil
}

// Delete removes suggestions from the collection. Missing documents are ignored.
func (a *TypesenseAdapter) Delete(ctx context.Context, ids []int64) error {
	logger := observability.LoggerFromContext(ctx)
	for _, id := range ids {
		if _, err := a.client.Client().Collection(a.collection).Document(documentID(id)).Delete(ctx); err != nil {
			logger.Debug().Err(err).Int64("suggestion_id", id).Msg("suggestion not removed from index")
		}
	}
	return nil
}

// IDs pages through the collection and lists every indexed row ID
func (a *TypesenseAdapter) IDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	for page := 1; ; page++ {
		params := &api.SearchCollectionParams{
			Q:             pointer.String("*"),
			QueryBy:       pointer.String("term"),
			IncludeFields: pointer.String("id"),
			PerPage:       pointer.Int(idPageSize),
			Page:          pointer.Int(page),
		}
		result, err := a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
		if err != nil {
			return nil, apperrors.NewExternalError("typesense request failed", err)
		}
		if result.Hits == nil {
			return ids, nil
		}
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			if id, err := strconv.ParseInt(stringField(*hit.Document, "id"), 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(*result.Hits) < idPageSize {
			return ids, nil
		}
	}
}

// Search runs an as-you-type query ranked by frequency then recency
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*entities.Suggestion, error) {
	q := normalizeQuery(query)
	if q == "" {
		return []*entities.Suggestion{}, nil
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("term"),
		SortBy:  pointer.String("_text_match:desc,frequency:desc,last_used:desc"),
		PerPage: pointer.Int(clampLimit(limit)),
	}

	result, err := a.client.Client().Collection(a.collection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewExternalError("typesense request failed", err)
	}

	suggestions := []*entities.Suggestion{}
	if result.Hits == nil {
		return suggestions, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if s, ok := suggestionFromDocument("", *hit.Document); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}
