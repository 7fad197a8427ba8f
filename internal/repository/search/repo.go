package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/clustersearch/internal/db"
	"github.com/kailas-cloud/clustersearch/internal/domain"
	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Fields names the stored fields lifted onto result.Document.
type Fields struct {
	ID      string
	Title   string
	Cluster string
}

// DefaultFields matches the abstracts schema.
func DefaultFields() Fields {
	return Fields{ID: "id", Title: "title", Cluster: query.ClusterField}
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store  store
	fields Fields
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s, fields: DefaultFields()}
}

// WithFields overrides the lifted field names.
func (r *Repo) WithFields(f Fields) *Repo {
	if f.ID != "" {
		r.fields.ID = f.ID
	}
	if f.Title != "" {
		r.fields.Title = f.Title
	}
	if f.Cluster != "" {
		r.fields.Cluster = f.Cluster
	}
	return r
}

// Query runs one round trip and converts the response into a result.Set.
func (r *Repo) Query(
	ctx context.Context, collection, term string, params query.Params,
) (*result.Set, error) {
	sr, err := r.store.Search(ctx, &db.Query{Collection: collection, Term: term, Params: params})
	if err != nil {
		return nil, mapError(err)
	}
	return r.toSet(sr), nil
}

// mapError translates backend failures into domain errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	case errors.Is(err, db.ErrBadQuery):
		return fmt.Errorf("%w: %w", domain.ErrBackendQuery, err)
	default:
		return fmt.Errorf("search: %w", err)
	}
}

func (r *Repo) toSet(sr *db.SearchResult) *result.Set {
	if sr == nil {
		return &result.Set{}
	}

	set := &result.Set{
		Hits:         sr.NumFound,
		Documents:    r.toDocuments(sr.Docs),
		Highlighting: sr.Highlighting,
	}

	if len(sr.FacetFields) > 0 {
		set.Facets = make(map[string][]string, len(sr.FacetFields))
		for field, flat := range sr.FacetFields {
			values := make([]string, len(flat))
			for i, v := range flat {
				values[i] = result.Text(v, "")
			}
			set.Facets[field] = values
		}
	}

	if len(sr.Grouped) > 0 {
		set.Grouped = make(map[string]result.Grouping, len(sr.Grouped))
		for field, g := range sr.Grouped {
			grouping := result.Grouping{Matches: g.Matches, Groups: make([]result.Group, 0, len(g.Groups))}
			for _, e := range g.Groups {
				id, ok := result.Int(e.GroupValue)
				if !ok {
					id = -1
				}
				grouping.Groups = append(grouping.Groups, result.Group{
					Value:     result.Text(e.GroupValue, ""),
					ClusterID: id,
					NumFound:  e.NumFound,
					Documents: r.toDocuments(e.Docs),
				})
			}
			set.Grouped[field] = grouping
		}
	}

	return set
}

func (r *Repo) toDocuments(docs []db.Doc) []result.Document {
	out := make([]result.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.toDocument(d))
	}
	return out
}

func (r *Repo) toDocument(d db.Doc) result.Document {
	doc := result.Document{
		ID:     result.Text(d[r.fields.ID], ""),
		Title:  result.Text(d[r.fields.Title], ""),
		Fields: map[string]any(d),
	}
	if n, ok := result.Int(d[r.fields.Cluster]); ok {
		doc.ClusterNum = n
	} else {
		doc.ClusterNum = -1
	}
	return doc
}
