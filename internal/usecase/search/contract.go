package search

import (
	"context"

	"github.com/kailas-cloud/clustersearch/internal/domain/query"
	"github.com/kailas-cloud/clustersearch/internal/domain/result"
	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
)

// Repository runs one backend round trip against a collection.
type Repository interface {
	Query(ctx context.Context, collection, term string, params query.Params) (*result.Set, error)
}

// ExclusionSource provides the user exclusion list applied on top of stopwords.
type ExclusionSource interface {
	Set(ctx context.Context) (vocabulary.Set, error)
}
