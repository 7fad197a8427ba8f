package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/clustersearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
