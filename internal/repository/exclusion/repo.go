package exclusion

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/clustersearch/internal/domain"
)

// DefaultKey is the set holding user-excluded keywords.
const DefaultKey = "clustersearch:exclusions"

// store is the consumer interface for exclusion persistence (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo implements usecase/exclusion.Repository over a Redis set.
type Repo struct {
	store store
	key   string
}

// New creates an exclusion repository. An empty key uses DefaultKey.
func New(s store, key string) *Repo {
	if key == "" {
		key = DefaultKey
	}
	return &Repo{store: s, key: key}
}

// Add stores a keyword. Returns true if it was not already present.
func (r *Repo) Add(ctx context.Context, keyword string) (bool, error) {
	n, err := r.store.SAdd(ctx, r.key, keyword)
	if err != nil {
		return false, fmt.Errorf("%w: add exclusion: %w", domain.ErrBackendUnavailable, err)
	}
	return n > 0, nil
}

// List returns every stored keyword.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	members, err := r.store.SMembers(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("%w: list exclusions: %w", domain.ErrBackendUnavailable, err)
	}
	return members, nil
}
