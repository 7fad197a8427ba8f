package db

import (
	"context"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Searcher runs one query round trip against a collection.
type Searcher interface {
	Pinger
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}

// SetStore provides set operations for small persisted token lists.
type SetStore interface {
	Pinger
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
