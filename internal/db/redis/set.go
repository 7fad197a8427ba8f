package redis

import (
	"context"

	"github.com/kailas-cloud/clustersearch/internal/db"
)

// SAdd adds members to the set at key and returns how many were new.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSAdd, Err: err}
	}
	return n, nil
}

// SMembers returns all members of the set at key. A missing key is an empty set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}
