package exclusion

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/clustersearch/internal/domain"
	"github.com/kailas-cloud/clustersearch/internal/domain/vocabulary"
)

// Outcome describes the result of an Add call.
type Outcome struct {
	// Keyword is the normalized keyword, echoed back to the caller.
	Keyword string
	// Persisted is false when no store is configured.
	Persisted bool
	// Added is false when the keyword was already excluded.
	Added bool
}

// Service manages the user exclusion list.
type Service struct {
	repo Repository
}

// New creates a Service. A nil repo disables persistence: Add only echoes.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enabled reports whether exclusions are persisted.
func (s *Service) Enabled() bool { return s.repo != nil }

// Add normalizes keyword and, when a store is configured, persists it.
func (s *Service) Add(ctx context.Context, keyword string) (Outcome, error) {
	kw := vocabulary.Normalize(keyword)
	if kw == "" {
		return Outcome{}, fmt.Errorf("%w: keyword is required", domain.ErrInvalidRequest)
	}
	if s.repo == nil {
		return Outcome{Keyword: kw}, nil
	}

	added, err := s.repo.Add(ctx, kw)
	if err != nil {
		return Outcome{}, fmt.Errorf("add exclusion: %w", err)
	}
	return Outcome{Keyword: kw, Persisted: true, Added: added}, nil
}

// List returns the excluded keywords, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	if s.repo == nil {
		return nil, domain.ErrExclusionsDisabled
	}
	set, err := s.Set(ctx)
	if err != nil {
		return nil, err
	}
	return set.Tokens(), nil
}

// Set returns the exclusions as a vocabulary set. Empty when disabled.
func (s *Service) Set(ctx context.Context) (vocabulary.Set, error) {
	if s.repo == nil {
		return vocabulary.Set{}, nil
	}
	members, err := s.repo.List(ctx)
	if err != nil {
		return vocabulary.Set{}, fmt.Errorf("list exclusions: %w", err)
	}
	return vocabulary.NewSet(members...), nil
}
