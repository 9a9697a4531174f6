package catalog

import (
	"context"
	"fmt"
)

// Lookup is the read-side contract the quote engine consumes.
type Lookup interface {
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, includeInactive bool) ([]Item, error)
}

// Service exposes catalog reads. Catalog maintenance itself lives outside
// this system; quotes only ever read from here.
type Service struct {
	repo Lookup
}

// NewService constructs a Service.
func NewService(repo Lookup) *Service {
	return &Service{repo: repo}
}

// Get returns a catalog item by id.
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("catalog: get item %d: %w", id, err)
	}
	return item, nil
}

// List returns the active catalog.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx, false)
}
