package customers

import (
	"context"
	"errors"
	"strings"

	mdshared "github.com/konta-pos/konta-pos/internal/masterdata/shared"
)

// Service orchestrates customer operations.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int64, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Customer) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Document = strings.TrimSpace(c.Document)
	if c.Name == "" {
		return 0, errors.New("customers: name is required")
	}
	if c.Document == "" {
		return 0, errors.New("customers: document is required")
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, updates map[string]any) error {
	return s.repo.Update(ctx, id, updates)
}
