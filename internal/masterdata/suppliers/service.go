package suppliers

import (
	"context"
	"errors"
	"strings"

	mdshared "github.com/konta-pos/konta-pos/internal/masterdata/shared"
)

// Service orchestrates supplier operations.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Supplier, int64, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (*Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, sup Supplier) (int64, error) {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.NIT = strings.TrimSpace(sup.NIT)
	if sup.Name == "" {
		return 0, errors.New("suppliers: name is required")
	}
	if sup.NIT == "" {
		return 0, errors.New("suppliers: nit is required")
	}
	return s.repo.Create(ctx, sup)
}

func (s *Service) Update(ctx context.Context, id int64, updates map[string]any) error {
	return s.repo.Update(ctx, id, updates)
}
