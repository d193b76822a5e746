package products

import (
	"context"
	"errors"
	"strings"

	mdshared "github.com/konta-pos/konta-pos/internal/masterdata/shared"
)

const defaultTaxRate = 19

// Service orchestrates product catalog operations.
type Service struct {
	repo *Repository
}

// NewService constructs a Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns catalog entries.
func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int64, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

// Get fetches a product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a product with its opening stock.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (int64, error) {
	if strings.TrimSpace(req.SKU) == "" {
		return 0, errors.New("products: sku is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return 0, errors.New("products: name is required")
	}
	if req.Stock < 0 {
		return 0, errors.New("products: opening stock cannot be negative")
	}
	taxRate := req.TaxRate
	if taxRate == 0 {
		taxRate = defaultTaxRate
	}
	p := Product{
		SKU:     strings.TrimSpace(req.SKU),
		Name:    strings.TrimSpace(req.Name),
		Price:   req.Price,
		TaxRate: taxRate,
		Stock:   req.Stock,
	}
	return s.repo.Create(ctx, p)
}

// Update modifies descriptive fields. Stock never changes here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) error {
	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return errors.New("products: name is required")
		}
		updates["name"] = name
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.TaxRate != nil {
		updates["tax_rate"] = *req.TaxRate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	return s.repo.Update(ctx, id, updates)
}
