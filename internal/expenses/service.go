package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Service manages expense records.
type Service struct {
	repo Repository
}

// NewService wires the expenses service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers an expense. spent_at defaults to today when absent.
func (s *Service) Create(ctx context.Context, req CreateExpenseRequest, createdBy int64) (Expense, error) {
	if strings.TrimSpace(req.Concept) == "" {
		return Expense{}, fmt.Errorf("%w: concept is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(req.Category) == "" {
		return Expense{}, fmt.Errorf("%w: category is required", httpx.ErrValidation)
	}
	if req.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}

	spentAt := time.Now()
	if req.SpentAt != "" {
		parsed, err := time.Parse("2006-01-02", req.SpentAt)
		if err != nil {
			return Expense{}, fmt.Errorf("%w: spent_at must be YYYY-MM-DD", httpx.ErrValidation)
		}
		spentAt = parsed
	}

	e := Expense{
		Concept:   strings.TrimSpace(req.Concept),
		Category:  strings.TrimSpace(req.Category),
		Amount:    req.Amount,
		SpentAt:   spentAt,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, &e); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// Get fetches one expense.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	return s.repo.Get(ctx, id)
}

// List returns expenses matching the filters.
func (s *Service) List(ctx context.Context, f ExpenseFilters) ([]Expense, int64, error) {
	return s.repo.List(ctx, f)
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// MonthlyTotals aggregates amounts per month of the given year.
func (s *Service) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	if year <= 0 {
		year = time.Now().Year()
	}
	return s.repo.MonthlyTotals(ctx, year)
}
