package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

type memRepo struct {
	expenses map[int64]Expense
	nextID   int64
}

func newMemRepo() *memRepo {
	return &memRepo{expenses: make(map[int64]Expense), nextID: 1}
}

func (r *memRepo) Create(ctx context.Context, e *Expense) error {
	e.ID = r.nextID
	e.CreatedAt = time.Now()
	r.nextID++
	r.expenses[e.ID] = *e
	return nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return Expense{}, httpx.ErrNotFound
	}
	return e, nil
}

func (r *memRepo) List(ctx context.Context, f ExpenseFilters) ([]Expense, int64, error) {
	var out []Expense
	for _, e := range r.expenses {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.expenses[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.expenses, id)
	return nil
}

func (r *memRepo) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	byMonth := make(map[int]float64)
	for _, e := range r.expenses {
		if e.SpentAt.Year() == year {
			byMonth[int(e.SpentAt.Month())] += e.Amount
		}
	}
	var out []MonthlyTotal
	for m, total := range byMonth {
		out = append(out, MonthlyTotal{Year: year, Month: m, Total: total})
	}
	return out, nil
}

func TestCreateExpense(t *testing.T) {
	svc := NewService(newMemRepo())

	e, err := svc.Create(context.Background(), CreateExpenseRequest{
		Concept:  "Arriendo local",
		Category: "rent",
		Amount:   1200000,
		SpentAt:  "2026-08-01",
	}, 1)
	require.NoError(t, err)
	require.NotZero(t, e.ID)
	require.Equal(t, 2026, e.SpentAt.Year())
	require.Equal(t, time.August, e.SpentAt.Month())
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Create(context.Background(), CreateExpenseRequest{Category: "rent", Amount: 100}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateExpenseRequest{Concept: "x", Category: "rent", Amount: 0}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateExpenseRequest{Concept: "x", Category: "rent", Amount: 100, SpentAt: "01/08/2026"}, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMonthlyTotals(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	for _, day := range []string{"2026-08-01", "2026-08-15", "2026-09-01"} {
		_, err := svc.Create(context.Background(), CreateExpenseRequest{
			Concept: "Servicios", Category: "utilities", Amount: 100, SpentAt: day,
		}, 1)
		require.NoError(t, err)
	}

	totals, err := svc.MonthlyTotals(context.Background(), 2026)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	sum := 0.0
	for _, m := range totals {
		sum += m.Total
	}
	require.InDelta(t, 300.0, sum, 0.0001)
}
