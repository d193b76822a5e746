package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Repository is the expenses persistence boundary.
type Repository interface {
	Create(ctx context.Context, e *Expense) error
	Get(ctx context.Context, id int64) (Expense, error)
	List(ctx context.Context, f ExpenseFilters) ([]Expense, int64, error)
	Delete(ctx context.Context, id int64) error
	MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, e *Expense) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (concept, category, amount, spent_at, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at`,
		e.Concept, e.Category, e.Amount, e.SpentAt, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("expenses: insert: %w", err)
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `
		SELECT id, concept, category, amount, spent_at, created_by, created_at
		FROM expenses WHERE id = $1`, id).
		Scan(&e.ID, &e.Concept, &e.Category, &e.Amount, &e.SpentAt, &e.CreatedBy, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return e, httpx.ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("expenses: get: %w", err)
	}
	return e, nil
}

func (r *pgRepository) List(ctx context.Context, f ExpenseFilters) ([]Expense, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	where := "WHERE 1=1"
	args := []any{}
	idx := 1
	if f.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, f.Category)
		idx++
	}
	if !f.From.IsZero() {
		where += fmt.Sprintf(" AND spent_at >= $%d", idx)
		args = append(args, f.From)
		idx++
	}
	if !f.To.IsZero() {
		where += fmt.Sprintf(" AND spent_at < $%d", idx)
		args = append(args, f.To)
		idx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM expenses "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("expenses: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, concept, category, amount, spent_at, created_by, created_at
		FROM expenses %s ORDER BY spent_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, f.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Concept, &e.Category, &e.Amount, &e.SpentAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("expenses: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("expenses: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *pgRepository) MonthlyTotals(ctx context.Context, year int) ([]MonthlyTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM spent_at)::int, EXTRACT(MONTH FROM spent_at)::int, SUM(amount)
		FROM expenses
		WHERE EXTRACT(YEAR FROM spent_at) = $1
		GROUP BY 1, 2
		ORDER BY 1, 2`, year)
	if err != nil {
		return nil, fmt.Errorf("expenses: monthly totals: %w", err)
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Year, &m.Month, &m.Total); err != nil {
			return nil, fmt.Errorf("expenses: scan total: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
