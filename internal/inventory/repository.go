package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/db"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Repository reads the ledger and applies manual adjustments.
type Repository interface {
	StockCard(ctx context.Context, productID int64, limit int) (StockCard, error)
	// Adjust applies a manual delta with the negative-stock guard and
	// writes the ledger row in the same transaction.
	Adjust(ctx context.Context, in AdjustmentInput) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) StockCard(ctx context.Context, productID int64, limit int) (StockCard, error) {
	if limit <= 0 {
		limit = 100
	}
	var card StockCard
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, stock FROM products WHERE id = $1`, productID).
		Scan(&card.ProductID, &card.ProductName, &card.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return card, httpx.ErrNotFound
	}
	if err != nil {
		return card, fmt.Errorf("inventory: stock card: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, delta, reason, COALESCE(ref_id, 0), COALESCE(actor_id, 0), COALESCE(note, ''), created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, productID, limit)
	if err != nil {
		return card, fmt.Errorf("inventory: movements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Reason, &m.RefID, &m.ActorID, &m.Note, &m.CreatedAt); err != nil {
			return card, fmt.Errorf("inventory: scan movement: %w", err)
		}
		card.Movements = append(card.Movements, m)
	}
	return card, rows.Err()
}

func (r *pgRepository) Adjust(ctx context.Context, in AdjustmentInput) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if in.Delta < 0 {
			// Conditional: never below zero.
			t, err := tx.Exec(ctx, `
				UPDATE products SET stock = stock + $1, updated_at = NOW()
				WHERE id = $2 AND stock >= $3`, in.Delta, in.ProductID, -in.Delta)
			if err != nil {
				return fmt.Errorf("inventory: adjust: %w", err)
			}
			if t.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, in.ProductID)
			}
		} else {
			t, err := tx.Exec(ctx, `
				UPDATE products SET stock = stock + $1, updated_at = NOW()
				WHERE id = $2`, in.Delta, in.ProductID)
			if err != nil {
				return fmt.Errorf("inventory: adjust: %w", err)
			}
			if t.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", httpx.ErrNotFound, in.ProductID)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO stock_movements (product_id, delta, reason, actor_id, note, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())`,
			in.ProductID, in.Delta, ReasonAdjust, in.ActorID, in.Note)
		if err != nil {
			return fmt.Errorf("inventory: insert movement: %w", err)
		}
		return nil
	})
}
