package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/db"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// TxRepository exposes the mutations of one receipt transaction.
type TxRepository interface {
	ProductExists(ctx context.Context, productID int64) error
	InsertPurchase(ctx context.Context, p *Purchase) error
	InsertItems(ctx context.Context, purchaseID int64, items []PurchaseItem) error
	IncrementStock(ctx context.Context, productID, quantity int64) error
	InsertMovement(ctx context.Context, productID, delta int64, refID int64) error
}

// Repository is the purchases persistence boundary.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (PurchaseDetail, error)
	List(ctx context.Context, f PurchaseFilters) ([]Purchase, int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *pgRepository) Get(ctx context.Context, id int64) (PurchaseDetail, error) {
	var d PurchaseDetail
	err := r.pool.QueryRow(ctx, `
		SELECT id, supplier_id, buyer_id, COALESCE(notes, ''), total, received_at
		FROM purchases WHERE id = $1`, id).
		Scan(&d.Purchase.ID, &d.Purchase.SupplierID, &d.Purchase.BuyerID,
			&d.Purchase.Notes, &d.Purchase.Total, &d.Purchase.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, httpx.ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("purchases: get: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_cost, line_total
		FROM purchase_items WHERE purchase_id = $1 ORDER BY id`, id)
	if err != nil {
		return d, fmt.Errorf("purchases: get items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.UnitCost, &it.LineTotal); err != nil {
			return d, fmt.Errorf("purchases: scan item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, f PurchaseFilters) ([]Purchase, int64, error) {
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
	if f.SupplierID > 0 {
		where += fmt.Sprintf(" AND supplier_id = $%d", idx)
		args = append(args, f.SupplierID)
		idx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchases "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("purchases: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, supplier_id, buyer_id, COALESCE(notes, ''), total, received_at
		FROM purchases %s ORDER BY received_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, f.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("purchases: list: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.BuyerID, &p.Notes, &p.Total, &p.ReceivedAt); err != nil {
			return nil, 0, fmt.Errorf("purchases: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) ProductExists(ctx context.Context, productID int64) error {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	if err != nil {
		return fmt.Errorf("purchases: product exists: %w", err)
	}
	return nil
}

func (t *txRepository) InsertPurchase(ctx context.Context, p *Purchase) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchases (supplier_id, buyer_id, notes, total, received_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.SupplierID, p.BuyerID, p.Notes, p.Total, p.ReceivedAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("purchases: insert: %w", err)
	}
	return nil
}

func (t *txRepository) InsertItems(ctx context.Context, purchaseID int64, items []PurchaseItem) error {
	for i := range items {
		items[i].PurchaseID = purchaseID
		if err := t.tx.QueryRow(ctx, `
			INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			purchaseID, items[i].ProductID, items[i].Quantity, items[i].UnitCost, items[i].LineTotal).
			Scan(&items[i].ID); err != nil {
			return fmt.Errorf("purchases: insert item: %w", err)
		}
	}
	return nil
}

func (t *txRepository) IncrementStock(ctx context.Context, productID, quantity int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2`, quantity, productID)
	if err != nil {
		return fmt.Errorf("purchases: increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, productID, delta int64, refID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, delta, reason, ref_id, created_at)
		VALUES ($1, $2, 'PURCHASE', $3, NOW())`, productID, delta, refID)
	if err != nil {
		return fmt.Errorf("purchases: insert movement: %w", err)
	}
	return nil
}
