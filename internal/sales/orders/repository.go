package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/db"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Repository is the sales-order persistence boundary. The
// pending→executed transition is not here: it commits inside the
// billing transaction so the invoice and the status flip are atomic.
type Repository interface {
	Create(ctx context.Context, order *SalesOrder, items []OrderItem) error
	Get(ctx context.Context, id int64) (OrderDetail, error)
	List(ctx context.Context, f OrderFilters) ([]SalesOrder, int64, error)
	// CancelPending flips pending to cancelled, guarded.
	CancelPending(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Create(ctx context.Context, order *SalesOrder, items []OrderItem) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO sales_orders (customer_id, seller_id, created_by, status, notes, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id, created_at, updated_at`,
			order.CustomerID, order.SellerID, order.CreatedBy, order.Status, order.Notes, order.Total).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("orders: insert order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.QueryRow(ctx, `
				INSERT INTO sales_order_items (order_id, product_id, quantity, unit_price, discount_percent)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				order.ID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice, items[i].Discount).
				Scan(&items[i].ID); err != nil {
				return fmt.Errorf("orders: insert item: %w", err)
			}
		}
		return nil
	})
}

func (r *pgRepository) Get(ctx context.Context, id int64) (OrderDetail, error) {
	var d OrderDetail
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_id, seller_id, created_by, status, COALESCE(notes, ''), total, invoice_id, created_at, updated_at
		FROM sales_orders WHERE id = $1`, id).
		Scan(&d.Order.ID, &d.Order.CustomerID, &d.Order.SellerID, &d.Order.CreatedBy,
			&d.Order.Status, &d.Order.Notes, &d.Order.Total, &d.Order.InvoiceID,
			&d.Order.CreatedAt, &d.Order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, httpx.ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("orders: get order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, discount_percent
		FROM sales_order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return d, fmt.Errorf("orders: get items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Discount); err != nil {
			return d, fmt.Errorf("orders: scan item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, f OrderFilters) ([]SalesOrder, int64, error) {
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
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.SellerID > 0 {
		where += fmt.Sprintf(" AND seller_id = $%d", idx)
		args = append(args, f.SellerID)
		idx++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, customer_id, seller_id, created_by, status, COALESCE(notes, ''), total, invoice_id, created_at, updated_at
		FROM sales_orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, f.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		var o SalesOrder
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.SellerID, &o.CreatedBy, &o.Status,
			&o.Notes, &o.Total, &o.InvoiceID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("orders: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) CancelPending(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sales_orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`, StatusCancelled, id, StatusPending)
	if err != nil {
		return fmt.Errorf("orders: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}
