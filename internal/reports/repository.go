package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/billing"
)

// Repository runs the aggregate queries. Cancelled invoices never
// count; credit notes are joined through their invoice's issue period.
type Repository interface {
	SalesSummary(ctx context.Context, p Period) (SalesSummary, error)
	SalesBySeller(ctx context.Context, p Period) ([]SellerSales, error)
	TopProducts(ctx context.Context, p Period, limit int) ([]ProductSales, error)
	LowStock(ctx context.Context, threshold int64) ([]LowStockProduct, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) SalesSummary(ctx context.Context, p Period) (SalesSummary, error) {
	s := SalesSummary{From: p.From, To: p.To}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(tax), 0)
		FROM invoices
		WHERE status != $1 AND issued_at >= $2 AND issued_at < $3`,
		billing.StatusCancelled, p.From, p.To).
		Scan(&s.InvoiceCount, &s.GrossSales, &s.TaxCollected)
	if err != nil {
		return s, fmt.Errorf("reports: sales summary: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(n.total), 0)
		FROM credit_notes n
		JOIN invoices i ON i.id = n.invoice_id
		WHERE i.issued_at >= $1 AND i.issued_at < $2`,
		p.From, p.To).Scan(&s.CreditNoteTotal)
	if err != nil {
		return s, fmt.Errorf("reports: credit note total: %w", err)
	}

	s.NetRevenue = s.GrossSales - s.CreditNoteTotal
	return s, nil
}

func (r *pgRepository) SalesBySeller(ctx context.Context, p Period) ([]SellerSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.seller_id, u.name, COUNT(*), COALESCE(SUM(i.total), 0)
		FROM invoices i
		JOIN users u ON u.id = i.seller_id
		WHERE i.status != $1 AND i.issued_at >= $2 AND i.issued_at < $3
		GROUP BY i.seller_id, u.name
		ORDER BY SUM(i.total) DESC`,
		billing.StatusCancelled, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("reports: sales by seller: %w", err)
	}
	defer rows.Close()

	var out []SellerSales
	for rows.Next() {
		var s SellerSales
		if err := rows.Scan(&s.SellerID, &s.SellerName, &s.InvoiceCount, &s.Total); err != nil {
			return nil, fmt.Errorf("reports: scan seller: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) TopProducts(ctx context.Context, p Period, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT it.product_id, it.product_name, SUM(it.quantity), COALESCE(SUM(it.line_total), 0)
		FROM invoice_items it
		JOIN invoices i ON i.id = it.invoice_id
		WHERE i.status != $1 AND i.issued_at >= $2 AND i.issued_at < $3
		GROUP BY it.product_id, it.product_name
		ORDER BY SUM(it.quantity) DESC
		LIMIT $4`,
		billing.StatusCancelled, p.From, p.To, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top products: %w", err)
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var s ProductSales
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.Quantity, &s.Total); err != nil {
			return nil, fmt.Errorf("reports: scan product: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgRepository) LowStock(ctx context.Context, threshold int64) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sku, name, stock
		FROM products
		WHERE is_active AND stock <= $1
		ORDER BY stock, name`, threshold)
	if err != nil {
		return nil, fmt.Errorf("reports: low stock: %w", err)
	}
	defer rows.Close()

	var out []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.SKU, &p.Name, &p.Stock); err != nil {
			return nil, fmt.Errorf("reports: scan low stock: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
