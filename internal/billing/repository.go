package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/db"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// SaleProduct is the catalog snapshot read inside the commit
// transaction. Price and tax come from here, never from the client.
type SaleProduct struct {
	ID      int64
	Name    string
	Price   float64
	TaxRate float64
}

// TxRepository exposes the mutations available inside one commit
// transaction. Implementations must make every call act on the same
// underlying transaction so a returned error rolls everything back.
type TxRepository interface {
	GetProductForSale(ctx context.Context, productID int64) (SaleProduct, error)
	// DecrementStock subtracts quantity only when enough stock remains,
	// returning ErrInsufficientStock otherwise.
	DecrementStock(ctx context.Context, productID, quantity int64) error
	InsertInvoice(ctx context.Context, inv *Invoice) error
	InsertItems(ctx context.Context, invoiceID int64, items []InvoiceItem) error
	InsertMovement(ctx context.Context, productID, delta int64, reason string, refID int64) error
	// MarkOrderExecuted flips a pending sales order to executed,
	// returning ErrInvalidStatus when it is no longer pending.
	MarkOrderExecuted(ctx context.Context, orderID, invoiceID int64) error
}

// Repository is the billing persistence boundary.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (InvoiceDetail, error)
	ListInvoices(ctx context.Context, f InvoiceFilters) ([]Invoice, int64, error)
	// UpdateStatus transitions id from one status to another, guarded
	// so concurrent transitions cannot double-apply.
	UpdateStatus(ctx context.Context, id int64, from, to string) error
	// MarkReported records the CUFE and flips paid to reported_dian.
	MarkReported(ctx context.Context, id int64, cufe string) error
	// CancelInvoice voids a draft or paid invoice. Reported and
	// cancelled invoices are terminal.
	CancelInvoice(ctx context.Context, id int64) error
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

func (r *pgRepository) GetInvoice(ctx context.Context, id int64) (InvoiceDetail, error) {
	var d InvoiceDetail
	row := r.pool.QueryRow(ctx, `
		SELECT id, number, kind, status, customer_id, seller_id,
		       subtotal, discount, tax, total, COALESCE(cufe, ''), issued_at, reported_at
		FROM invoices WHERE id = $1`, id)
	if err := row.Scan(
		&d.Invoice.ID, &d.Invoice.Number, &d.Invoice.Kind, &d.Invoice.Status,
		&d.Invoice.CustomerID, &d.Invoice.SellerID, &d.Invoice.Subtotal,
		&d.Invoice.Discount, &d.Invoice.Tax, &d.Invoice.Total, &d.Invoice.CUFE,
		&d.Invoice.IssuedAt, &d.Invoice.ReportedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return d, httpx.ErrNotFound
		}
		return d, fmt.Errorf("billing: get invoice: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, product_id, product_name, quantity,
		       unit_price, discount_percent, tax_rate, tax_amount, line_total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return d, fmt.Errorf("billing: get invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.Discount, &it.TaxRate, &it.TaxAmount, &it.LineTotal); err != nil {
			return d, fmt.Errorf("billing: scan invoice item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (r *pgRepository) ListInvoices(ctx context.Context, f InvoiceFilters) ([]Invoice, int64, error) {
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
	if f.Kind != "" {
		where += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, f.Kind)
		idx++
	}
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("billing: count invoices: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, number, kind, status, customer_id, seller_id,
		       subtotal, discount, tax, total, COALESCE(cufe, ''), issued_at, reported_at
		FROM invoices %s ORDER BY issued_at DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, f.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("billing: list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Kind, &inv.Status,
			&inv.CustomerID, &inv.SellerID, &inv.Subtotal, &inv.Discount,
			&inv.Tax, &inv.Total, &inv.CUFE, &inv.IssuedAt, &inv.ReportedAt); err != nil {
			return nil, 0, fmt.Errorf("billing: scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("billing: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

func (r *pgRepository) MarkReported(ctx context.Context, id int64, cufe string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = $1, cufe = $2, reported_at = $3
		WHERE id = $4 AND status = $5`,
		StatusReportedDIAN, cufe, time.Now(), id, StatusPaid)
	if err != nil {
		return fmt.Errorf("billing: mark reported: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

func (r *pgRepository) CancelInvoice(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = $1
		WHERE id = $2 AND status IN ($3, $4)`,
		StatusCancelled, id, StatusDraft, StatusPaid)
	if err != nil {
		return fmt.Errorf("billing: cancel invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidStatus
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetProductForSale(ctx context.Context, productID int64) (SaleProduct, error) {
	var p SaleProduct
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, price, tax_rate FROM products WHERE id = $1 AND is_active`, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.TaxRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	if err != nil {
		return p, fmt.Errorf("billing: get product: %w", err)
	}
	return p, nil
}

func (t *txRepository) DecrementStock(ctx context.Context, productID, quantity int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1`, quantity, productID)
	if err != nil {
		return fmt.Errorf("billing: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
	}
	return nil
}

func (t *txRepository) InsertInvoice(ctx context.Context, inv *Invoice) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoices (number, kind, status, customer_id, seller_id,
		                      subtotal, discount, tax, total, issued_at)
		VALUES ('INV-' || LPAD(nextval('invoice_number_seq')::text, 6, '0'),
		        $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, number`,
		inv.Kind, inv.Status, inv.CustomerID, inv.SellerID,
		inv.Subtotal, inv.Discount, inv.Tax, inv.Total, inv.IssuedAt).
		Scan(&inv.ID, &inv.Number)
	if err != nil {
		return fmt.Errorf("billing: insert invoice: %w", err)
	}
	return nil
}

func (t *txRepository) InsertItems(ctx context.Context, invoiceID int64, items []InvoiceItem) error {
	for i := range items {
		items[i].InvoiceID = invoiceID
		if err := t.tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, product_id, product_name, quantity,
			                           unit_price, discount_percent, tax_rate, tax_amount, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			invoiceID, items[i].ProductID, items[i].ProductName, items[i].Quantity,
			items[i].UnitPrice, items[i].Discount, items[i].TaxRate,
			items[i].TaxAmount, items[i].LineTotal).Scan(&items[i].ID); err != nil {
			return fmt.Errorf("billing: insert item: %w", err)
		}
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, productID, delta int64, reason string, refID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, delta, reason, ref_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())`, productID, delta, reason, refID)
	if err != nil {
		return fmt.Errorf("billing: insert movement: %w", err)
	}
	return nil
}

func (t *txRepository) MarkOrderExecuted(ctx context.Context, orderID, invoiceID int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE sales_orders SET status = 'executed', invoice_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pending'`, invoiceID, orderID)
	if err != nil {
		return fmt.Errorf("billing: mark order executed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sales order %d is not pending", ErrInvalidStatus, orderID)
	}
	return nil
}
