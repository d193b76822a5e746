package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/konta-pos/konta-pos/internal/platform/db"
	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// SoldLine is one invoice line as seen by the return transaction.
type SoldLine struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	UnitPrice   float64
}

// TxRepository exposes the mutations of one return transaction.
type TxRepository interface {
	// GetInvoiceStatus returns the invoice status or httpx.ErrNotFound.
	// It locks the invoice row for the rest of the transaction.
	GetInvoiceStatus(ctx context.Context, invoiceID int64) (string, error)
	// GetSoldLines returns the invoice's lines keyed by product.
	GetSoldLines(ctx context.Context, invoiceID int64) (map[int64]SoldLine, error)
	// GetReturnedQuantities sums prior credit-note quantities per
	// product for the invoice.
	GetReturnedQuantities(ctx context.Context, invoiceID int64) (map[int64]int64, error)
	InsertCreditNote(ctx context.Context, note *CreditNote) error
	InsertItems(ctx context.Context, noteID int64, items []CreditNoteItem) error
	IncrementStock(ctx context.Context, productID, quantity int64) error
	InsertMovement(ctx context.Context, productID, delta int64, refID int64) error
}

// Repository is the returns persistence boundary.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCreditNote(ctx context.Context, id int64) (CreditNoteDetail, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]CreditNote, error)
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

func (r *pgRepository) GetCreditNote(ctx context.Context, id int64) (CreditNoteDetail, error) {
	var d CreditNoteDetail
	err := r.pool.QueryRow(ctx, `
		SELECT id, invoice_id, reason, total, created_by, created_at
		FROM credit_notes WHERE id = $1`, id).
		Scan(&d.CreditNote.ID, &d.CreditNote.InvoiceID, &d.CreditNote.Reason,
			&d.CreditNote.Total, &d.CreditNote.CreatedBy, &d.CreditNote.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, httpx.ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("returns: get credit note: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, credit_note_id, product_id, product_name, quantity, unit_price, line_total
		FROM credit_note_items WHERE credit_note_id = $1 ORDER BY id`, id)
	if err != nil {
		return d, fmt.Errorf("returns: get items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it CreditNoteItem
		if err := rows.Scan(&it.ID, &it.CreditNoteID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return d, fmt.Errorf("returns: scan item: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (r *pgRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]CreditNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, reason, total, created_by, created_at
		FROM credit_notes WHERE invoice_id = $1 ORDER BY created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("returns: list by invoice: %w", err)
	}
	defer rows.Close()

	var out []CreditNote
	for rows.Next() {
		var n CreditNote
		if err := rows.Scan(&n.ID, &n.InvoiceID, &n.Reason, &n.Total, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("returns: scan credit note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) GetInvoiceStatus(ctx context.Context, invoiceID int64) (string, error) {
	var status string
	// FOR UPDATE serializes concurrent returns against the same invoice;
	// the cumulative bound check reads prior credit notes, so two
	// transactions must not both pass it on the same snapshot.
	err := t.tx.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, invoiceID)
	}
	if err != nil {
		return "", fmt.Errorf("returns: get invoice status: %w", err)
	}
	return status, nil
}

func (t *txRepository) GetSoldLines(ctx context.Context, invoiceID int64) (map[int64]SoldLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT product_id, product_name, quantity, unit_price
		FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("returns: get sold lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]SoldLine)
	for rows.Next() {
		var l SoldLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("returns: scan sold line: %w", err)
		}
		// The same product can appear on multiple lines; the bound is
		// against the sum.
		if prev, ok := out[l.ProductID]; ok {
			l.Quantity += prev.Quantity
		}
		out[l.ProductID] = l
	}
	return out, rows.Err()
}

func (t *txRepository) GetReturnedQuantities(ctx context.Context, invoiceID int64) (map[int64]int64, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT i.product_id, COALESCE(SUM(i.quantity), 0)
		FROM credit_note_items i
		JOIN credit_notes n ON n.id = i.credit_note_id
		WHERE n.invoice_id = $1
		GROUP BY i.product_id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("returns: get returned quantities: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var productID, qty int64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, fmt.Errorf("returns: scan returned quantity: %w", err)
		}
		out[productID] = qty
	}
	return out, rows.Err()
}

func (t *txRepository) InsertCreditNote(ctx context.Context, note *CreditNote) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO credit_notes (invoice_id, reason, total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		note.InvoiceID, note.Reason, note.Total, note.CreatedBy, note.CreatedAt).
		Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("returns: insert credit note: %w", err)
	}
	return nil
}

func (t *txRepository) InsertItems(ctx context.Context, noteID int64, items []CreditNoteItem) error {
	for i := range items {
		items[i].CreditNoteID = noteID
		if err := t.tx.QueryRow(ctx, `
			INSERT INTO credit_note_items (credit_note_id, product_id, product_name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			noteID, items[i].ProductID, items[i].ProductName, items[i].Quantity,
			items[i].UnitPrice, items[i].LineTotal).Scan(&items[i].ID); err != nil {
			return fmt.Errorf("returns: insert item: %w", err)
		}
	}
	return nil
}

func (t *txRepository) IncrementStock(ctx context.Context, productID, quantity int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2`, quantity, productID)
	if err != nil {
		return fmt.Errorf("returns: increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, productID, delta int64, refID int64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, delta, reason, ref_id, created_at)
		VALUES ($1, $2, 'RETURN', $3, NOW())`, productID, delta, refID)
	if err != nil {
		return fmt.Errorf("returns: insert movement: %w", err)
	}
	return nil
}
