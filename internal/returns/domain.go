// Package returns processes credit notes against committed invoices.
package returns

import (
	"fmt"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

var (
	// ErrReturnExceedsSold rejects a line whose quantity, summed with
	// all prior credit notes for the invoice, exceeds the quantity sold.
	ErrReturnExceedsSold = fmt.Errorf("%w: return exceeds sold quantity", httpx.ErrConflict)
	// ErrInvoiceNotReturnable rejects returns against draft or
	// cancelled invoices.
	ErrInvoiceNotReturnable = fmt.Errorf("%w: invoice cannot receive returns", httpx.ErrConflict)
)

// CreditNote reverses part or all of an invoice. The original invoice
// is never mutated.
type CreditNote struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	Reason    string    `json:"reason"`
	Total     float64   `json:"total"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditNoteItem is one returned line, priced at the invoice's unit
// price snapshot.
type CreditNoteItem struct {
	ID           int64   `json:"id"`
	CreditNoteID int64   `json:"credit_note_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	Quantity     int64   `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	LineTotal    float64 `json:"line_total"`
}

// CreditNoteDetail bundles a credit note with its items.
type CreditNoteDetail struct {
	CreditNote CreditNote       `json:"credit_note"`
	Items      []CreditNoteItem `json:"items"`
}
