// Package billing owns invoices and the sale commit transaction.
package billing

import (
	"fmt"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Invoice kinds. POS sales are walk-in counter sales; NORMAL invoices
// are issued against a named customer and can feed the DIAN pipeline.
const (
	KindPOS    = "POS"
	KindNormal = "NORMAL"
)

// Invoice statuses. A committed sale is born paid; reporting to DIAN
// moves it to reported_dian. Draft exists only for invoices created
// ahead of payment and is not produced by the commit path.
const (
	StatusDraft        = "draft"
	StatusPaid         = "paid"
	StatusReportedDIAN = "reported_dian"
	StatusCancelled    = "cancelled"
)

var (
	// ErrInsufficientStock aborts the whole sale when any line cannot
	// be covered by current stock. Mapped to 409.
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", httpx.ErrConflict)
	// ErrInvalidStatus rejects a status transition that is no longer
	// available, e.g. reporting a cancelled invoice.
	ErrInvalidStatus = fmt.Errorf("%w: invalid invoice status", httpx.ErrConflict)
)

// Invoice is a committed sale.
type Invoice struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	CustomerID *int64     `json:"customer_id,omitempty"`
	SellerID   int64      `json:"seller_id"`
	Subtotal   float64    `json:"subtotal"`
	Discount   float64    `json:"discount"`
	Tax        float64    `json:"tax"`
	Total      float64    `json:"total"`
	CUFE       string     `json:"cufe,omitempty"`
	IssuedAt   time.Time  `json:"issued_at"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

// InvoiceItem is one line of an invoice. UnitPrice is tax-exclusive;
// LineTotal includes tax after discount.
type InvoiceItem struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount_percent"`
	TaxRate     float64 `json:"tax_rate"`
	TaxAmount   float64 `json:"tax_amount"`
	LineTotal   float64 `json:"line_total"`
}

// ValidKind reports whether k is a known invoice kind.
func ValidKind(k string) bool {
	return k == KindPOS || k == KindNormal
}
