// Package orders implements preassigned sales orders: a seller gets a
// pending order that later executes into an invoice or gets cancelled.
package orders

import (
	"fmt"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Sales-order statuses. Executed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusExecuted  = "executed"
	StatusCancelled = "cancelled"
)

// ErrInvalidStatus rejects transitions out of a terminal state.
var ErrInvalidStatus = fmt.Errorf("%w: sales order status does not allow this", httpx.ErrConflict)

// SalesOrder is a preassigned sale awaiting execution.
type SalesOrder struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	SellerID   int64     `json:"seller_id"`
	CreatedBy  int64     `json:"created_by"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	Total      float64   `json:"total"`
	InvoiceID  *int64    `json:"invoice_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderItem is one line of a sales order. UnitPrice is the quote at
// creation time; execution snapshots current catalog prices.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount_percent"`
}

// OrderDetail bundles an order with its lines.
type OrderDetail struct {
	Order SalesOrder  `json:"order"`
	Items []OrderItem `json:"items"`
}
