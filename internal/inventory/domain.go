// Package inventory exposes the stock movement ledger. Every stock
// delta in the system (sales, returns, purchases, manual adjustments)
// lands here as one row, written inside the transaction that moved the
// stock.
package inventory

import (
	"fmt"
	"time"

	"github.com/konta-pos/konta-pos/internal/platform/httpx"
)

// Movement reasons.
const (
	ReasonSale     = "SALE"
	ReasonReturn   = "RETURN"
	ReasonPurchase = "PURCHASE"
	ReasonAdjust   = "ADJUST"
)

// ErrInsufficientStock rejects an adjustment that would push stock
// below zero.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", httpx.ErrConflict)

// Movement is one ledger entry.
type Movement struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	RefID     int64     `json:"ref_id,omitempty"`
	ActorID   int64     `json:"actor_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StockCard is the per-product view: current stock plus the movement
// history that produced it.
type StockCard struct {
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	Stock       int64      `json:"stock"`
	Movements   []Movement `json:"movements"`
}

// AdjustmentInput is a manual stock correction.
type AdjustmentInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Delta     int64  `json:"delta" validate:"required"`
	Note      string `json:"note" validate:"required"`
	ActorID   int64  `json:"-"`
}
