// Package purchases records goods received from suppliers.
package purchases

import "time"

// Purchase is one goods receipt from a supplier.
type Purchase struct {
	ID         int64     `json:"id"`
	SupplierID int64     `json:"supplier_id"`
	BuyerID    int64     `json:"buyer_id"`
	Notes      string    `json:"notes,omitempty"`
	Total      float64   `json:"total"`
	ReceivedAt time.Time `json:"received_at"`
}

// PurchaseItem is one received line at its unit cost.
type PurchaseItem struct {
	ID         int64   `json:"id"`
	PurchaseID int64   `json:"purchase_id"`
	ProductID  int64   `json:"product_id"`
	Quantity   int64   `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
	LineTotal  float64 `json:"line_total"`
}

// PurchaseDetail bundles a purchase with its items.
type PurchaseDetail struct {
	Purchase Purchase       `json:"purchase"`
	Items    []PurchaseItem `json:"items"`
}

// ReceiveItemInput is one requested receipt line.
type ReceiveItemInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int64   `json:"quantity" validate:"required,gt=0"`
	UnitCost  float64 `json:"unit_cost" validate:"gte=0"`
}

// ReceivePurchaseInput carries one goods receipt.
type ReceivePurchaseInput struct {
	SupplierID int64              `json:"supplier_id" validate:"required,gt=0"`
	Notes      string             `json:"notes,omitempty"`
	BuyerID    int64              `json:"-"`
	Items      []ReceiveItemInput `json:"items" validate:"required,min=1,dive"`
}

// PurchaseFilters narrows purchase listings.
type PurchaseFilters struct {
	Page       int
	Limit      int
	SupplierID int64
}
