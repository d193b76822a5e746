package products

import "time"

// Product represents a catalog entry. Stock is set once at creation and
// afterwards only moves through sale, return, purchase and adjustment
// transactions; Update never touches it.
type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	TaxRate   float64   `json:"tax_rate"`
	Stock     int64     `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
