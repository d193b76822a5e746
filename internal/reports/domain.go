// Package reports builds the back-office dashboard aggregates.
package reports

import "time"

// SalesSummary is the headline revenue view for a period. Net revenue
// subtracts credit-note totals from gross invoiced sales.
type SalesSummary struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	InvoiceCount    int64     `json:"invoice_count"`
	GrossSales      float64   `json:"gross_sales"`
	CreditNoteTotal float64   `json:"credit_note_total"`
	NetRevenue      float64   `json:"net_revenue"`
	TaxCollected    float64   `json:"tax_collected"`
}

// SellerSales is one row of the sales-by-seller report.
type SellerSales struct {
	SellerID     int64   `json:"seller_id"`
	SellerName   string  `json:"seller_name"`
	InvoiceCount int64   `json:"invoice_count"`
	Total        float64 `json:"total"`
}

// ProductSales is one row of the top-products report.
type ProductSales struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Total       float64 `json:"total"`
}

// LowStockProduct flags products at or under their reorder point.
type LowStockProduct struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Stock     int64  `json:"stock"`
}

// Period bounds a report query; To is exclusive.
type Period struct {
	From time.Time
	To   time.Time
}
