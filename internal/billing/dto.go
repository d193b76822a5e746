package billing

// SaleItemInput is one requested line of a sale.
type SaleItemInput struct {
	ProductID       int64   `json:"product_id" validate:"required,gt=0"`
	Quantity        int64   `json:"quantity" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

// CommitSaleInput carries everything the commit transaction needs.
// SalesOrderID is set only when the sale executes a pending sales
// order; the order flips to executed inside the same transaction.
type CommitSaleInput struct {
	Kind           string          `json:"kind" validate:"required,oneof=POS NORMAL"`
	CustomerID     *int64          `json:"customer_id,omitempty"`
	SellerID       int64           `json:"-"`
	SalesOrderID   *int64          `json:"-"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Items          []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

// InvoiceFilters narrows invoice listings.
type InvoiceFilters struct {
	Page     int
	Limit    int
	Kind     string
	Status   string
	SellerID int64
}

// InvoiceDetail bundles an invoice with its lines.
type InvoiceDetail struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
}
