package orders

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID       int64   `json:"product_id" validate:"required,gt=0"`
	Quantity        int64   `json:"quantity" validate:"required,gt=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

// CreateOrderInput carries a new sales order.
type CreateOrderInput struct {
	CustomerID int64            `json:"customer_id" validate:"required,gt=0"`
	SellerID   int64            `json:"seller_id" validate:"required,gt=0"`
	Notes      string           `json:"notes,omitempty"`
	CreatedBy  int64            `json:"-"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// OrderFilters narrows order listings.
type OrderFilters struct {
	Page     int
	Limit    int
	Status   string
	SellerID int64
}
