package products

// CreateProductRequest is the payload for catalog entry creation. Stock
// here is the opening quantity; later stock changes go through
// purchases, sales, returns or inventory adjustments.
type CreateProductRequest struct {
	SKU     string  `json:"sku" validate:"required,max=40"`
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Price   float64 `json:"price" validate:"required,gt=0"`
	TaxRate float64 `json:"tax_rate" validate:"gte=0,lte=100"`
	Stock   int64   `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest updates descriptive fields only.
type UpdateProductRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	TaxRate  *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsActive *bool    `json:"is_active,omitempty"`
}
