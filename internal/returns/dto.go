package returns

// ReturnItemInput is one requested return line.
type ReturnItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

// ProcessReturnInput carries one return request.
type ProcessReturnInput struct {
	InvoiceID int64             `json:"invoice_id" validate:"required,gt=0"`
	Reason    string            `json:"reason" validate:"required"`
	UserID    int64             `json:"-"`
	Items     []ReturnItemInput `json:"items" validate:"required,min=1,dive"`
}
