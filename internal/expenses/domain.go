// Package expenses tracks operating expenses outside the sales flow.
package expenses

import "time"

// Expense is one recorded outflow.
type Expense struct {
	ID        int64     `json:"id"`
	Concept   string    `json:"concept"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	SpentAt   time.Time `json:"spent_at"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateExpenseRequest registers an expense.
type CreateExpenseRequest struct {
	Concept  string  `json:"concept" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	SpentAt  string  `json:"spent_at,omitempty"`
}

// MonthlyTotal aggregates expenses per calendar month.
type MonthlyTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// ExpenseFilters narrows expense listings.
type ExpenseFilters struct {
	Page     int
	Limit    int
	Category string
	From     time.Time
	To       time.Time
}
