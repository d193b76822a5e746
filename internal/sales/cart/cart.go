// Package cart holds the in-memory working set of one checkout session.
//
// The cart is advisory: it snapshots product stock at add time and
// clamps quantities against that snapshot as a usability aid. The
// snapshot can go stale against the database; the conditional stock
// decrement inside billing.CommitSale is the authority.
package cart

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrOutOfStock rejects adding a product with no stock left.
	ErrOutOfStock = errors.New("cart: product is out of stock")
	// ErrNotInCart indicates the product has no line in the cart.
	ErrNotInCart = errors.New("cart: product not in cart")
)

// Product is the catalog data captured when a line is added.
type Product struct {
	ID      int64
	Name    string
	Price   float64
	TaxRate float64
	Stock   int64
}

// Line is one (product, quantity, discount) tuple.
type Line struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	TaxRate   float64 `json:"tax_rate"`
	Quantity  int64   `json:"quantity"`
	// Stock is the snapshot captured at add time, used only for clamping.
	Stock    int64   `json:"stock"`
	Discount float64 `json:"discount"`
}

// Cart accumulates lines for one in-progress sale.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of the product in the cart. Adding an existing
// product bumps its quantity by one, clamped to the stock snapshot with
// a non-blocking warning.
func (c *Cart) Add(p Product) (string, error) {
	if p.Stock <= 0 {
		return "", fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			if c.lines[i].Quantity+1 > c.lines[i].Stock {
				return fmt.Sprintf("only %d units of %q available", c.lines[i].Stock, c.lines[i].Name), nil
			}
			c.lines[i].Quantity++
			return "", nil
		}
	}

	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		TaxRate:   p.TaxRate,
		Quantity:  1,
		Stock:     p.Stock,
		Discount:  0,
	})
	return "", nil
}

// UpdateQuantity sets the quantity for a line. Zero or negative removes
// the line; quantities above the stock snapshot clamp with a warning.
func (c *Cart) UpdateQuantity(productID, quantity int64) (string, error) {
	if quantity <= 0 {
		c.Remove(productID)
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if quantity > c.lines[i].Stock {
			c.lines[i].Quantity = c.lines[i].Stock
			return fmt.Sprintf("only %d units of %q available", c.lines[i].Stock, c.lines[i].Name), nil
		}
		c.lines[i].Quantity = quantity
		return "", nil
	}
	return "", ErrNotInCart
}

// UpdateDiscount sets the discount percentage for a line, clamped to
// [0,100] the same way the discount input commits values.
func (c *Cart) UpdateDiscount(productID int64, percent float64) error {
	percent = ClampDiscount(percent)

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Discount = percent
			return nil
		}
	}
	return ErrNotInCart
}

// Remove drops the line unconditionally.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart, invoked after a successful checkout.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Total sums price × quantity × (1 − discount/100) over all lines.
// Tax is not included; the checkout applies per-line tax rates.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, line := range c.lines {
		discounted := line.Price * (1 - line.Discount/100)
		total += discounted * float64(line.Quantity)
	}
	return total
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}
