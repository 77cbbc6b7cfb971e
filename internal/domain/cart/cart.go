// Package cart implements the order cart of a table: line items keyed by
// product, quantities, free-text notes and the running total.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
)

// Line is a single product in the cart.
type Line struct {
	Product  product.Product
	Quantity int
	Notes    string
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of one order. Every line has Quantity >= 1.
// The zero value is an empty cart ready to use.
type Cart struct {
	lines []Line
	notes string
}

// Add inserts p with quantity 1, or increments its quantity if the product
// is already in the cart.
func (c *Cart) Add(p product.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// Increment adds one to the quantity of the line for productID.
func (c *Cart) Increment(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines[i].Quantity++
	return true
}

// Decrement subtracts one from the quantity of the line for productID and
// removes the line when it would drop below 1.
func (c *Cart) Decrement(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	if c.lines[i].Quantity <= 1 {
		c.lines = slices.Delete(c.lines, i, i+1)
		return true
	}
	c.lines[i].Quantity--
	return true
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = slices.Delete(c.lines, i, i+1)
	return true
}

// SetLineNotes replaces the notes of the line for productID.
func (c *Cart) SetLineNotes(productID, notes string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines[i].Notes = notes
	return true
}

// SetNotes replaces the order-level notes.
func (c *Cart) SetNotes(notes string) { c.notes = notes }

// Notes returns the order-level notes.
func (c *Cart) Notes() string { return c.notes }

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line { return slices.Clone(c.lines) }

// Quantity returns the quantity of productID, or 0 when absent.
func (c *Cart) Quantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// ItemCount returns the sum of all quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total returns the sum of unit price times quantity over all lines,
// rounded to 2 decimal places. It is recomputed on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	return &Cart{lines: slices.Clone(c.lines), notes: c.notes}
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.Product.ID == productID })
}
