package screen

import (
	"github.com/shopspring/decimal"

	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
)

// CartState is a snapshot of a table cart.
type CartState struct {
	TableNumber int
	Lines       []cart.Line
	Notes       string
	ItemCount   int
	Total       decimal.Decimal
}

// CartViewModel edits the cart of one table held in a shared store.
type CartViewModel struct {
	store    *cart.Store
	table    int
	observer Observer[CartState]
}

// NewCartViewModel binds the view-model to the cart of tableNumber.
func NewCartViewModel(store *cart.Store, tableNumber int, observer Observer[CartState]) *CartViewModel {
	return &CartViewModel{store: store, table: tableNumber, observer: observer}
}

// State returns the current cart with a freshly computed total.
func (vm *CartViewModel) State() CartState {
	return vm.snapshot(vm.store.Get(vm.table))
}

// Add puts one unit of p in the cart.
func (vm *CartViewModel) Add(p product.Product) {
	vm.mutate(func(c *cart.Cart) bool {
		c.Add(p)
		return true
	})
}

// Increment adds one unit of productID. It reports false when the product
// is not in the cart.
func (vm *CartViewModel) Increment(productID string) bool {
	return vm.mutate(func(c *cart.Cart) bool { return c.Increment(productID) })
}

// Decrement removes one unit of productID, dropping the line at zero.
func (vm *CartViewModel) Decrement(productID string) bool {
	return vm.mutate(func(c *cart.Cart) bool { return c.Decrement(productID) })
}

// Remove drops the line of productID.
func (vm *CartViewModel) Remove(productID string) bool {
	return vm.mutate(func(c *cart.Cart) bool { return c.Remove(productID) })
}

// SetLineNotes replaces the notes of the line of productID.
func (vm *CartViewModel) SetLineNotes(productID, notes string) bool {
	return vm.mutate(func(c *cart.Cart) bool { return c.SetLineNotes(productID, notes) })
}

// SetNotes replaces the order notes.
func (vm *CartViewModel) SetNotes(notes string) {
	vm.mutate(func(c *cart.Cart) bool {
		c.SetNotes(notes)
		return true
	})
}

func (vm *CartViewModel) mutate(fn func(c *cart.Cart) bool) bool {
	c, ok := vm.store.Update(vm.table, fn)
	if ok && vm.observer != nil {
		vm.observer(vm.snapshot(c))
	}
	return ok
}

func (vm *CartViewModel) snapshot(c *cart.Cart) CartState {
	return CartState{
		TableNumber: vm.table,
		Lines:       c.Lines(),
		Notes:       c.Notes(),
		ItemCount:   c.ItemCount(),
		Total:       c.Total(),
	}
}
