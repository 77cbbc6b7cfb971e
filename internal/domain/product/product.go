package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validation errors returned by Product.Validate.
var (
	ErrEmptyID       = errors.New("product id required")
	ErrEmptyName     = errors.New("product name required")
	ErrNegativePrice = errors.New("product price must not be negative")
)

// ErrDuplicateName is returned by Repository.Update when the new name is
// already used by another product.
var ErrDuplicateName = errors.New("product name already in use")

// Product represents a menu item. It is treated as an immutable value:
// updates replace the stored product wholesale.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    *string
}

// Validate checks the invariants every stored product must satisfy.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// InCategory reports whether p belongs to category, ignoring case.
func (p Product) InCategory(category string) bool {
	return strings.EqualFold(p.Category, category)
}

// Repository defines catalog storage. Implementations enforce uniqueness of
// both ID and case-insensitive Name.
type Repository interface {
	// List returns products in insertion order. A non-nil category restricts
	// the result to products whose category matches it case-insensitively.
	List(ctx context.Context, category *string) ([]Product, error)
	// GetByID returns nil without error when no product has the given id.
	GetByID(ctx context.Context, id string) (*Product, error)
	// Add returns false when a product with the same id or name exists.
	Add(ctx context.Context, p Product) (bool, error)
	// Update replaces the product with p.ID, returning false if absent and
	// ErrDuplicateName if another product already has p.Name.
	Update(ctx context.Context, p Product) (bool, error)
	// Delete returns false if no product has the given id.
	Delete(ctx context.Context, id string) (bool, error)
	// Categories returns the distinct categories in first-appearance order.
	Categories(ctx context.Context) ([]string, error)
}

// Categories collects distinct categories from products in the order they
// first appear. Categories differing only in case are merged.
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, len(products))
	for _, p := range products {
		key := strings.ToLower(p.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
