// Package memory provides in-process repositories guarded by mutexes. They
// back the POS when no database is configured and in tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository over a slice kept in
// insertion order.
type ProductRepository struct {
	mu       sync.RWMutex
	products []product.Product
}

// NewProductRepository returns a repository holding the given products.
// Seeds violating the uniqueness policy are skipped.
func NewProductRepository(seed ...product.Product) *ProductRepository {
	r := &ProductRepository{}
	for _, p := range seed {
		if !r.exists(p) {
			r.products = append(r.products, p)
		}
	}
	return r
}

// List returns all products, or those whose category matches case-insensitively.
func (r *ProductRepository) List(_ context.Context, category *string) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if category == nil {
		return slices.Clone(r.products), nil
	}
	out := make([]product.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.InCategory(*category) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns the product with id, or nil.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.index(id); i >= 0 {
		p := r.products[i]
		return &p, nil
	}
	return nil, nil
}

// Add appends p unless a product with the same id or name already exists.
func (r *ProductRepository) Add(_ context.Context, p product.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.exists(p) {
		return false, nil
	}
	r.products = append(r.products, p)
	return true, nil
}

// Update replaces the product with p.ID.
func (r *ProductRepository) Update(_ context.Context, p product.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(p.ID)
	if i < 0 {
		return false, nil
	}
	if slices.ContainsFunc(r.products, func(q product.Product) bool {
		return q.ID != p.ID && strings.EqualFold(q.Name, p.Name)
	}) {
		return false, product.ErrDuplicateName
	}
	r.products[i] = p
	return true, nil
}

// Delete removes the product with id.
func (r *ProductRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return false, nil
	}
	r.products = slices.Delete(r.products, i, i+1)
	return true, nil
}

// Categories returns distinct categories in first-appearance order.
func (r *ProductRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return product.Categories(r.products), nil
}

// Ping always succeeds; it lets the repository serve as a readiness check.
func (r *ProductRepository) Ping(context.Context) error { return nil }

func (r *ProductRepository) index(id string) int {
	return slices.IndexFunc(r.products, func(p product.Product) bool { return p.ID == id })
}

// exists must be called with r.mu held.
func (r *ProductRepository) exists(p product.Product) bool {
	return slices.ContainsFunc(r.products, func(q product.Product) bool {
		return q.ID == p.ID || strings.EqualFold(q.Name, p.Name)
	})
}
