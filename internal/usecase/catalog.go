package usecase

import (
	"context"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
)

// Catalog groups the product operations.
type Catalog struct {
	products product.Repository
}

// NewCatalog creates a Catalog backed by the given repository.
func NewCatalog(products product.Repository) *Catalog {
	return &Catalog{products: products}
}

// GetProducts lists products, filtered by category when it is non-nil.
func (c *Catalog) GetProducts(ctx context.Context, category *string) ([]product.Product, error) {
	return run("get products", func() ([]product.Product, error) {
		return c.products.List(ctx, category)
	})
}

// GetProductByID returns ErrProductNotFound when no product has id.
func (c *Catalog) GetProductByID(ctx context.Context, id string) (*product.Product, error) {
	return run("get product", func() (*product.Product, error) {
		p, err := c.products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrProductNotFound
		}
		return p, nil
	})
}

// GetCategories lists the distinct product categories.
func (c *Catalog) GetCategories(ctx context.Context) ([]string, error) {
	return run("get categories", func() ([]string, error) {
		return c.products.Categories(ctx)
	})
}

// AddProduct validates and stores p. It returns ErrDuplicateProduct when the
// id or name is taken.
func (c *Catalog) AddProduct(ctx context.Context, p product.Product) error {
	_, err := run("add product", func() (struct{}, error) {
		if err := p.Validate(); err != nil {
			return struct{}{}, err
		}
		ok, err := c.products.Add(ctx, p)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrDuplicateProduct
		}
		return struct{}{}, nil
	})
	return err
}

// UpdateProduct validates p and replaces the stored product with p.ID.
func (c *Catalog) UpdateProduct(ctx context.Context, p product.Product) error {
	_, err := run("update product", func() (struct{}, error) {
		if err := p.Validate(); err != nil {
			return struct{}{}, err
		}
		ok, err := c.products.Update(ctx, p)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrProductNotFound
		}
		return struct{}{}, nil
	})
	return err
}

// DeleteProduct removes the product with id.
func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	_, err := run("delete product", func() (struct{}, error) {
		ok, err := c.products.Delete(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if !ok {
			return struct{}{}, ErrProductNotFound
		}
		return struct{}{}, nil
	})
	return err
}
