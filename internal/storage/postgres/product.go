package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
)

const (
	productColumns = `id, name, description, price, category, image_url`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY seq`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE lower(category) = lower($1) ORDER BY seq`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, image_url = $6
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listCategoriesSQL = `SELECT category FROM (
			SELECT DISTINCT ON (lower(category)) category, seq
			FROM products ORDER BY lower(category), seq
		) c ORDER BY seq`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// The primary key on id and the unique index on lower(name) enforce the
// catalog uniqueness policy.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns products in insertion order, optionally filtered by category.
func (r *ProductRepository) List(ctx context.Context, category *string) ([]product.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == nil {
		rows, err = r.pool.Query(ctx, listProductsSQL)
	} else {
		rows, err = r.pool.Query(ctx, listProductsByCategorySQL, *category)
	}
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product, or nil when it does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Add inserts p. It returns false when the id or name is already taken.
func (r *ProductRepository) Add(ctx context.Context, p product.Product) (bool, error) {
	tag, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	)
	if err != nil {
		return false, fmt.Errorf("inserting product %q: %w", p.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update replaces every column of the product with p.ID.
func (r *ProductRepository) Update(ctx context.Context, p product.Product) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, product.ErrDuplicateName
		}
		return false, fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the product with id.
func (r *ProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting product %q: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Categories returns distinct categories in first-appearance order.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Ping checks database connectivity.
func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.ImageURL)
	return p, err
}
