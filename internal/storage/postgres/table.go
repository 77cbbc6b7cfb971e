package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dynamite/charlyhot-pos/internal/domain/table"
)

const (
	listTablesSQL         = `SELECT number, status FROM dining_tables ORDER BY number`
	listTablesByStatusSQL = `SELECT number, status FROM dining_tables WHERE status = $1 ORDER BY number`
	getTableSQL           = `SELECT number, status FROM dining_tables WHERE number = $1`
	insertTableSQL        = `INSERT INTO dining_tables (number, status) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	lockTablesSQL         = `LOCK TABLE dining_tables IN SHARE ROW EXCLUSIVE MODE`
	nextTableSQL          = `INSERT INTO dining_tables (number, status)
		SELECT COALESCE(MAX(number), 0) + 1, 'FREE' FROM dining_tables
		RETURNING number, status`
	setTableStatusSQL = `UPDATE dining_tables SET status = $2 WHERE number = $1`
	deleteTableSQL    = `DELETE FROM dining_tables WHERE number = $1`
)

var _ table.Repository = (*TableRepository)(nil)

// TableRepository implements table.Repository backed by PostgreSQL.
type TableRepository struct {
	pool *pgxpool.Pool
}

// NewTableRepository returns a TableRepository that uses the given pool.
func NewTableRepository(pool *pgxpool.Pool) *TableRepository {
	return &TableRepository{pool: pool}
}

// List returns tables ordered by number, optionally filtered by status.
func (r *TableRepository) List(ctx context.Context, status *table.Status) ([]table.Table, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == nil {
		rows, err = r.pool.Query(ctx, listTablesSQL)
	} else {
		rows, err = r.pool.Query(ctx, listTablesByStatusSQL, string(*status))
	}
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return pgx.CollectRows(rows, scanTable)
}

// Get returns the table with number, or nil.
func (r *TableRepository) Get(ctx context.Context, number int) (*table.Table, error) {
	rows, err := r.pool.Query(ctx, getTableSQL, number)
	if err != nil {
		return nil, fmt.Errorf("getting table %d: %w", number, err)
	}

	t, err := pgx.CollectExactlyOneRow(rows, scanTable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting table %d: %w", number, err)
	}
	return &t, nil
}

// Add inserts t unless its number is taken.
func (r *TableRepository) Add(ctx context.Context, t table.Table) (bool, error) {
	if t.Number <= 0 {
		return false, table.ErrInvalidNumber
	}
	tag, err := r.pool.Exec(ctx, insertTableSQL, t.Number, string(t.Status))
	if err != nil {
		return false, fmt.Errorf("inserting table %d: %w", t.Number, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Next inserts a free table numbered one above the current maximum. The
// table lock serializes concurrent Next and Add calls, so two callers never
// compute the same number.
func (r *TableRepository) Next(ctx context.Context) (table.Table, error) {
	var t table.Table
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockTablesSQL); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, nextTableSQL)
		if err != nil {
			return err
		}
		t, err = pgx.CollectExactlyOneRow(rows, scanTable)
		return err
	})
	if err != nil {
		return table.Table{}, fmt.Errorf("adding next table: %w", err)
	}
	return t, nil
}

// SetStatus updates the status of the table with number.
func (r *TableRepository) SetStatus(ctx context.Context, number int, status table.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, setTableStatusSQL, number, string(status))
	if err != nil {
		return false, fmt.Errorf("updating table %d: %w", number, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the table with number.
func (r *TableRepository) Delete(ctx context.Context, number int) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteTableSQL, number)
	if err != nil {
		return false, fmt.Errorf("deleting table %d: %w", number, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanTable(row pgx.CollectableRow) (table.Table, error) {
	var (
		t      table.Table
		status string
	)
	err := row.Scan(&t.Number, &status)
	t.Status = table.Status(status)
	return t, err
}
