package usecase

import (
	"context"
	"sync"

	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
)

// Floor groups the dining-room table operations.
type Floor struct {
	tables table.Repository
	carts  *cart.Store

	// mu serializes read-modify-write status transitions.
	mu sync.Mutex
}

// NewFloor creates a Floor. When a table is released its cart in carts is
// discarded; carts may be nil.
func NewFloor(tables table.Repository, carts *cart.Store) *Floor {
	return &Floor{tables: tables, carts: carts}
}

// GetTables lists tables, filtered by exact status when it is non-nil.
func (f *Floor) GetTables(ctx context.Context, status *table.Status) ([]table.Table, error) {
	return run("get tables", func() ([]table.Table, error) {
		return f.tables.List(ctx, status)
	})
}

// GetTable returns ErrTableNotFound when the table does not exist.
func (f *Floor) GetTable(ctx context.Context, number int) (*table.Table, error) {
	return run("get table", func() (*table.Table, error) {
		t, err := f.tables.Get(ctx, number)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, ErrTableNotFound
		}
		return t, nil
	})
}

// AddTable creates the next free table.
func (f *Floor) AddTable(ctx context.Context) (table.Table, error) {
	return run("add table", func() (table.Table, error) {
		return f.tables.Next(ctx)
	})
}

// ChangeTableStatus applies tr to the table with number and returns the
// updated table.
func (f *Floor) ChangeTableStatus(ctx context.Context, number int, tr table.Transition) (table.Table, error) {
	return run("change table status", func() (table.Table, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		t, err := f.tables.Get(ctx, number)
		if err != nil {
			return table.Table{}, err
		}
		if t == nil {
			return table.Table{}, ErrTableNotFound
		}

		next, err := tr.Apply(t.Status)
		if err != nil {
			return table.Table{}, err
		}
		ok, err := f.tables.SetStatus(ctx, number, next)
		if err != nil {
			return table.Table{}, err
		}
		if !ok {
			return table.Table{}, ErrTableNotFound
		}

		if next == table.StatusFree && f.carts != nil {
			f.carts.Clear(number)
		}
		return table.Table{Number: number, Status: next}, nil
	})
}
