package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dynamite/charlyhot-pos/internal/domain/table"
)

var _ table.Repository = (*TableRepository)(nil)

// TableRepository implements table.Repository with tables kept sorted by number.
type TableRepository struct {
	mu     sync.RWMutex
	tables []table.Table
}

// NewTableRepository returns a repository holding the given tables.
// Duplicate or non-positive numbers are skipped.
func NewTableRepository(seed ...table.Table) *TableRepository {
	r := &TableRepository{}
	for _, t := range seed {
		if t.Number > 0 && r.index(t.Number) < 0 {
			r.insert(t)
		}
	}
	return r
}

// List returns tables ordered by number, filtered by exact status when given.
func (r *TableRepository) List(_ context.Context, status *table.Status) ([]table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if status == nil {
		return slices.Clone(r.tables), nil
	}
	out := make([]table.Table, 0, len(r.tables))
	for _, t := range r.tables {
		if t.Status == *status {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns the table with number, or nil.
func (r *TableRepository) Get(_ context.Context, number int) (*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.index(number); i >= 0 {
		t := r.tables[i]
		return &t, nil
	}
	return nil, nil
}

// Add inserts t unless its number is taken.
func (r *TableRepository) Add(_ context.Context, t table.Table) (bool, error) {
	if t.Number <= 0 {
		return false, table.ErrInvalidNumber
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index(t.Number) >= 0 {
		return false, nil
	}
	r.insert(t)
	return true, nil
}

// Next adds a free table numbered one above the highest existing number.
func (r *TableRepository) Next(_ context.Context) (table.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	number := 1
	if n := len(r.tables); n > 0 {
		number = r.tables[n-1].Number + 1
	}
	t := table.Table{Number: number, Status: table.StatusFree}
	r.insert(t)
	return t, nil
}

// SetStatus changes the status of the table with number.
func (r *TableRepository) SetStatus(_ context.Context, number int, status table.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(number)
	if i < 0 {
		return false, nil
	}
	r.tables[i].Status = status
	return true, nil
}

// Delete removes the table with number.
func (r *TableRepository) Delete(_ context.Context, number int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(number)
	if i < 0 {
		return false, nil
	}
	r.tables = slices.Delete(r.tables, i, i+1)
	return true, nil
}

// tables is kept sorted by number, so lookups binary search.
func (r *TableRepository) search(number int) (int, bool) {
	return slices.BinarySearchFunc(r.tables, number, func(t table.Table, n int) int {
		return cmp.Compare(t.Number, n)
	})
}

func (r *TableRepository) index(number int) int {
	if i, found := r.search(number); found {
		return i
	}
	return -1
}

func (r *TableRepository) insert(t table.Table) {
	i, _ := r.search(t.Number)
	r.tables = slices.Insert(r.tables, i, t)
}
