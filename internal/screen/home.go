package screen

import (
	"context"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/resource"
)

// DefaultTablesError is shown when a table load fails without a message.
const DefaultTablesError = "Error desconocido al cargar las mesas"

// TableService is the set of table operations used by the home screen.
type TableService interface {
	GetTables(ctx context.Context, status *table.Status) ([]table.Table, error)
	AddTable(ctx context.Context) (table.Table, error)
	ChangeTableStatus(ctx context.Context, number int, tr table.Transition) (table.Table, error)
}

// HomeState is the state of the table picker.
type HomeState struct {
	Tables resource.Resource[[]table.Table]
	// Selected is the table the waiter opened, nil until one is chosen.
	Selected *int
	// ActionError holds the message of the last failed add or select.
	ActionError string
}

// HomeViewModel drives the table picker.
type HomeViewModel struct {
	scope    *Scope
	tables   TableService
	observer Observer[HomeState]

	mu    sync.Mutex
	state HomeState
	gen   uint64
}

// NewHomeViewModel creates the view-model and starts the initial load.
func NewHomeViewModel(ctx context.Context, tables TableService, observer Observer[HomeState]) *HomeViewModel {
	vm := &HomeViewModel{
		scope:    NewScope(ctx),
		tables:   tables,
		observer: observer,
		state:    HomeState{Tables: resource.Loading[[]table.Table]()},
	}
	vm.Reload()
	return vm
}

// State returns the current state.
func (vm *HomeViewModel) State() HomeState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Reload fetches all tables, discarding the results of earlier reloads.
func (vm *HomeViewModel) Reload() {
	var gen uint64
	ok := vm.scope.Apply(func() {
		vm.update(func(s *HomeState) {
			vm.gen++
			gen = vm.gen
			s.Tables = resource.Loading[[]table.Table]()
		})
	})
	if !ok {
		return
	}

	vm.scope.Launch(func(ctx context.Context) {
		tables, err := vm.tables.GetTables(ctx, nil)
		if err != nil {
			zctx.From(ctx).Debug("Load tables failed", zap.Error(err))
		}
		vm.scope.Apply(func() {
			vm.update(func(s *HomeState) {
				if gen != vm.gen {
					return
				}
				s.Tables = tablesResource(tables, err)
			})
		})
	})
}

// AddTable creates the next table and reloads the list.
func (vm *HomeViewModel) AddTable() {
	vm.scope.Launch(func(ctx context.Context) {
		if _, err := vm.tables.AddTable(ctx); err != nil {
			vm.fail(ctx, "Add table failed", err)
			return
		}
		vm.clearActionError()
		vm.Reload()
	})
}

// SelectTable opens table number. A free table is occupied first.
func (vm *HomeViewModel) SelectTable(number int) {
	current := vm.State()
	if tables, ok := current.Tables.Data(); ok {
		for _, t := range tables {
			if t.Number == number && t.Status != table.StatusFree {
				vm.scope.Apply(func() {
					vm.update(func(s *HomeState) {
						s.Selected = &number
						s.ActionError = ""
					})
				})
				return
			}
		}
	}

	vm.scope.Launch(func(ctx context.Context) {
		if _, err := vm.tables.ChangeTableStatus(ctx, number, table.Occupy); err != nil {
			vm.fail(ctx, "Occupy table failed", err)
			return
		}
		vm.scope.Apply(func() {
			vm.update(func(s *HomeState) {
				s.Selected = &number
				s.ActionError = ""
			})
		})
		vm.Reload()
	})
}

// Close cancels in-flight work. No state changes are applied afterwards.
func (vm *HomeViewModel) Close() { vm.scope.Close() }

func (vm *HomeViewModel) fail(ctx context.Context, msg string, err error) {
	zctx.From(ctx).Debug(msg, zap.Error(err))
	vm.scope.Apply(func() {
		vm.update(func(s *HomeState) { s.ActionError = err.Error() })
	})
}

func (vm *HomeViewModel) clearActionError() {
	vm.scope.Apply(func() {
		vm.update(func(s *HomeState) { s.ActionError = "" })
	})
}

func (vm *HomeViewModel) update(fn func(s *HomeState)) {
	vm.mu.Lock()
	fn(&vm.state)
	s := vm.state
	vm.mu.Unlock()

	if vm.observer != nil {
		vm.observer(s)
	}
}

func tablesResource(tables []table.Table, err error) resource.Resource[[]table.Table] {
	if err == nil {
		return resource.Success(tables)
	}
	msg := err.Error()
	if msg == "" {
		msg = DefaultTablesError
	}
	return resource.Error[[]table.Table](msg)
}
