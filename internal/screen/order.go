package screen

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/resource"
)

// DefaultProductsError is shown when a product load fails without a message.
const DefaultProductsError = "Error desconocido al cargar productos"

// ProductLoader fetches the menu.
type ProductLoader interface {
	GetProducts(ctx context.Context, category *string) ([]product.Product, error)
}

// OrderState is the state of the order screen for one table.
type OrderState struct {
	Products         resource.Resource[[]product.Product]
	SearchQuery      string
	SelectedCategory *string
	Categories       []string
	TableNumber      int
}

// IsLoading reports whether products are being fetched.
func (s OrderState) IsLoading() bool { return s.Products.IsLoading() }

// Visible returns the products to display. It is empty unless the last load
// succeeded.
func (s OrderState) Visible() []product.Product {
	data, ok := s.Products.Data()
	if !ok {
		return nil
	}
	return Visible(data, s.SelectedCategory, s.SearchQuery)
}

// Visible filters products by category and name query, keeping input order.
// A nil category or blank query matches everything. Category equality and
// name containment both ignore case. A non-blank query is matched as typed,
// surrounding spaces included.
func Visible(products []product.Product, category *string, query string) []product.Product {
	blank := strings.TrimSpace(query) == ""
	query = strings.ToLower(query)
	out := make([]product.Product, 0, len(products))
	for _, p := range products {
		if category != nil && !p.InCategory(*category) {
			continue
		}
		if !blank && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// OrderEvent is an input to ReduceOrder.
type OrderEvent interface {
	orderEvent()
}

type (
	// LoadStarted begins a fetch and discards previous data or error.
	LoadStarted struct{}
	// LoadSucceeded carries the fetched products.
	LoadSucceeded struct{ Products []product.Product }
	// LoadFailed carries the failure message. An empty message is replaced
	// with DefaultProductsError.
	LoadFailed struct{ Message string }
	// SearchChanged replaces the search query.
	SearchChanged struct{ Query string }
	// CategorySelected replaces the category filter; nil clears it.
	CategorySelected struct{ Category *string }
)

func (LoadStarted) orderEvent()      {}
func (LoadSucceeded) orderEvent()    {}
func (LoadFailed) orderEvent()       {}
func (SearchChanged) orderEvent()    {}
func (CategorySelected) orderEvent() {}

// ReduceOrder returns the state reached by applying ev to s. It does not
// modify s.
func ReduceOrder(s OrderState, ev OrderEvent) OrderState {
	switch ev := ev.(type) {
	case LoadStarted:
		s.Products = resource.Loading[[]product.Product]()
		s.Categories = nil
	case LoadSucceeded:
		s.Products = resource.Success(ev.Products)
		s.Categories = product.Categories(ev.Products)
	case LoadFailed:
		msg := ev.Message
		if msg == "" {
			msg = DefaultProductsError
		}
		s.Products = resource.Error[[]product.Product](msg)
		s.Categories = nil
	case SearchChanged:
		s.SearchQuery = ev.Query
	case CategorySelected:
		if ev.Category != nil {
			c := *ev.Category
			s.SelectedCategory = &c
		} else {
			s.SelectedCategory = nil
		}
	}
	return s
}

// OrderViewModel drives the order screen of one table.
type OrderViewModel struct {
	scope    *Scope
	products ProductLoader
	observer Observer[OrderState]
	table    int

	mu    sync.Mutex
	state OrderState
	gen   uint64
}

// NewOrderViewModel creates the view-model and starts the initial load.
// observer may be nil.
func NewOrderViewModel(ctx context.Context, products ProductLoader, tableNumber int, observer Observer[OrderState]) *OrderViewModel {
	vm := &OrderViewModel{
		scope:    NewScope(ctx),
		products: products,
		observer: observer,
		table:    tableNumber,
		state: OrderState{
			Products:    resource.Loading[[]product.Product](),
			TableNumber: tableNumber,
		},
	}
	vm.Reload()
	return vm
}

// State returns the current state.
func (vm *OrderViewModel) State() OrderState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Reload fetches the full menu again. Results of earlier reloads still in
// flight are discarded.
func (vm *OrderViewModel) Reload() {
	var gen uint64
	ok := vm.scope.Apply(func() {
		gen = vm.dispatch(LoadStarted{}, true)
	})
	if !ok {
		return
	}

	vm.scope.Launch(func(ctx context.Context) {
		products, err := vm.products.GetProducts(ctx, nil)
		var ev OrderEvent = LoadSucceeded{Products: products}
		if err != nil {
			zctx.From(ctx).Debug("Load products failed",
				zap.Int("table", vm.table),
				zap.Error(err),
			)
			ev = LoadFailed{Message: err.Error()}
		}
		vm.scope.Apply(func() {
			vm.dispatchIf(gen, ev)
		})
	})
}

// OnSearchChanged updates the search query without refetching.
func (vm *OrderViewModel) OnSearchChanged(query string) {
	vm.scope.Apply(func() { vm.dispatch(SearchChanged{Query: query}, false) })
}

// OnCategorySelected updates the category filter without refetching.
func (vm *OrderViewModel) OnCategorySelected(category *string) {
	vm.scope.Apply(func() { vm.dispatch(CategorySelected{Category: category}, false) })
}

// Close cancels in-flight loads. No state changes are applied afterwards.
func (vm *OrderViewModel) Close() { vm.scope.Close() }

func (vm *OrderViewModel) dispatch(ev OrderEvent, bump bool) uint64 {
	vm.mu.Lock()
	if bump {
		vm.gen++
	}
	vm.state = ReduceOrder(vm.state, ev)
	gen, s := vm.gen, vm.state
	vm.mu.Unlock()

	if vm.observer != nil {
		vm.observer(s)
	}
	return gen
}

func (vm *OrderViewModel) dispatchIf(gen uint64, ev OrderEvent) {
	vm.mu.Lock()
	if gen != vm.gen {
		vm.mu.Unlock()
		return
	}
	vm.state = ReduceOrder(vm.state, ev)
	s := vm.state
	vm.mu.Unlock()

	if vm.observer != nil {
		vm.observer(s)
	}
}
