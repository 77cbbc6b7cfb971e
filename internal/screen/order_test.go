package screen

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/resource"
	"github.com/dynamite/charlyhot-pos/internal/storage/memory"
)

const waitFor = 2 * time.Second

type loaderFunc func(ctx context.Context, category *string) ([]product.Product, error)

func (f loaderFunc) GetProducts(ctx context.Context, category *string) ([]product.Product, error) {
	return f(ctx, category)
}

func ptr[T any](v T) *T { return &v }

func names(products []product.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestVisible(t *testing.T) {
	seed := memory.SeedProducts()

	for _, tt := range []struct {
		name     string
		category *string
		query    string
		want     []string
	}{
		{
			name: "no filters keeps order",
			want: []string{"Hamburguesa Clásica", "Papas Fritas Medianas", "Gaseosa Grande", "Pizza Personal"},
		},
		{
			name:     "lowercase category",
			category: ptr("bebidas"),
			want:     []string{"Gaseosa Grande"},
		},
		{
			name:  "query ignores case",
			query: "PIZZA",
			want:  []string{"Pizza Personal"},
		},
		{
			name:  "blank query is wildcard",
			query: "   ",
			want:  []string{"Hamburguesa Clásica", "Papas Fritas Medianas", "Gaseosa Grande", "Pizza Personal"},
		},
		{
			name:     "both predicates must hold",
			category: ptr("Pizzas"),
			query:    "papas",
			want:     []string{},
		},
		{
			name:  "trailing space is part of the query",
			query: "Personal ",
			want:  []string{},
		},
		{
			name:  "leading space is part of the query",
			query: " pizza",
			want:  []string{},
		},
		{
			name:  "space between words matches",
			query: "FRITAS med",
			want:  []string{"Papas Fritas Medianas"},
		},
		{
			name:  "substring match",
			query: "an",
			want:  []string{"Papas Fritas Medianas", "Gaseosa Grande"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Visible(seed, tt.category, tt.query)))
		})
	}
}

func TestVisible_PredicateOrder(t *testing.T) {
	seed := append(memory.SeedProducts(), product.Product{ID: "prod005", Name: "Gaseosa Personal", Category: "BEBIDAS"})
	categories := []*string{nil, ptr("bebidas"), ptr("Pizzas"), ptr("nada")}
	queries := []string{"", "gaseosa", "personal", "x"}

	for _, c := range categories {
		for _, q := range queries {
			both := Visible(seed, c, q)
			categoryFirst := Visible(Visible(seed, c, ""), nil, q)
			queryFirst := Visible(Visible(seed, nil, q), c, "")
			assert.Equal(t, names(both), names(categoryFirst))
			assert.Equal(t, names(both), names(queryFirst))
		}
	}
}

func TestReduceOrder(t *testing.T) {
	seed := memory.SeedProducts()

	s := OrderState{TableNumber: 3}
	s = ReduceOrder(s, LoadStarted{})
	assert.True(t, s.IsLoading())
	assert.Empty(t, s.Visible())

	loaded := ReduceOrder(s, LoadSucceeded{Products: seed})
	assert.False(t, loaded.IsLoading())
	assert.Equal(t, []string{"Hamburguesas", "Acompañamientos", "Bebidas", "Pizzas"}, loaded.Categories)
	assert.Len(t, loaded.Visible(), 4)

	t.Run("filters do not touch the resource", func(t *testing.T) {
		filtered := ReduceOrder(loaded, CategorySelected{Category: ptr("bebidas")})
		filtered = ReduceOrder(filtered, SearchChanged{Query: "gas"})
		assert.Equal(t, loaded.Products, filtered.Products)
		assert.Equal(t, []string{"Gaseosa Grande"}, names(filtered.Visible()))
		assert.Nil(t, loaded.SelectedCategory)
		assert.Empty(t, loaded.SearchQuery)
	})

	t.Run("reload drops previous data", func(t *testing.T) {
		reloading := ReduceOrder(loaded, LoadStarted{})
		assert.True(t, reloading.IsLoading())
		_, ok := reloading.Products.Data()
		assert.False(t, ok)
		assert.Empty(t, reloading.Categories)
		assert.Empty(t, reloading.Visible())
	})

	t.Run("reload drops previous error", func(t *testing.T) {
		failed := ReduceOrder(loaded, LoadFailed{Message: "timeout"})
		msg, ok := failed.Products.Message()
		require.True(t, ok)
		assert.Equal(t, "timeout", msg)

		reloading := ReduceOrder(failed, LoadStarted{})
		_, ok = reloading.Products.Message()
		assert.False(t, ok)
	})

	t.Run("empty failure message", func(t *testing.T) {
		failed := ReduceOrder(s, LoadFailed{})
		msg, _ := failed.Products.Message()
		assert.Equal(t, DefaultProductsError, msg)
	})

	t.Run("selected category is copied", func(t *testing.T) {
		c := "Pizzas"
		got := ReduceOrder(loaded, CategorySelected{Category: &c})
		c = "Bebidas"
		assert.Equal(t, "Pizzas", *got.SelectedCategory)
		assert.Nil(t, ReduceOrder(got, CategorySelected{}).SelectedCategory)
	})
}

func TestOrderViewModel_Load(t *testing.T) {
	var calls atomic.Int32
	loader := loaderFunc(func(_ context.Context, category *string) ([]product.Product, error) {
		calls.Add(1)
		assert.Nil(t, category)
		return memory.SeedProducts(), nil
	})

	vm := NewOrderViewModel(context.Background(), loader, 7, nil)
	defer vm.Close()

	require.Eventually(t, func() bool {
		return vm.State().Products.Kind() == resource.KindSuccess
	}, waitFor, time.Millisecond)

	vm.OnCategorySelected(ptr("Hamburguesas"))
	vm.OnSearchChanged("clásica")

	s := vm.State()
	assert.Equal(t, 7, s.TableNumber)
	assert.Equal(t, []string{"Hamburguesa Clásica"}, names(s.Visible()))
	assert.Equal(t, int32(1), calls.Load(), "filters must not refetch")
}

func TestOrderViewModel_Failure(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		want string
	}{
		{name: "message", err: errors.New("db down"), want: "db down"},
		{name: "empty message", err: errors.New(""), want: DefaultProductsError},
	} {
		t.Run(tt.name, func(t *testing.T) {
			loader := loaderFunc(func(context.Context, *string) ([]product.Product, error) {
				return nil, tt.err
			})
			vm := NewOrderViewModel(context.Background(), loader, 1, nil)
			defer vm.Close()

			require.Eventually(t, func() bool {
				return vm.State().Products.Kind() == resource.KindError
			}, waitFor, time.Millisecond)

			msg, _ := vm.State().Products.Message()
			assert.Equal(t, tt.want, msg)
			assert.Empty(t, vm.State().Visible())
		})
	}
}

func TestOrderViewModel_ReloadDiscardsStale(t *testing.T) {
	started, first := make(chan struct{}), make(chan struct{})
	var calls atomic.Int32
	loader := loaderFunc(func(context.Context, *string) ([]product.Product, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-first
			return []product.Product{{ID: "old", Name: "Old"}}, nil
		}
		return memory.SeedProducts(), nil
	})

	vm := NewOrderViewModel(context.Background(), loader, 1, nil)
	defer vm.Close()

	<-started
	vm.Reload()
	require.Eventually(t, func() bool {
		return vm.State().Products.Kind() == resource.KindSuccess
	}, waitFor, time.Millisecond)

	close(first)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, waitFor, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	data, ok := vm.State().Products.Data()
	require.True(t, ok)
	assert.Len(t, data, 4)
}

func TestOrderViewModel_CloseMidFlight(t *testing.T) {
	started := make(chan struct{})
	loader := loaderFunc(func(ctx context.Context, _ *string) ([]product.Product, error) {
		close(started)
		<-ctx.Done()
		return memory.SeedProducts(), nil
	})

	var (
		mu      sync.Mutex
		updates []OrderState
	)
	observer := func(s OrderState) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, s)
	}

	vm := NewOrderViewModel(context.Background(), loader, 1, observer)
	<-started
	vm.Close()

	assert.True(t, vm.State().IsLoading())

	mu.Lock()
	before := len(updates)
	mu.Unlock()

	vm.Reload()
	vm.OnSearchChanged("pizza")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, len(updates))
	for _, s := range updates {
		assert.True(t, s.IsLoading())
	}
	assert.Empty(t, vm.State().SearchQuery)
}
