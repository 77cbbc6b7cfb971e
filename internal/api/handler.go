// Package api exposes the POS operations over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/usecase"
	"github.com/dynamite/charlyhot-pos/internal/ws"
	"github.com/dynamite/charlyhot-pos/pkg/httpmiddleware"
)

// Compile-time checks that the use-case types satisfy the handler
// dependencies.
var (
	_ Catalog       = (*usecase.Catalog)(nil)
	_ Floor         = (*usecase.Floor)(nil)
	_ Sessions      = (*usecase.Sessions)(nil)
	_ TokenVerifier = (*auth.Authenticator)(nil)
	_ Publisher     = (*ws.Hub)(nil)
)

// Catalog provides the product operations.
type Catalog interface {
	GetProducts(ctx context.Context, category *string) ([]product.Product, error)
	GetProductByID(ctx context.Context, id string) (*product.Product, error)
	GetCategories(ctx context.Context) ([]string, error)
	AddProduct(ctx context.Context, p product.Product) error
	UpdateProduct(ctx context.Context, p product.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// Floor provides the table operations.
type Floor interface {
	GetTables(ctx context.Context, status *table.Status) ([]table.Table, error)
	GetTable(ctx context.Context, number int) (*table.Table, error)
	AddTable(ctx context.Context) (table.Table, error)
	ChangeTableStatus(ctx context.Context, number int, tr table.Transition) (table.Table, error)
}

// Sessions authenticates staff.
type Sessions interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Publisher receives table and cart change notifications.
type Publisher interface {
	Publish(ev ws.Event)
}

// Deps are the collaborators of Handler. Events and Meter are optional.
type Deps struct {
	Catalog  Catalog
	Floor    Floor
	Carts    *cart.Store
	Sessions Sessions
	Verifier TokenVerifier
	Events   Publisher
	Meter    metric.Meter
}

// Handler serves the /api routes.
type Handler struct {
	catalog  Catalog
	floor    Floor
	carts    *cart.Store
	sessions Sessions
	verifier TokenVerifier
	events   Publisher

	cartMutations   metric.Int64Counter
	tableMutations  metric.Int64Counter
	loginRateLimits httpmiddleware.Middleware
}

// NewHandler creates a Handler. loginLimit guards POST /auth/login and may
// be nil.
func NewHandler(d Deps, loginLimit httpmiddleware.Middleware) (*Handler, error) {
	meter := d.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	cartMutations, err := meter.Int64Counter("pos.cart.mutations",
		metric.WithDescription("Cart changes grouped by operation"),
	)
	if err != nil {
		return nil, err
	}
	tableMutations, err := meter.Int64Counter("pos.table.mutations",
		metric.WithDescription("Table creations and status changes grouped by operation"),
	)
	if err != nil {
		return nil, err
	}
	if loginLimit == nil {
		loginLimit = func(next http.Handler) http.Handler { return next }
	}

	return &Handler{
		catalog:         d.Catalog,
		floor:           d.Floor,
		carts:           d.Carts,
		sessions:        d.Sessions,
		verifier:        d.Verifier,
		events:          d.Events,
		cartMutations:   cartMutations,
		tableMutations:  tableMutations,
		loginRateLimits: loginLimit,
	}, nil
}

// Routes returns the API router. Mount it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimits).Post("/auth/login", h.Login)

	r.Get("/categories", h.ListCategories)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.requireRole(auth.RoleAdmin))
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Post("/", h.CreateTable)
		r.Route("/{number}", func(r chi.Router) {
			r.Get("/", h.GetTable)
			r.Post("/{action}", h.ChangeTableStatus)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Put("/notes", h.SetCartNotes)
				r.Post("/items", h.AddCartItem)
				r.Delete("/items/{productID}", h.RemoveCartItem)
				r.Post("/items/{productID}/{op}", h.StepCartItem)
				r.Put("/items/{productID}/notes", h.SetCartItemNotes)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func (h *Handler) publish(typ string, payload []byte) {
	if h.events == nil {
		return
	}
	h.events.Publish(ws.Event{Type: typ, Payload: payload})
}
