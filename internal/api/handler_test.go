package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/storage/memory"
	"github.com/dynamite/charlyhot-pos/internal/usecase"
	"github.com/dynamite/charlyhot-pos/internal/ws"
	"github.com/dynamite/charlyhot-pos/pkg/httpmiddleware"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(ev ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testServer struct {
	t      *testing.T
	srv    http.Handler
	events *recordingPublisher
	authn  *auth.Authenticator
}

func newTestServer(t *testing.T, loginLimit httpmiddleware.Middleware) *testServer {
	t.Helper()

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}
	users := memory.NewUserRepository(
		auth.User{ID: uuid.New(), Email: "admin@charlyhot.pe", Name: "Admin", Role: auth.RoleAdmin, PasswordHash: hash("admin123")},
		auth.User{ID: uuid.New(), Email: "mozo@charlyhot.pe", Name: "Mozo", Role: auth.RoleWaiter, PasswordHash: hash("mozo123")},
	)
	authn := auth.NewAuthenticator(users, []byte("test-secret"), time.Hour)

	carts := cart.NewStore()
	events := &recordingPublisher{}
	h, err := NewHandler(Deps{
		Catalog:  usecase.NewCatalog(memory.NewProductRepository(memory.SeedProducts()...)),
		Floor:    usecase.NewFloor(memory.NewTableRepository(memory.SeedTables(4)...), carts),
		Carts:    carts,
		Sessions: usecase.NewSessions(authn),
		Verifier: authn,
		Events:   events,
	}, loginLimit)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))
	return &testServer{t: t, srv: mux, events: events, authn: authn}
}

func (s *testServer) do(method, path, body, token string) (int, map[string]any) {
	s.t.Helper()
	code, raw := s.raw(method, path, body, token)
	if raw == "" {
		return code, nil
	}
	var out map[string]any
	require.NoError(s.t, json.Unmarshal([]byte(raw), &out), raw)
	return code, out
}

func (s *testServer) raw(method, path, body, token string) (int, string) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.srv.ServeHTTP(w, req)
	return w.Code, w.Body.String()
}

func (s *testServer) token(email, password string) string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, "")
	require.Equal(s.t, http.StatusOK, code, body)
	return body["token"].(string)
}

func list(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	return out
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, nil)

	code, raw := s.raw(http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, code)
	all := list(t, raw)
	require.Len(t, all, 4)
	assert.Equal(t, "prod001", all[0]["id"])
	assert.Equal(t, "15.00", all[0]["price"])
	assert.Nil(t, all[0]["imageUrl"])

	code, raw = s.raw(http.MethodGet, "/api/products?category=bebidas", "", "")
	require.Equal(t, http.StatusOK, code)
	drinks := list(t, raw)
	require.Len(t, drinks, 1)
	assert.Equal(t, "Gaseosa Grande", drinks[0]["name"])

	code, body := s.do(http.MethodGet, "/api/products/prod004", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Pizzas", body["category"])

	code, body = s.do(http.MethodGet, "/api/products/prod999", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["code"])

	code, raw = s.raw(http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["Hamburguesas","Acompañamientos","Bebidas","Pizzas"]`, raw)
}

func TestProductAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.token("admin@charlyhot.pe", "admin123")
	waiter := s.token("mozo@charlyhot.pe", "mozo123")

	salad := `{"id":"prod005","name":"Ensalada César","price":"18.90","category":"Entradas","imageUrl":"https://cdn.charlyhot.pe/ensalada.png"}`

	for _, tt := range []struct {
		name  string
		token string
		body  string
		code  int
		err   string
	}{
		{name: "no token", body: salad, code: http.StatusUnauthorized, err: "unauthorized"},
		{name: "bad token", token: "garbage", body: salad, code: http.StatusUnauthorized, err: "unauthorized"},
		{name: "waiter", token: waiter, body: salad, code: http.StatusForbidden, err: "forbidden"},
		{name: "admin", token: admin, body: salad, code: http.StatusCreated},
		{name: "duplicate id", token: admin, body: salad, code: http.StatusConflict, err: "conflict"},
		{name: "duplicate name", token: admin, body: `{"id":"prod006","name":"gaseosa grande","price":1,"category":"Bebidas"}`, code: http.StatusConflict, err: "conflict"},
		{name: "negative price", token: admin, body: `{"id":"prod007","name":"Agua","price":-1,"category":"Bebidas"}`, code: http.StatusUnprocessableEntity, err: "validation_failed"},
		{name: "malformed", token: admin, body: `{"id":`, code: http.StatusBadRequest, err: "bad_request"},
		{name: "bad price", token: admin, body: `{"id":"prod008","name":"Agua","price":"mucho","category":"Bebidas"}`, code: http.StatusBadRequest, err: "bad_request"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(http.MethodPost, "/api/products", tt.body, tt.token)
			assert.Equal(t, tt.code, code)
			if tt.err != "" {
				assert.Equal(t, tt.err, body["code"])
			}
		})
	}

	code, body := s.do(http.MethodGet, "/api/products/prod005", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "18.90", body["price"])
	assert.Equal(t, "https://cdn.charlyhot.pe/ensalada.png", body["imageUrl"])

	code, body = s.do(http.MethodPut, "/api/products/prod005", `{"id":"ignored","name":"Ensalada César","price":19.5,"category":"Entradas","imageUrl":null}`, admin)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "prod005", body["id"])
	assert.Equal(t, "19.50", body["price"])

	code, _ = s.do(http.MethodPut, "/api/products/prod005", `{"name":"Pizza Personal","price":1,"category":"Entradas"}`, admin)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPut, "/api/products/missing", `{"name":"X","price":1,"category":"Y"}`, admin)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodDelete, "/api/products/prod005", "", admin)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(http.MethodDelete, "/api/products/prod005", "", admin)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTables(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(http.MethodPost, "/api/tables", "", "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, float64(5), body["number"])
	assert.Equal(t, "FREE", body["status"])

	code, body = s.do(http.MethodPost, "/api/tables/2/occupy", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OCCUPIED", body["status"])

	code, raw := s.raw(http.MethodGet, "/api/tables?status=occupied", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"number":2,"status":"OCCUPIED"}]`, raw)

	code, raw = s.raw(http.MethodGet, "/api/tables", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list(t, raw), 5)

	for _, tt := range []struct {
		name string
		path string
		code int
		err  string
	}{
		{name: "occupy twice", path: "/api/tables/2/occupy", code: http.StatusUnprocessableEntity, err: "invalid_transition"},
		{name: "bill on free table", path: "/api/tables/3/request-bill", code: http.StatusUnprocessableEntity, err: "invalid_transition"},
		{name: "unknown action", path: "/api/tables/3/clean", code: http.StatusUnprocessableEntity, err: "invalid_transition"},
		{name: "unknown table", path: "/api/tables/99/occupy", code: http.StatusNotFound, err: "not_found"},
		{name: "bad number", path: "/api/tables/dos/occupy", code: http.StatusBadRequest, err: "bad_request"},
		{name: "zero number", path: "/api/tables/0/occupy", code: http.StatusUnprocessableEntity, err: "validation_failed"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(http.MethodPost, tt.path, "", "")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err, body["code"])
		})
	}

	code, body = s.do(http.MethodGet, "/api/tables?status=dirty", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_failed", body["code"])

	code, body = s.do(http.MethodGet, "/api/tables/2", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OCCUPIED", body["status"])

	assert.Equal(t, []string{ws.TypeTableUpdated, ws.TypeTableUpdated}, s.events.types())
}

func TestCart(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodPost, "/api/tables/1/occupy", "", "")
	require.Equal(t, http.StatusOK, code)

	for range 2 {
		code, _ = s.do(http.MethodPost, "/api/tables/1/cart/items", `{"productId":"prod001"}`, "")
		require.Equal(t, http.StatusOK, code)
	}
	code, body := s.do(http.MethodGet, "/api/tables/1/cart", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "30.00", body["total"])
	assert.Equal(t, float64(2), body["itemCount"])
	lines := body["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, float64(2), line["quantity"])
	assert.Equal(t, "30.00", line["subtotal"])

	code, body = s.do(http.MethodPut, "/api/tables/1/cart/items/prod001/notes", `{"notes":"sin cebolla"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sin cebolla", body["lines"].([]any)[0].(map[string]any)["notes"])

	code, body = s.do(http.MethodPut, "/api/tables/1/cart/notes", `{"notes":"cumpleaños"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cumpleaños", body["notes"])

	code, body = s.do(http.MethodPost, "/api/tables/1/cart/items/prod001/increment", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "45.00", body["total"])

	for range 3 {
		code, body = s.do(http.MethodPost, "/api/tables/1/cart/items/prod001/decrement", "", "")
		require.Equal(t, http.StatusOK, code)
	}
	assert.Empty(t, body["lines"])
	assert.Equal(t, "0.00", body["total"])

	for _, tt := range []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{name: "decrement missing line", method: http.MethodPost, path: "/api/tables/1/cart/items/prod001/decrement", code: http.StatusNotFound},
		{name: "remove missing line", method: http.MethodDelete, path: "/api/tables/1/cart/items/prod002", code: http.StatusNotFound},
		{name: "unknown product", method: http.MethodPost, path: "/api/tables/1/cart/items", body: `{"productId":"prod999"}`, code: http.StatusNotFound},
		{name: "missing product id", method: http.MethodPost, path: "/api/tables/1/cart/items", body: `{}`, code: http.StatusBadRequest},
		{name: "unknown table", method: http.MethodGet, path: "/api/tables/42/cart", code: http.StatusNotFound},
		{name: "unknown op", method: http.MethodPost, path: "/api/tables/1/cart/items/prod001/double", code: http.StatusBadRequest},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := s.do(tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.code, code)
		})
	}

	code, _ = s.do(http.MethodPost, "/api/tables/1/cart/items", `{"productId":"prod003"}`, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/tables/1/release", "", "")
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodGet, "/api/tables/1/cart", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["lines"])
	assert.Empty(t, body["notes"])

	types := s.events.types()
	assert.Equal(t, ws.TypeTableUpdated, types[0])
	assert.Equal(t, ws.TypeCartUpdated, types[len(types)-1])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(http.MethodPost, "/api/auth/login", `{"email":" Admin@CharlyHot.pe ","password":"admin123"}`, "")
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ADMIN", user["role"])
	assert.NotEmpty(t, body["expiresAt"])

	claims, err := s.authn.Verify(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)

	code, body = s.do(http.MethodPost, "/api/auth/login", `{"email":"admin@charlyhot.pe","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["code"])

	code, body = s.do(http.MethodPost, "/api/auth/login", `{"email":"","password":""}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "validation_failed", body["code"])
}

func TestLogin_RateLimited(t *testing.T) {
	s := newTestServer(t, httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{Max: 2, Window: time.Hour}))

	for range 2 {
		code, _ := s.do(http.MethodPost, "/api/auth/login", `{"email":"x@y.z","password":"bad"}`, "")
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, body := s.do(http.MethodPost, "/api/auth/login", `{"email":"admin@charlyhot.pe","password":"admin123"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate_limited", body["code"])

	// Other routes are not limited.
	code, raw := s.raw(http.MethodGet, "/api/products", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, list(t, raw), 4)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)
	code, body := s.do(http.MethodGet, "/api/menu", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["code"])
}
