package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/ws"
)

// cartTable resolves the {number} parameter to an existing table.
func (h *Handler) cartTable(r *http.Request) (int, error) {
	number, err := tableNumber(r)
	if err != nil {
		return 0, err
	}
	if _, err := h.floor.GetTable(r.Context(), number); err != nil {
		return 0, err
	}
	return number, nil
}

// GetCart handles GET /tables/{number}/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := h.carts.Get(number)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, number, c) })
}

// AddCartItem handles POST /tables/{number}/cart/items with
// {"productId": "..."}.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := decodeStringField(data, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalog.GetProductByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mutateCart(w, r, number, "add", func(c *cart.Cart) bool {
		c.Add(*p)
		return true
	})
}

// StepCartItem handles POST /tables/{number}/cart/items/{productID}/{op}
// where op is increment or decrement.
func (h *Handler) StepCartItem(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "productID")

	switch op := chi.URLParam(r, "op"); op {
	case "increment":
		h.mutateCart(w, r, number, op, func(c *cart.Cart) bool { return c.Increment(id) })
	case "decrement":
		h.mutateCart(w, r, number, op, func(c *cart.Cart) bool { return c.Decrement(id) })
	default:
		writeError(w, r, badRequest("unknown cart operation "+op, nil))
	}
}

// RemoveCartItem handles DELETE /tables/{number}/cart/items/{productID}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "productID")
	h.mutateCart(w, r, number, "remove", func(c *cart.Cart) bool { return c.Remove(id) })
}

// SetCartItemNotes handles PUT /tables/{number}/cart/items/{productID}/notes
// with {"notes": "..."}.
func (h *Handler) SetCartItemNotes(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := h.readNotes(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "productID")
	h.mutateCart(w, r, number, "line_notes", func(c *cart.Cart) bool { return c.SetLineNotes(id, notes) })
}

// SetCartNotes handles PUT /tables/{number}/cart/notes with {"notes": "..."}.
func (h *Handler) SetCartNotes(w http.ResponseWriter, r *http.Request) {
	number, err := h.cartTable(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	notes, err := h.readNotes(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateCart(w, r, number, "notes", func(c *cart.Cart) bool {
		c.SetNotes(notes)
		return true
	})
}

func (h *Handler) readNotes(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := readBody(w, r)
	if err != nil {
		return "", err
	}
	return decodeStringField(data, "notes")
}

// mutateCart applies fn and writes the resulting cart, or 404 when fn
// reports the product line is missing.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, number int, op string, fn func(c *cart.Cart) bool) {
	c, ok := h.carts.Update(number, fn)
	if !ok {
		writeError(w, r, errors.Wrapf(errLineNotFound, "%s %q", op, chi.URLParam(r, "productID")))
		return
	}
	h.cartChanged(r, op, number)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, number, c) })
}

func (h *Handler) cartChanged(r *http.Request, op string, number int) {
	h.cartMutations.Add(r.Context(), 1, metric.WithAttributes(attribute.String("op", op)))
	c := h.carts.Get(number)
	h.publish(ws.TypeCartUpdated, encoded(func(e *jx.Encoder) { encodeCart(e, number, c) }))
}
