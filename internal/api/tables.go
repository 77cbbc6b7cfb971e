package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/ws"
)

// ListTables handles GET /tables?status=.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	var status *table.Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s, err := table.ParseStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = &s
	}

	tables, err := h.floor.GetTables(r.Context(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTables(e, tables) })
}

// GetTable handles GET /tables/{number}.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	number, err := tableNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.floor.GetTable(r.Context(), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTable(e, *t) })
}

// CreateTable handles POST /tables. The new table gets the next number.
func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	t, err := h.floor.AddTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.tableChanged(r, "create", t)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeTable(e, t) })
}

// ChangeTableStatus handles POST /tables/{number}/{action} where action is
// occupy, request-bill or release.
func (h *Handler) ChangeTableStatus(w http.ResponseWriter, r *http.Request) {
	number, err := tableNumber(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tr, err := table.ParseTransition(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.floor.ChangeTableStatus(r.Context(), number, tr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.tableChanged(r, string(tr), t)
	if t.Status == table.StatusFree {
		h.cartChanged(r, "clear", number)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeTable(e, t) })
}

func (h *Handler) tableChanged(r *http.Request, op string, t table.Table) {
	h.tableMutations.Add(r.Context(), 1, metric.WithAttributes(attribute.String("op", op)))
	h.publish(ws.TypeTableUpdated, encoded(func(e *jx.Encoder) { encodeTable(e, t) }))
}
