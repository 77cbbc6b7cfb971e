package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/pkg/httpmiddleware"
)

type claimsKey struct{}

// ClaimsFromContext returns the claims of an authenticated request, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email, password, err := decodeCredentials(data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.sessions.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Staff logged in",
		zap.Stringer("user_id", sess.User.ID),
		zap.String("role", sess.User.Role),
	)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSession(e, sess) })
}

// requireRole admits requests carrying a valid bearer token whose role is
// one of roles.
func (h *Handler) requireRole(roles ...string) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
				return
			}
			claims, err := h.verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
					return
				}
			}
			httpmiddleware.WriteError(w, http.StatusForbidden, codeForbidden, "insufficient permissions")
		})
	}
}
