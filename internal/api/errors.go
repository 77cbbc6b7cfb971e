package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/usecase"
	"github.com/dynamite/charlyhot-pos/pkg/httpmiddleware"
)

// Error codes returned in the "code" field.
const (
	codeBadRequest        = "bad_request"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeValidation        = "validation_failed"
	codeInvalidTransition = "invalid_transition"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeInternal          = "internal"
)

var errLineNotFound = errors.New("product is not in the cart")

// requestError reports a malformed request.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// classify maps err to an HTTP status and error code.
func classify(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, usecase.ErrProductNotFound),
		errors.Is(err, usecase.ErrTableNotFound),
		errors.Is(err, errLineNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, usecase.ErrDuplicateProduct),
		errors.Is(err, product.ErrDuplicateName):
		return http.StatusConflict, codeConflict
	case errors.Is(err, table.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, codeInvalidTransition
	case errors.Is(err, product.ErrEmptyID),
		errors.Is(err, product.ErrEmptyName),
		errors.Is(err, product.ErrNegativePrice),
		errors.Is(err, table.ErrInvalidStatus),
		errors.Is(err, table.ErrInvalidNumber),
		errors.Is(err, usecase.ErrMissingCredentials):
		return http.StatusUnprocessableEntity, codeValidation
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, codeUnauthorized
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError renders err. Server errors are logged and their details hidden.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	httpmiddleware.WriteError(w, status, code, msg)
}
