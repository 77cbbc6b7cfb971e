// Package usecase holds the application operations invoked by screens and
// HTTP handlers. Each operation wraps one repository interaction and turns
// every failure, including a panic inside a repository, into an error.
package usecase

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors mapped from repository boolean outcomes.
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product with the same id or name already exists")
	ErrTableNotFound    = errors.New("table not found")
)

// PanicError carries a value recovered from a panicking repository call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("unexpected failure: %v", e.Value)
}

// run executes fn, converting a panic into *PanicError and prefixing any
// error with op.
func run[T any](op string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			result, err = zero, errors.Wrap(&PanicError{Value: rec}, op)
		}
	}()

	result, err = fn()
	if err != nil {
		var zero T
		return zero, errors.Wrap(err, op)
	}
	return result, nil
}
