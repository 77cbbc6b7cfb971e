// Package resource provides a tri-state wrapper for asynchronously loaded
// data: Loading, Success or Error.
package resource

import "fmt"

// Kind identifies the active variant of a Resource.
type Kind uint8

const (
	// KindLoading means a fetch is in flight and no result is available yet.
	KindLoading Kind = iota
	// KindSuccess means the fetch completed and data is available.
	KindSuccess
	// KindError means the fetch failed with a human-readable message.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Resource is a tagged union over Loading, Success(data) and Error(message).
// Exactly one variant is active. The zero value is Loading.
type Resource[T any] struct {
	kind    Kind
	data    T
	message string
}

// Loading returns a Resource in the Loading state.
func Loading[T any]() Resource[T] {
	return Resource[T]{kind: KindLoading}
}

// Success returns a Resource holding data.
func Success[T any](data T) Resource[T] {
	return Resource[T]{kind: KindSuccess, data: data}
}

// Error returns a Resource in the Error state with the given message.
func Error[T any](message string) Resource[T] {
	return Resource[T]{kind: KindError, message: message}
}

// Kind reports the active variant.
func (r Resource[T]) Kind() Kind { return r.kind }

// IsLoading reports whether r is Loading.
func (r Resource[T]) IsLoading() bool { return r.kind == KindLoading }

// Data returns the payload and true when r is Success.
func (r Resource[T]) Data() (T, bool) {
	if r.kind != KindSuccess {
		var zero T
		return zero, false
	}
	return r.data, true
}

// Message returns the error message and true when r is Error.
func (r Resource[T]) Message() (string, bool) {
	if r.kind != KindError {
		return "", false
	}
	return r.message, true
}

func (r Resource[T]) String() string {
	switch r.kind {
	case KindSuccess:
		return fmt.Sprintf("Success(%v)", r.data)
	case KindError:
		return fmt.Sprintf("Error(%q)", r.message)
	default:
		return "Loading"
	}
}

// Match dispatches on the active variant. All three handlers are required,
// so a caller cannot silently drop a state.
func Match[T, R any](
	r Resource[T],
	loading func() R,
	success func(data T) R,
	failure func(message string) R,
) R {
	switch r.kind {
	case KindSuccess:
		return success(r.data)
	case KindError:
		return failure(r.message)
	case KindLoading:
		return loading()
	default:
		panic(fmt.Sprintf("resource: unknown kind %d", uint8(r.kind)))
	}
}

// Map transforms the Success payload and keeps Loading and Error as they are.
func Map[T, U any](r Resource[T], fn func(T) U) Resource[U] {
	return Match(r,
		Loading[U],
		func(data T) Resource[U] { return Success(fn(data)) },
		Error[U],
	)
}
