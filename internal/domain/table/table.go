package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Status is the service state of a restaurant table.
type Status string

const (
	// StatusFree marks a table available for new guests.
	StatusFree Status = "FREE"
	// StatusOccupied marks a table with guests ordering or eating.
	StatusOccupied Status = "OCCUPIED"
	// StatusBillRequested marks a table waiting for its bill.
	StatusBillRequested Status = "BILL_REQUESTED"
)

var (
	// ErrInvalidStatus is returned when parsing an unknown status value.
	ErrInvalidStatus = errors.New("invalid table status")
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the table's current status.
	ErrInvalidTransition = errors.New("invalid table status transition")
	// ErrInvalidNumber is returned for non-positive table numbers.
	ErrInvalidNumber = errors.New("table number must be positive")
)

// ParseStatus converts a string such as "free" or "BILL_REQUESTED" into a
// Status. Matching ignores case; dashes are accepted in place of underscores.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")); st {
	case StatusFree, StatusOccupied, StatusBillRequested:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Table is a numbered table in the dining room.
type Table struct {
	Number int
	Status Status
}

// Transition names a status change requested by staff.
type Transition string

const (
	// Occupy seats guests at a free table.
	Occupy Transition = "occupy"
	// RequestBill marks an occupied table as waiting for the bill.
	RequestBill Transition = "request-bill"
	// Release frees an occupied or billed table.
	Release Transition = "release"
)

// ParseTransition validates a transition name.
func ParseTransition(s string) (Transition, error) {
	switch tr := Transition(strings.ToLower(s)); tr {
	case Occupy, RequestBill, Release:
		return tr, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, s)
	}
}

// Apply returns the status reached by applying tr to from.
func (tr Transition) Apply(from Status) (Status, error) {
	switch {
	case tr == Occupy && from == StatusFree:
		return StatusOccupied, nil
	case tr == RequestBill && from == StatusOccupied:
		return StatusBillRequested, nil
	case tr == Release && (from == StatusOccupied || from == StatusBillRequested):
		return StatusFree, nil
	default:
		return "", fmt.Errorf("%w: cannot %s a table that is %s", ErrInvalidTransition, tr, from)
	}
}

// Repository defines storage for tables.
type Repository interface {
	// List returns tables ordered by number. A non-nil status restricts the
	// result to tables with exactly that status.
	List(ctx context.Context, status *Status) ([]Table, error)
	// Get returns nil without error when the table does not exist.
	Get(ctx context.Context, number int) (*Table, error)
	// Add returns false if a table with the same number exists.
	Add(ctx context.Context, t Table) (bool, error)
	// Next creates the table numbered one above the current maximum, free.
	Next(ctx context.Context) (Table, error)
	// SetStatus returns false if the table does not exist.
	SetStatus(ctx context.Context, number int, status Status) (bool, error)
	// Delete returns false if the table does not exist.
	Delete(ctx context.Context, number int) (bool, error)
}
