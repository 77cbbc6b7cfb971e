package usecase

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
)

// ErrMissingCredentials is returned when email or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Authenticator verifies staff credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// Sessions wraps staff login.
type Sessions struct {
	auth Authenticator
}

// NewSessions creates Sessions backed by a.
func NewSessions(a Authenticator) *Sessions {
	return &Sessions{auth: a}
}

// Login returns a session for valid credentials, ErrMissingCredentials for
// blank input and auth.ErrInvalidCredentials for a mismatch.
func (s *Sessions) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return run("login", func() (*auth.Session, error) {
		if strings.TrimSpace(email) == "" || password == "" {
			return nil, ErrMissingCredentials
		}
		return s.auth.Login(ctx, email, password)
	})
}
