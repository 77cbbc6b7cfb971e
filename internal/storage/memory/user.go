package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
)

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository implements auth.UserRepository keyed by lowercase email.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]auth.User
}

// NewUserRepository returns a repository holding the given users.
func NewUserRepository(seed ...auth.User) *UserRepository {
	r := &UserRepository{users: make(map[string]auth.User, len(seed))}
	for _, u := range seed {
		r.users[strings.ToLower(u.Email)] = u
	}
	return r
}

// FindByEmail returns the user with email, or nil.
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Put inserts or replaces a user.
func (r *UserRepository) Put(u auth.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[strings.ToLower(u.Email)] = u
}
