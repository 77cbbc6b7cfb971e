package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
)

const (
	findUserByEmailSQL = `SELECT id, email, name, role, password_hash
		FROM users WHERE lower(email) = lower($1)`

	upsertUserSQL = `INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lower(email)) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`
)

var _ auth.UserRepository = (*UserRepository)(nil)

// UserRepository provides staff account lookups backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByEmail looks up a user by email, ignoring case.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, findUserByEmailSQL, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return &u, nil
}

// Upsert inserts a user or refreshes the account with the same email.
func (r *UserRepository) Upsert(ctx context.Context, u auth.User) error {
	_, err := r.pool.Exec(ctx, upsertUserSQL, u.ID, u.Email, u.Name, u.Role, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.Email, err)
	}
	return nil
}
