package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/storage/memory"
	"github.com/dynamite/charlyhot-pos/internal/storage/postgres"
	"github.com/dynamite/charlyhot-pos/pkg/health"
)

// stores bundles the repositories of one storage driver.
type stores struct {
	products product.Repository
	tables   table.Repository
	users    auth.UserRepository
	pinger   health.Pinger
	close    func()
}

func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*stores, error) {
	admin, err := adminUser(cfg.Auth)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Driver {
	case DriverPostgres:
		return openPostgres(ctx, lg, cfg, admin)
	default:
		return openMemory(lg, cfg, admin), nil
	}
}

func openMemory(lg *zap.Logger, cfg *Config, admin *auth.User) *stores {
	products := memory.NewProductRepository(memory.SeedProducts()...)
	users := memory.NewUserRepository()
	if admin != nil {
		users.Put(*admin)
	}
	lg.Info("Using in-memory storage", zap.Int("tables", cfg.SeedTables))
	return &stores{
		products: products,
		tables:   memory.NewTableRepository(memory.SeedTables(cfg.SeedTables)...),
		users:    users,
		pinger:   products,
		close:    func() {},
	}
}

func openPostgres(ctx context.Context, lg *zap.Logger, cfg *Config, admin *auth.User) (*stores, error) {
	pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	s := &stores{
		products: postgres.NewProductRepository(pool),
		tables:   postgres.NewTableRepository(pool),
		pinger:   pool,
		close:    pool.Close,
	}
	users := postgres.NewUserRepository(pool)
	s.users = users

	if admin != nil {
		if err := users.Upsert(ctx, *admin); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "seed admin")
		}
	}
	created, err := seedFloor(ctx, s.tables, cfg.SeedTables)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "seed tables")
	}
	lg.Info("Using postgres storage", zap.Int("tables_created", created))
	return s, nil
}

// seedFloor creates tables 1..n when the floor is empty.
func seedFloor(ctx context.Context, tables table.Repository, n int) (int, error) {
	existing, err := tables.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	created := 0
	for _, t := range memory.SeedTables(n) {
		ok, err := tables.Add(ctx, t)
		if err != nil {
			return created, errors.Wrapf(err, "add table %d", t.Number)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// adminUser returns the bootstrap admin account, or nil when no password is
// configured.
func adminUser(cfg AuthConfig) (*auth.User, error) {
	if cfg.AdminPassword == "" {
		return nil, nil
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, errors.Wrap(err, "hash admin password")
	}
	return &auth.User{
		ID:           uuid.New(),
		Email:        cfg.AdminEmail,
		Name:         "Administrador",
		Role:         auth.RoleAdmin,
		PasswordHash: hash,
	}, nil
}
