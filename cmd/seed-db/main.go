package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dynamite/charlyhot-pos/db"
	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/product"
	"github.com/dynamite/charlyhot-pos/internal/domain/table"
	"github.com/dynamite/charlyhot-pos/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    *string         `json:"imageUrl"`
}

type options struct {
	databaseURL   string
	productsFile  string
	tables        int
	adminEmail    string
	adminPassword string
	waiterEmail   string
	waiterPass    string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "", "path to products JSON file (defaults to the embedded menu)")
	flag.IntVar(&opts.tables, "tables", 8, "number of tables to ensure exist")
	flag.StringVar(&opts.adminEmail, "admin-email", "admin@charlyhot.pe", "admin account email")
	flag.StringVar(&opts.adminPassword, "admin-password", "", "admin account password (or POS_SEED_ADMIN_PASSWORD env)")
	flag.StringVar(&opts.waiterEmail, "waiter-email", "mozo@charlyhot.pe", "waiter account email")
	flag.StringVar(&opts.waiterPass, "waiter-password", "", "waiter account password, skipped when empty (or POS_SEED_WAITER_PASSWORD env)")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.adminPassword == "" {
		opts.adminPassword = os.Getenv("POS_SEED_ADMIN_PASSWORD")
	}
	if opts.adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or POS_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}
	if opts.waiterPass == "" {
		opts.waiterPass = os.Getenv("POS_SEED_WAITER_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), opts.productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedTables(ctx, postgres.NewTableRepository(pool), opts.tables); err != nil {
		return errors.Wrap(err, "seed tables")
	}

	users := postgres.NewUserRepository(pool)
	if err := seedUser(ctx, users, opts.adminEmail, "Administrador", auth.RoleAdmin, opts.adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}
	if opts.waiterPass != "" {
		if err := seedUser(ctx, users, opts.waiterEmail, "Mozo", auth.RoleWaiter, opts.waiterPass); err != nil {
			return errors.Wrap(err, "seed waiter")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))

		var err error
		if data, err = os.ReadFile(productsFile); err != nil {
			return errors.Wrap(err, "read products file")
		}
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, pj := range products {
		p := product.Product{
			ID:          pj.ID,
			Name:        pj.Name,
			Description: pj.Description,
			Price:       pj.Price,
			Category:    pj.Category,
			ImageURL:    pj.ImageURL,
		}
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}

		added, err := repo.Add(ctx, p)
		if err != nil {
			return errors.Wrapf(err, "add product %s", p.ID)
		}
		if !added {
			if _, err := repo.Update(ctx, p); err != nil {
				return errors.Wrapf(err, "update product %s", p.ID)
			}
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name), slog.Bool("created", added))
	}

	return nil
}

func seedTables(ctx context.Context, repo *postgres.TableRepository, n int) error {
	slog.Info("ensuring tables", slog.Int("count", n))

	for number := 1; number <= n; number++ {
		added, err := repo.Add(ctx, table.Table{Number: number, Status: table.StatusFree})
		if err != nil {
			return errors.Wrapf(err, "add table %d", number)
		}
		if added {
			slog.Info("created table", slog.Int("number", number))
		}
	}

	return nil
}

func seedUser(ctx context.Context, repo *postgres.UserRepository, email, name, role, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	if err := repo.Upsert(ctx, auth.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}); err != nil {
		return errors.Wrapf(err, "upsert user %s", email)
	}

	slog.Info("upserted user", slog.String("email", email), slog.String("role", role))

	return nil
}
