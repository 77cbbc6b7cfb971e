package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage        StorageConfig
	SeedTables     int `default:"8" usage:"Number of FREE tables created on an empty floor" flag:"seed-tables"`
	Auth           AuthConfig
	LoginRateLimit RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Driver      string `default:"memory" usage:"Storage driver: memory or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (POS_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// AuthConfig controls staff login tokens and the bootstrap account.
type AuthConfig struct {
	JWTSecret     string        `usage:"HMAC secret for session tokens" flag:"jwt-secret"`
	TokenTTL      time.Duration `default:"12h" usage:"Session token lifetime" flag:"token-ttl"`
	AdminEmail    string        `default:"admin@charlyhot.pe" usage:"Bootstrap admin email" flag:"admin-email"`
	AdminPassword string        `usage:"Bootstrap admin password, the account is skipped when empty" flag:"admin-password"`
}

// RateLimitConfig controls the per-client login rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max login attempts per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/charlyhot/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set POS_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT secret is required: set POS_AUTH_JWT_SECRET")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.Errorf("token TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.SeedTables < 0 {
		return errors.Errorf("seed tables must not be negative, got %d", c.SeedTables)
	}
	if c.LoginRateLimit.Max <= 0 || c.LoginRateLimit.Window <= 0 {
		return errors.New("login rate limit max and window must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration. A DATABASE_URL also switches an
// unset driver to postgres.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
			if os.Getenv("POS_STORAGE_DRIVER") == "" {
				c.Storage.Driver = DriverPostgres
			}
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
