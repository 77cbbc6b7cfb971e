package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func validConfig() *Config {
	return &Config{
		Addr:           "0.0.0.0:8080",
		Storage:        StorageConfig{Driver: DriverMemory},
		SeedTables:     3,
		Auth:           AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour, AdminEmail: "admin@charlyhot.pe", AdminPassword: "admin123"},
		LoginRateLimit: RateLimitConfig{Max: 10, Window: time.Minute},
		CORS:           CORSConfig{Origins: []string{"*"}},
	}
}

func TestConfig_Validate(t *testing.T) {
	for _, tt := range []struct {
		name   string
		modify func(c *Config)
		err    string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "postgres without url", modify: func(c *Config) { c.Storage.Driver = DriverPostgres }, err: "database URL is required"},
		{name: "postgres", modify: func(c *Config) {
			c.Storage.Driver = DriverPostgres
			c.Storage.DatabaseURL = "postgres://localhost/pos"
		}},
		{name: "unknown driver", modify: func(c *Config) { c.Storage.Driver = "redis" }, err: `unknown storage driver "redis"`},
		{name: "no secret", modify: func(c *Config) { c.Auth.JWTSecret = "" }, err: "JWT secret is required"},
		{name: "zero ttl", modify: func(c *Config) { c.Auth.TokenTTL = 0 }, err: "token TTL must be positive"},
		{name: "negative tables", modify: func(c *Config) { c.SeedTables = -1 }, err: "seed tables must not be negative"},
		{name: "no rate limit", modify: func(c *Config) { c.LoginRateLimit.Max = 0 }, err: "login rate limit"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.err == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/pos")
	t.Setenv("PORT", "9000")
	t.Setenv("POS_STORAGE_DRIVER", "")

	cfg := validConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "postgres://db/pos", cfg.Storage.DatabaseURL)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)

	// Explicit settings win.
	cfg = validConfig()
	cfg.Addr = "127.0.0.1:7000"
	cfg.Storage.DatabaseURL = "postgres://explicit/pos"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "postgres://explicit/pos", cfg.Storage.DatabaseURL)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
}

func TestService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := newService(ctx, zap.NewNop(), validConfig(), noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	defer svc.close()
	go func() { _ = svc.hub.Run(ctx) }()
	svc.health.SetReady(true)

	srv := httptest.NewServer(svc.handler)
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(data)
	}

	code, body := get("/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, body = get("/api/tables")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"number":1,"status":"FREE"},{"number":2,"status":"FREE"},{"number":3,"status":"FREE"}]`, body)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"admin@charlyhot.pe","password":"admin123"}`))
	require.NoError(t, err)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, session.Token)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + session.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return svc.hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	resp, err = http.Post(srv.URL+"/api/tables/2/occupy", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"table.updated","payload":{"number":2,"status":"OCCUPIED"}}`, string(msg))

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=bad", nil)
	assert.Error(t, err)
}
