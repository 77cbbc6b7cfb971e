package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dynamite/charlyhot-pos/internal/api"
	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/domain/cart"
	"github.com/dynamite/charlyhot-pos/internal/usecase"
	"github.com/dynamite/charlyhot-pos/internal/ws"
	"github.com/dynamite/charlyhot-pos/pkg/health"
	"github.com/dynamite/charlyhot-pos/pkg/httpmiddleware"
)

// service is the wired application without its listener.
type service struct {
	handler http.Handler
	health  *health.Health
	hub     *ws.Hub
	limiter *httpmiddleware.RateLimiter
	close   func()
}

func newService(ctx context.Context, lg *zap.Logger, cfg *Config, meter metric.Meter, instrument ...otelhttp.Option) (*service, error) {
	st, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return nil, err
	}

	healthSvc := health.New(10 * time.Second)
	healthSvc.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(st.pinger))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	carts := cart.NewStore()
	authn := auth.NewAuthenticator(st.users, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	hub := ws.NewHub()
	limiter := httpmiddleware.NewRateLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.LoginRateLimit.Max,
		Window: cfg.LoginRateLimit.Window,
	})

	h, err := api.NewHandler(api.Deps{
		Catalog:  usecase.NewCatalog(st.products),
		Floor:    usecase.NewFloor(st.tables, carts),
		Carts:    carts,
		Sessions: usecase.NewSessions(authn),
		Verifier: authn,
		Events:   hub,
		Meter:    meter,
	}, limiter.Middleware())
	if err != nil {
		st.close()
		return nil, errors.Wrap(err, "create api handler")
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httpmiddleware.RequestIDHeader},
		ExposedHeaders:   []string{httpmiddleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	r.Handle("/ws", ws.Handler(hub, authn))
	r.Mount("/api", h.Routes())

	handler := httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(),
		httpmiddleware.Recovery(),
	)

	return &service{
		handler: otelhttp.NewHandler(handler, "pos-api", instrument...),
		health:  healthSvc,
		hub:     hub,
		limiter: limiter,
		close:   st.close,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	svc, err := newService(ctx, lg, cfg, m.MeterProvider().Meter("charlyhot-pos"),
		otelhttp.WithMeterProvider(m.MeterProvider()),
		otelhttp.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return err
	}
	defer svc.close()

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.hub.Run(gctx) })
	g.Go(func() error { return svc.health.Run(gctx) })
	g.Go(func() error { return svc.limiter.Run(gctx) })

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		svc.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	g.Go(func() error {
		svc.health.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
