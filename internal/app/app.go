package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/glass-bazaar/internal/catalog"
	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/order"
	"github.com/xenking/glass-bazaar/internal/domain/product"
	"github.com/xenking/glass-bazaar/internal/handler"
	"github.com/xenking/glass-bazaar/internal/storage"
	"github.com/xenking/glass-bazaar/internal/storage/memory"
	"github.com/xenking/glass-bazaar/internal/storage/memory/orderstore"
	"github.com/xenking/glass-bazaar/internal/storage/postgres"
	redisstore "github.com/xenking/glass-bazaar/internal/storage/redis"
	"github.com/xenking/glass-bazaar/internal/storage/sqlite"
	"github.com/xenking/glass-bazaar/pkg/health"
	"github.com/xenking/glass-bazaar/pkg/httpmiddleware"
)

const meterName = "github.com/xenking/glass-bazaar"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("mirror", cfg.Mirror.Driver),
		zap.Bool("database", cfg.DatabaseURL != ""),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	// Catalog and order history: PostgreSQL when configured, otherwise the
	// embedded catalog and in-memory orders.
	var (
		pool     *pgxpool.Pool
		products product.Repository
		orders   order.Repository
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		products = postgres.NewProductRepository(pool)
		orders = postgres.NewOrderRepository(pool)
	} else {
		static, err := catalog.Embedded()
		if err != nil {
			return errors.Wrap(err, "load embedded catalog")
		}
		products = static
		orders = orderstore.New()
	}

	mirror, closeMirror, err := openMirror(ctx, cfg, pool, healthSvc)
	if err != nil {
		return errors.Wrap(err, "open mirror")
	}
	defer closeMirror()

	// Carts.
	meter := m.MeterProvider().Meter(meterName)
	metrics, err := newCartMetrics(meter)
	if err != nil {
		return errors.Wrap(err, "cart metrics")
	}
	carts := cart.NewRegistry(mirror, metrics.Observe)
	if err := registerLiveCarts(meter, carts); err != nil {
		return errors.Wrap(err, "cart metrics")
	}

	// HTTP.
	h := handler.NewHandler(
		handler.Config{
			ImageBaseURL:  cfg.ImageBaseURL,
			SessionCookie: cfg.Cart.SessionCookie,
			SecureCookie:  cfg.Cart.SecureCookie,
		},
		products,
		carts,
		mirror,
		order.NewService(products, orders),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h)

	muxRoutes := httpmiddleware.MuxRoutes(mux)
	routeFinder := func(r *http.Request) string {
		if route := h.Route(r); route != "" {
			return route
		}
		return muxRoutes(r)
	}

	// Keyed by address only: session ids are minted freely by clients.
	limitKey := httpmiddleware.RemoteIP
	if cfg.RateLimit.TrustProxy {
		limitKey = httpmiddleware.ClientIP
	}
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
		Key:    limitKey,
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.SessionHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{handler.SessionHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.Instrument("bazaar-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

	server.RegisterOnShutdown(h.Close)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSvc.Run(ctx, 10*time.Second)
	})
	g.Go(func() error {
		return carts.Run(ctx, cfg.Cart.SweepInterval, cfg.Cart.IdleTimeout)
	})
	g.Go(func() error {
		return limiter.Run(ctx)
	})
	g.Go(func() error {
		// Graceful shutdown: wait for context cancellation, drain, then stop.
		<-ctx.Done()
		healthSvc.SetReady(false)
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
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}

// openMirror opens the backend holding cart snapshots and recently viewed
// lists, registering its readiness check.
func openMirror(ctx context.Context, cfg *Config, pool *pgxpool.Pool, healthSvc *health.Health) (storage.KV, func(), error) {
	noop := func() {}

	switch cfg.Mirror.Driver {
	case MirrorMemory:
		return memory.New(), noop, nil
	case MirrorSQLite:
		kv, err := sqlite.Open(ctx, cfg.Mirror.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		healthSvc.AddReadinessCheck("sqlite", time.Second, health.PingCheck(kv))
		return kv, func() { _ = kv.Close() }, nil
	case MirrorRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Mirror.Redis.Addr,
			Password: cfg.Mirror.Redis.Password,
			DB:       cfg.Mirror.Redis.DB,
		})
		kv := redisstore.New(client, cfg.Mirror.Redis.Prefix, cfg.Mirror.Redis.TTL)
		if err := kv.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(kv))
		return kv, func() { _ = client.Close() }, nil
	case MirrorPostgres:
		if pool == nil {
			return nil, nil, errors.New("postgres mirror requires a database")
		}
		return postgres.NewSnapshotKV(pool), noop, nil
	default:
		return nil, nil, errors.Errorf("unknown mirror driver %q", cfg.Mirror.Driver)
	}
}
