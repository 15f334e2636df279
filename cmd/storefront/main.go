package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog"
	checkoutlogsqlite "github.com/jcmexdev/storefront/internal/coordinator/checkoutlog/sqlite"
	"github.com/jcmexdev/storefront/internal/coordinator/notify"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/catalog/cached"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/catalog/memory"
	pgcatalog "github.com/jcmexdev/storefront/internal/storefront/infra/adapters/catalog/postgres"
	sqlitecatalog "github.com/jcmexdev/storefront/internal/storefront/infra/adapters/catalog/sqlite"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/gateway/breaker"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/gateway/fake"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/gateway/stripegw"
	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	telemetry.InitLogger(cfg.LogLevel, cfg.ServiceName)

	if err := run(cfg); err != nil {
		slog.Error("storefront exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	catalog, closeCatalog, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	if closeCatalog != nil {
		closers = append(closers, closeCatalog)
	}

	observers := []coordinator.Observer{coordinator.LogObserver{}}

	var redisCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache = cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
		closers = append(closers, redisCache)
		observers = append(observers, notify.NewPublisher(redisCache))
		slog.Info("redis enabled", "addr", cfg.RedisAddr)
	}
	pricingCatalog, browseCatalog := catalogs(catalog, redisCache, cfg.CatalogCacheTTL)

	var repo checkoutlog.Repository = checkoutlog.NewMemoryRepository()
	if cfg.CheckoutLogPath != "" {
		sqliteRepo, err := checkoutlogsqlite.Open(cfg.CheckoutLogPath)
		if err != nil {
			return err
		}
		closers = append(closers, sqliteRepo)
		repo = sqliteRepo
	}

	gateway, gatewayPages, err := openGateway(cfg)
	if err != nil {
		return err
	}
	var mounts map[string]http.Handler
	if gatewayPages != nil {
		mounts = map[string]http.Handler{fake.MountPath: gatewayPages}
	}

	checkout := coordinator.NewCheckout(
		pricing.NewReconciler(pricingCatalog, cfg.Currency),
		gateway,
		repo,
		cfg.GatewayTimeout,
		observers...,
	)

	handler := httpx.NewHandler(checkout, browseCatalog, httpx.Options{
		PublicBaseURL:  cfg.PublicBaseURL,
		PublishableKey: cfg.StripePublishableKey,
		Currency:       cfg.Currency,
		Idempotency:    redisCache,
		IdempotencyTTL: cfg.IdempotencyTTL,
		GatewayState:   func() string { return gateway.State().String() },
		Mounts:         mounts,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(httpx.NewRouter(handler, cfg.RequestTimeout), cfg.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront listening", "addr", srv.Addr, "catalog", cfg.CatalogDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("server exited")
	return nil
}

// catalogs returns the catalog checkout prices from and the one the product
// routes read. Only the product routes go through the redis cache, so a
// checkout is always priced at the source's current price.
func catalogs(source ports.Catalog, rc cache.Cache, ttl time.Duration) (pricingCatalog, browseCatalog ports.Catalog) {
	if rc == nil {
		return source, source
	}
	return source, cached.New(source, rc, ttl)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openCatalog(ctx context.Context, cfg *Config) (ports.Catalog, io.Closer, error) {
	switch cfg.CatalogDriver {
	case "sqlite":
		c, err := sqlitecatalog.Open(cfg.CatalogDSN)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.CatalogDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres catalog: connect: %w", err)
		}
		c := pgcatalog.New(pool)
		if err := c.RunMigrations(); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return c, closerFunc(func() error { pool.Close(); return nil }), nil
	default:
		return memory.New(memory.DefaultProducts()...), nil, nil
	}
}

// openGateway returns the payment gateway behind a circuit breaker. Without
// a Stripe key it falls back to the fake gateway and also returns the
// handler serving its hosted page, to be mounted at fake.MountPath.
func openGateway(cfg *Config) (*breaker.Gateway, http.Handler, error) {
	var (
		gateway ports.PaymentGateway
		pages   http.Handler
	)
	if cfg.StripeSecretKey != "" {
		g, err := stripegw.New(stripegw.Config{
			SecretKey:    cfg.StripeSecretKey,
			APIURL:       cfg.StripeAPIURL,
			ImageBaseURL: cfg.ImageBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		gateway = g
	} else {
		base := cfg.PublicBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.HTTPPort
		}
		slog.Warn("STRIPE_SECRET_KEY not set, using the fake payment gateway")
		g := fake.New(strings.TrimRight(base, "/") + fake.MountPath)
		gateway, pages = g, g.Handler()
	}

	settings := breaker.DefaultSettings()
	if cfg.BreakerFailures > 0 {
		settings.ConsecutiveFailures = cfg.BreakerFailures
	}
	if cfg.BreakerOpenTimeout > 0 {
		settings.OpenTimeout = cfg.BreakerOpenTimeout
	}
	return breaker.New(gateway, settings), pages, nil
}
