package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/currency"
)

type Config struct {
	ServiceName string
	HTTPPort    string
	LogLevel    string

	OTLPEndpoint     string
	Environment      string
	TraceSampleRatio float64

	CatalogDriver   string // memory | sqlite | postgres
	CatalogDSN      string
	CatalogCacheTTL time.Duration

	RedisAddr      string
	IdempotencyTTL time.Duration

	CheckoutLogPath string

	StripeSecretKey      string
	StripePublishableKey string
	StripeAPIURL         string
	ImageBaseURL         string
	Currency             currency.Unit

	PublicBaseURL string

	GatewayTimeout     time.Duration
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName:          getEnv("OTEL_SERVICE_NAME", "storefront"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Environment:          getEnv("OTEL_RESOURCE_ATTRIBUTES_ENV", "local"),
		CatalogDriver:        getEnv("CATALOG_DRIVER", "memory"),
		CatalogDSN:           os.Getenv("CATALOG_DSN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		CheckoutLogPath:      os.Getenv("CHECKOUT_LOG_PATH"),
		StripeSecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		StripeAPIURL:         os.Getenv("STRIPE_API_URL"),
		ImageBaseURL:         os.Getenv("IMAGE_BASE_URL"),
		PublicBaseURL:        os.Getenv("PUBLIC_BASE_URL"),
	}

	var err error
	cfg.Currency, err = currency.ParseISO(getEnv("CHECKOUT_CURRENCY", "USD"))
	if err != nil {
		return nil, fmt.Errorf("CHECKOUT_CURRENCY: %w", err)
	}

	durations := []struct {
		dst      *time.Duration
		key      string
		fallback time.Duration
	}{
		{&cfg.CatalogCacheTTL, "CATALOG_CACHE_TTL", 5 * time.Minute},
		{&cfg.IdempotencyTTL, "IDEMPOTENCY_TTL", 10 * time.Minute},
		{&cfg.GatewayTimeout, "GATEWAY_TIMEOUT", 10 * time.Second},
		{&cfg.BreakerOpenTimeout, "BREAKER_OPEN_TIMEOUT", 30 * time.Second},
		{&cfg.RequestTimeout, "REQUEST_TIMEOUT", 30 * time.Second},
		{&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", 10 * time.Second},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	failures, err := strconv.ParseUint(getEnv("BREAKER_FAILURES", "5"), 10, 32)
	if err != nil || failures == 0 {
		return nil, fmt.Errorf("BREAKER_FAILURES: must be a positive integer")
	}
	cfg.BreakerFailures = uint32(failures)

	ratio, err := strconv.ParseFloat(getEnv("OTEL_TRACES_SAMPLER_ARG", "1"), 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG: must be in (0, 1]")
	}
	cfg.TraceSampleRatio = ratio

	switch cfg.CatalogDriver {
	case "memory":
	case "sqlite":
		if cfg.CatalogDSN == "" {
			cfg.CatalogDSN = "./data/catalog.db"
		}
	case "postgres":
		if cfg.CatalogDSN == "" {
			return nil, fmt.Errorf("CATALOG_DSN is required for the postgres catalog")
		}
	default:
		return nil, fmt.Errorf("CATALOG_DRIVER: unknown driver %q", cfg.CatalogDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}
