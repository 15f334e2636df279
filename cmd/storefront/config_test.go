package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.CatalogDriver)
	assert.Equal(t, currency.USD, cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "sqlite")
	t.Setenv("CHECKOUT_CURRENCY", "eur")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "./data/catalog.db", cfg.CatalogDSN)
	assert.Equal(t, currency.EUR, cfg.Currency)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "https://shop.example", cfg.PublicBaseURL)
	assert.Equal(t, 0.25, cfg.TraceSampleRatio)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad duration", "REQUEST_TIMEOUT", "soon"},
		{"negative duration", "SHUTDOWN_TIMEOUT", "-1s"},
		{"bad currency", "CHECKOUT_CURRENCY", "XYZW"},
		{"unknown driver", "CATALOG_DRIVER", "mongo"},
		{"postgres without dsn", "CATALOG_DRIVER", "postgres"},
		{"zero breaker", "BREAKER_FAILURES", "0"},
		{"sample ratio above one", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"sample ratio not a number", "OTEL_TRACES_SAMPLER_ARG", "half"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := loadConfig()
			assert.Error(t, err)
		})
	}
}
