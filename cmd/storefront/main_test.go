package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
	"github.com/jcmexdev/storefront/internal/storefront/infra/adapters/catalog/memory"
)

func TestCatalogs_CheckoutPricesFromSource(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCache(mr.Addr(), "storefront")
	t.Cleanup(func() { _ = rc.Close() })

	lamp := entity.Product{ID: "4", Name: "Wireless Desk Lamp", UnitPrice: decimal.RequireFromString("9.99")}
	source := memory.New(lamp)
	pricingCatalog, browseCatalog := catalogs(source, rc, time.Hour)

	// Warm the cache at the old price.
	p, err := browseCatalog.GetProduct(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, "9.99", p.UnitPrice.String())

	lamp.UnitPrice = decimal.RequireFromString("19.99")
	source.Put(lamp)

	lines, err := pricing.NewReconciler(pricingCatalog, currency.USD).
		Reconcile(ctx, []cart.CheckoutItem{{ProductID: "4", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(1999), lines[0].UnitAmount)

	cachedCopy, err := browseCatalog.GetProduct(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "9.99", cachedCopy.UnitPrice.String(), "product pages may lag by the cache TTL")
}

func TestCatalogs_WithoutRedis(t *testing.T) {
	source := memory.New(memory.DefaultProducts()...)
	pricingCatalog, browseCatalog := catalogs(source, nil, time.Hour)

	assert.Same(t, source, pricingCatalog)
	assert.Same(t, source, browseCatalog)
}
