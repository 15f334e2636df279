// Package cached puts a redis read-through cache in front of another
// catalog. Concurrent misses for the same product share one lookup.
//
// Cached prices can be up to the TTL old, so this catalog serves browsing
// only. Checkout pricing reads the underlying catalog directly.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

const (
	opProduct  = "product"
	opProducts = "products"
)

// lookupTimeout bounds a shared lookup, which no single caller can cancel.
const lookupTimeout = 5 * time.Second

type Catalog struct {
	next  ports.Catalog
	cache cache.Cache
	ttl   time.Duration
	sfg   singleflight.Group
}

var _ ports.Catalog = (*Catalog)(nil)

func New(next ports.Catalog, c cache.Cache, ttl time.Duration) *Catalog {
	return &Catalog{next: next, cache: c, ttl: ttl}
}

// share runs fn once per key for all concurrent callers. fn gets a context
// detached from any one caller, so a caller that gives up returns its own
// ctx.Err() without failing the others.
func (c *Catalog) share(ctx context.Context, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProduct serves from cache when possible. Cache errors are logged and
// fall through to the underlying catalog. Not-found results are not cached.
func (c *Catalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	key := c.cache.GenerateKey(opProduct, id)

	v, err := c.share(ctx, key, func(ctx context.Context) (interface{}, error) {
		var p entity.Product
		if c.load(ctx, key, &p) {
			return &p, nil
		}

		fresh, err := c.next.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	p := *v.(*entity.Product)
	return &p, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]entity.Product, error) {
	key := c.cache.GenerateKey(opProducts, "all")

	v, err := c.share(ctx, key, func(ctx context.Context) (interface{}, error) {
		var list []entity.Product
		if c.load(ctx, key, &list) {
			return list, nil
		}

		fresh, err := c.next.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]entity.Product(nil), v.([]entity.Product)...), nil
}

func (c *Catalog) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "catalog cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.WarnContext(ctx, "catalog cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Catalog) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
		slog.WarnContext(ctx, "catalog cache set failed", "key", key, "error", err)
	}
}
