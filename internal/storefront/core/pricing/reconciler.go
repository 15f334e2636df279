// Package pricing turns a client-declared cart into line items priced from
// the catalog. Nothing the client sends about price is ever read here.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

const maxConcurrentLookups = 8

type Reconciler struct {
	catalog  ports.Catalog
	currency currency.Unit
}

func NewReconciler(catalog ports.Catalog, cur currency.Unit) *Reconciler {
	return &Reconciler{catalog: catalog, currency: cur}
}

func (r *Reconciler) Currency() currency.Unit {
	return r.currency
}

// Validate checks the shape of a checkout request without touching the
// catalog.
func Validate(items []cart.CheckoutItem) error {
	if len(items) == 0 {
		return &InvalidCartError{Reason: "cart is empty"}
	}
	for i, it := range items {
		if it.ProductID == "" {
			return &InvalidCartError{Reason: fmt.Sprintf("item %d has no product id", i)}
		}
		if it.Quantity < 1 {
			return &InvalidCartError{Reason: fmt.Sprintf("item %d has quantity %d", i, it.Quantity)}
		}
	}
	return nil
}

// Reconcile prices items against the catalog. The result preserves input
// order. Either every item resolves or the whole call fails. A cart whose
// total does not fit in an int64 of minor units is invalid.
func (r *Reconciler) Reconcile(ctx context.Context, items []cart.CheckoutItem) ([]entity.LineItem, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("pricing").Start(ctx, "pricing.Reconcile")
	defer span.End()
	span.SetAttributes(attribute.Int("checkout.items", len(items)))

	// One lookup per distinct product.
	ids := make([]string, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; !ok {
			seen[it.ProductID] = len(ids)
			ids = append(ids, it.ProductID)
		}
	}

	products := make([]*entity.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, id := range ids {
		g.Go(func() error {
			p, err := r.catalog.GetProduct(gctx, id)
			if err != nil {
				if errors.Is(err, ports.ErrProductNotFound) {
					return &ProductNotFoundError{ProductID: id, Err: err}
				}
				return fmt.Errorf("lookup product %q: %w", id, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	lines := make([]entity.LineItem, len(items))
	var total int64
	for i, it := range items {
		p := products[seen[it.ProductID]]
		amount, err := MinorUnits(p.UnitPrice, r.currency)
		if err != nil {
			return nil, fmt.Errorf("price product %q: %w", p.ID, err)
		}
		if amount > 0 && int64(it.Quantity) > (math.MaxInt64-total)/amount {
			return nil, &InvalidCartError{Reason: fmt.Sprintf("item %d: cart total out of range", i)}
		}
		total += amount * int64(it.Quantity)
		lines[i] = entity.LineItem{
			ProductID:  it.ProductID,
			Name:       p.Name,
			ImageRef:   p.ImageRef,
			UnitAmount: amount,
			Quantity:   it.Quantity,
		}
	}
	return lines, nil
}
