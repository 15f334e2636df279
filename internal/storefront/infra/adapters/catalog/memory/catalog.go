// Package memory is an in-process catalog. It backs local development and
// tests, and is the default when no catalog database is configured.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

type Catalog struct {
	mu       sync.RWMutex
	order    []string
	products map[string]entity.Product
}

var _ ports.Catalog = (*Catalog)(nil)

func New(products ...entity.Product) *Catalog {
	c := &Catalog{products: make(map[string]entity.Product, len(products))}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// Put adds or replaces a product.
func (c *Catalog) Put(p entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	p.Features = slices.Clone(p.Features)
	c.products[p.ID] = p
}

func (c *Catalog) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("memory: product %q: %w", id, ports.ErrProductNotFound)
	}
	p.Features = slices.Clone(p.Features)
	return &p, nil
}

func (c *Catalog) ListProducts(_ context.Context) ([]entity.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.products[id]
		p.Features = slices.Clone(p.Features)
		out = append(out, p)
	}
	return out, nil
}

// DefaultProducts is the demo assortment served when no catalog database is
// configured.
func DefaultProducts() []entity.Product {
	return []entity.Product{
		{
			ID:          "1",
			Name:        "Everyday Canvas Backpack",
			UnitPrice:   decimal.RequireFromString("109.95"),
			ImageRef:    "/images/products/backpack.jpg",
			Description: "Roomy canvas backpack with a padded 15-inch laptop sleeve.",
			Features:    []string{"Padded laptop sleeve", "Water-resistant canvas", "Two side pockets"},
			Rating:      3.9,
			Category:    "bags",
		},
		{
			ID:          "2",
			Name:        "Slim Fit Cotton T-Shirt",
			UnitPrice:   decimal.RequireFromString("22.30"),
			ImageRef:    "/images/products/tshirt.jpg",
			Description: "Lightweight crew-neck tee in breathable cotton.",
			Features:    []string{"100% cotton", "Machine washable"},
			Rating:      4.1,
			Category:    "clothing",
		},
		{
			ID:          "3",
			Name:        "Ceramic Pour-Over Set",
			UnitPrice:   decimal.RequireFromString("39.99"),
			ImageRef:    "/images/products/pour-over.jpg",
			Description: "Dripper, carafe and two cups in matte stoneware.",
			Features:    []string{"Dishwasher safe", "Includes 40 paper filters"},
			Rating:      4.7,
			Category:    "kitchen",
		},
		{
			ID:          "4",
			Name:        "Wireless Desk Lamp",
			UnitPrice:   decimal.RequireFromString("9.99"),
			ImageRef:    "/images/products/lamp.jpg",
			Description: "Rechargeable LED lamp with three brightness levels.",
			Features:    []string{"USB-C charging", "Touch dimmer"},
			Rating:      4.0,
			Category:    "home",
		},
	}
}
