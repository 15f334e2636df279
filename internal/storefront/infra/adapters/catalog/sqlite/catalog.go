// Package sqlite is a catalog stored in a local SQLite database. The schema
// and demo assortment are applied with golang-migrate on Open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Catalog struct {
	db *sql.DB
}

var _ ports.Catalog = (*Catalog)(nil)

// Open opens the database at path, creating it if needed, and migrates it
// to the latest version.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: open %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite catalog: ping %q: %w", path, err)
	}

	c := &Catalog{db: db}
	if err := c.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) runMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite catalog: migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(c.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite catalog: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlite catalog: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite catalog: run migrations: %w", err)
	}
	return nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

const selectProduct = `
	SELECT id, name, price, image_ref, description, features, rating, category
	FROM   products`

func (c *Catalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	row := c.db.QueryRowContext(ctx, selectProduct+` WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite catalog: product %q: %w", id, ports.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: get product %q: %w", id, err)
	}
	return p, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := c.db.QueryContext(ctx, selectProduct+` ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite catalog: scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite catalog: row iteration: %w", err)
	}
	return products, nil
}

// Upsert inserts or replaces a product, keeping its list position.
func (c *Catalog) Upsert(ctx context.Context, p entity.Product) error {
	features, err := json.Marshal(nonNil(p.Features))
	if err != nil {
		return fmt.Errorf("sqlite catalog: encode features: %w", err)
	}

	const q = `
		INSERT INTO products (id, name, price, image_ref, description, features, rating, category, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM products))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			image_ref = excluded.image_ref,
			description = excluded.description,
			features = excluded.features,
			rating = excluded.rating,
			category = excluded.category`

	_, err = c.db.ExecContext(ctx, q,
		p.ID, p.Name, p.UnitPrice.String(), p.ImageRef, p.Description, string(features), p.Rating, p.Category)
	if err != nil {
		return fmt.Errorf("sqlite catalog: upsert %q: %w", p.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*entity.Product, error) {
	var (
		p        entity.Product
		price    string
		features string
	)
	if err := s.Scan(&p.ID, &p.Name, &price, &p.ImageRef, &p.Description, &features, &p.Rating, &p.Category); err != nil {
		return nil, err
	}

	var err error
	p.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("price of %q: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
		return nil, fmt.Errorf("features of %q: %w", p.ID, err)
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
