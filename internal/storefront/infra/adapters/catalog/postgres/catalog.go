// Package postgres is a catalog backed by PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Catalog struct {
	pool *pgxpool.Pool
}

var _ ports.Catalog = (*Catalog)(nil)

func New(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// RunMigrations brings the products schema up to date.
func (c *Catalog) RunMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres catalog: migration source: %w", err)
	}

	db := stdlib.OpenDBFromPool(c.pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("postgres catalog: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("postgres catalog: migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres catalog: run migrations: %w", err)
	}
	return nil
}

const selectProduct = `
	SELECT id, name, price::text, image_ref, description, features, rating, category
	FROM   products`

func (c *Catalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	row := c.pool.QueryRow(ctx, selectProduct+` WHERE id = $1`, id)

	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres catalog: product %q: %w", id, ports.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres catalog: get product %q: %w", id, err)
	}
	return p, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]entity.Product, error) {
	rows, err := c.pool.Query(ctx, selectProduct+` ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres catalog: scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres catalog: row iteration: %w", err)
	}
	return products, nil
}

func (c *Catalog) Upsert(ctx context.Context, p entity.Product) error {
	features := p.Features
	if features == nil {
		features = []string{}
	}

	const q = `
		INSERT INTO products (id, name, price, image_ref, description, features, rating, category)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			image_ref = EXCLUDED.image_ref,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			rating = EXCLUDED.rating,
			category = EXCLUDED.category`

	_, err := c.pool.Exec(ctx, q,
		p.ID, p.Name, p.UnitPrice.String(), p.ImageRef, p.Description, features, p.Rating, p.Category)
	if err != nil {
		return fmt.Errorf("postgres catalog: upsert %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p     entity.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.ImageRef, &p.Description, &p.Features, &p.Rating, &p.Category); err != nil {
		return nil, err
	}

	var err error
	p.UnitPrice, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("price of %q: %w", p.ID, err)
	}
	return &p, nil
}
