package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read side of the product catalog. GetProduct returns an
// error wrapping ErrProductNotFound when id is unknown.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListProducts(ctx context.Context) ([]entity.Product, error)
}
