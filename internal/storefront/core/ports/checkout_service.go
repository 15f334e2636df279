package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

var ErrCheckoutNotFound = errors.New("checkout not found")

type CheckoutService interface {
	CreateSession(ctx context.Context, items []cart.CheckoutItem, successURL, cancelURL string) (*entity.CheckoutSession, error)
	Session(ctx context.Context, checkoutID string) (*entity.CheckoutSession, error)
	Redirect(ctx context.Context, checkoutID string) (string, error)
	Resolve(ctx context.Context, checkoutID string, outcome entity.Status) (*entity.CheckoutSession, error)
	History(ctx context.Context, checkoutID string) ([]entity.TransitionRecord, error)
}
