package ports

import (
	"context"
	"errors"

	"golang.org/x/text/currency"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// ErrGatewayCircuitOpen is wrapped into gateway errors returned without
// calling the provider because it has been failing.
var ErrGatewayCircuitOpen = errors.New("payment gateway circuit open")

type SessionRequest struct {
	CheckoutID string
	Currency   currency.Unit
	LineItems  []entity.LineItem
	SuccessURL string
	CancelURL  string
}

type GatewaySession struct {
	ID  string
	URL string
}

// PaymentGateway creates hosted checkout sessions. Every successful call
// creates a new, independently payable session.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (GatewaySession, error)
}
