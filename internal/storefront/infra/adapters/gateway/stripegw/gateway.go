// Package stripegw creates Stripe-hosted Checkout sessions.
package stripegw

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

type Config struct {
	SecretKey string

	// APIURL overrides the Stripe API base URL. Empty means the live API.
	APIURL string

	// ImageBaseURL resolves relative product image refs. Stripe only accepts
	// absolute image URLs; relative refs are dropped when this is empty.
	ImageBaseURL string

	HTTPClient *http.Client
}

type Gateway struct {
	sessions     session.Client
	imageBaseURL *url.URL
}

var _ ports.PaymentGateway = (*Gateway)(nil)

func New(cfg Config) (*Gateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe: secret key is required")
	}

	backendCfg := &stripe.BackendConfig{
		// Every call creates a new payable session, so never retry.
		MaxNetworkRetries: stripe.Int64(0),
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	g := &Gateway{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
	}

	if cfg.ImageBaseURL != "" {
		base, err := url.Parse(cfg.ImageBaseURL)
		if err != nil {
			return nil, fmt.Errorf("stripe: image base url: %w", err)
		}
		g.imageBaseURL = base
	}
	return g, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req ports.SessionRequest) (ports.GatewaySession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          g.lineItems(req),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.CheckoutID),
	}
	params.Context = ctx
	params.AddMetadata("checkout_id", req.CheckoutID)
	// Scoped to this checkout: a replay of the same request can never open
	// a second session for it.
	params.SetIdempotencyKey("checkout-" + req.CheckoutID)

	s, err := g.sessions.New(params)
	if err != nil {
		return ports.GatewaySession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return ports.GatewaySession{ID: s.ID, URL: s.URL}, nil
}

func (g *Gateway) lineItems(req ports.SessionRequest) []*stripe.CheckoutSessionLineItemParams {
	cur := strings.ToLower(req.Currency.String())

	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, it := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if img := g.imageURL(it); img != "" {
			product.Images = stripe.StringSlice([]string{img})
		}

		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(cur),
				ProductData: product,
				UnitAmount:  stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}
	return items
}

func (g *Gateway) imageURL(it entity.LineItem) string {
	if it.ImageRef == "" {
		return ""
	}
	ref, err := url.Parse(it.ImageRef)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if g.imageBaseURL == nil {
		return ""
	}
	return g.imageBaseURL.ResolveReference(ref).String()
}
