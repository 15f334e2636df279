// Package notify publishes checkout transitions on redis so a storefront UI
// can show a "processing" indicator while a session is being created.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

const publishTimeout = 500 * time.Millisecond

// Message is the JSON published for every transition.
type Message struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	Processing bool   `json:"processing"`
	Message    string `json:"message,omitempty"`
}

// Channel returns the pub/sub channel for a checkout.
func Channel(checkoutID string) string {
	return "checkout:" + checkoutID
}

// Publisher is a coordinator observer. Publishing is best effort: errors are
// logged and never fail the checkout.
type Publisher struct {
	cache cache.Cache
}

func NewPublisher(c cache.Cache) *Publisher {
	return &Publisher{cache: c}
}

func (p *Publisher) OnTransition(ctx context.Context, t entity.Transition) {
	msg, err := json.Marshal(Message{
		CheckoutID: t.CheckoutID,
		Status:     t.To.String(),
		Processing: t.To.IsProcessing(),
		Message:    buyerMessage(t.To),
	})
	if err != nil {
		slog.ErrorContext(ctx, "notify: encode message", "checkout_id", t.CheckoutID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.cache.Publish(ctx, Channel(t.CheckoutID), msg); err != nil {
		slog.WarnContext(ctx, "notify: publish failed", "checkout_id", t.CheckoutID, "status", t.To, "error", err)
	}
}

func buyerMessage(s entity.Status) string {
	switch s {
	case entity.StatusReconciling, entity.StatusCreating:
		return "Processing..."
	case entity.StatusCreated, entity.StatusRedirected:
		return "Redirecting to payment..."
	case entity.StatusFailed:
		return "We could not start your payment. Please try again."
	default:
		return ""
	}
}
