// Package breaker wraps a payment gateway in a circuit breaker so a
// provider outage fails checkouts fast instead of stacking up timeouts.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

type Settings struct {
	Name string
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Name:                "payment-gateway",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

type Gateway struct {
	next ports.PaymentGateway
	cb   *gobreaker.CircuitBreaker[ports.GatewaySession]
}

var _ ports.PaymentGateway = (*Gateway)(nil)

func New(next ports.PaymentGateway, s Settings) *Gateway {
	return &Gateway{
		next: next,
		cb: gobreaker.NewCircuitBreaker[ports.GatewaySession](gobreaker.Settings{
			Name:        s.Name,
			MaxRequests: 1,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= s.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req ports.SessionRequest) (ports.GatewaySession, error) {
	s, err := g.cb.Execute(func() (ports.GatewaySession, error) {
		return g.next.CreateCheckoutSession(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ports.GatewaySession{}, fmt.Errorf("%w: %w", ports.ErrGatewayCircuitOpen, err)
	}
	return s, err
}

func (g *Gateway) State() gobreaker.State {
	return g.cb.State()
}
