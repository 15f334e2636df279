// Package fake is an in-process payment gateway for local development and
// tests. It never moves money. Do NOT use in production.
package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

// MountPath is where Handler is served by the storefront in development.
const MountPath = "/fake-gateway"

type Gateway struct {
	baseURL string

	mu       sync.Mutex
	requests []ports.SessionRequest
	sessions map[string]ports.SessionRequest
	err      error
	delay    time.Duration
}

var _ ports.PaymentGateway = (*Gateway)(nil)

// New returns a gateway whose hosted pages live under baseURL.
func New(baseURL string) *Gateway {
	return &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: make(map[string]ports.SessionRequest),
	}
}

// FailWith makes every following call return err. nil restores success.
func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// SetDelay makes every following call wait d, or until its context ends.
func (g *Gateway) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// Requests returns every request received so far, failed ones included.
func (g *Gateway) Requests() []ports.SessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ports.SessionRequest(nil), g.requests...)
}

func (g *Gateway) session(id string) (ports.SessionRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.sessions[id]
	return req, ok
}

func (g *Gateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req ports.SessionRequest) (ports.GatewaySession, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	err, delay := g.err, g.delay
	g.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ports.GatewaySession{}, fmt.Errorf("fake gateway: %w", ctx.Err())
		}
	}
	if err != nil {
		return ports.GatewaySession{}, fmt.Errorf("fake gateway: %w", err)
	}

	id := "cs_fake_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	g.mu.Lock()
	g.sessions[id] = req
	g.mu.Unlock()

	return ports.GatewaySession{
		ID:  id,
		URL: g.baseURL + "/pay/" + id,
	}, nil
}
