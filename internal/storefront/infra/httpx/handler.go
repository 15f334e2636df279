package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"

	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/pkg/cache"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx/middlewares"
)

const maxBodyBytes = 1 << 20

const (
	successPath = "/checkout/success"
	cancelPath  = "/checkout/cancel"
)

type Options struct {
	// PublicBaseURL is where buyers reach this service. When empty the
	// request Origin header is used to build return URLs.
	PublicBaseURL  string
	PublishableKey string
	Currency       currency.Unit

	// Idempotency enables X-Idempotency-Key handling when non-nil.
	Idempotency    cache.Cache
	IdempotencyTTL time.Duration

	// GatewayState reports the payment gateway circuit on /health.
	GatewayState func() string

	// Mounts adds route trees by path prefix, such as the development
	// payment page.
	Mounts map[string]http.Handler
}

// Handler serves the storefront's checkout, outcome and catalog routes.
type Handler struct {
	checkout ports.CheckoutService
	catalog  ports.Catalog
	opts     Options
	sfg      singleflight.Group
}

func NewHandler(checkout ports.CheckoutService, catalog ports.Catalog, opts Options) *Handler {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 10 * time.Minute
	}
	return &Handler{checkout: checkout, catalog: catalog, opts: opts}
}

// CreateCheckout prices the submitted cart and opens a hosted payment
// session. Without an idempotency key every call opens a new session.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(coordinator.KindInvalidCart), "request body is not a valid cart")
		return
	}

	base := h.returnBase(r)
	if base == "" {
		writeError(w, http.StatusBadRequest, string(coordinator.KindInvalidCart), "cannot determine return URLs")
		return
	}

	items := make([]cart.CheckoutItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = cart.CheckoutItem{ProductID: p.ID, Quantity: p.Quantity}
	}

	slog.InfoContext(r.Context(), "creating checkout session",
		"request_id", middlewares.RequestID(r.Context()),
		"items", len(items),
	)

	// Detach from the request so a client disconnect cannot strand a
	// session half-way through creation; the gateway timeout still bounds it.
	ctx := context.WithoutCancel(r.Context())
	create := func() (CheckoutResponse, error) {
		session, err := h.checkout.CreateSession(ctx, items, base+successPath, base+cancelPath)
		if err != nil {
			return CheckoutResponse{}, err
		}
		return CheckoutResponse{SessionID: session.SessionID, CheckoutID: session.CheckoutID, URL: session.URL}, nil
	}

	var (
		resp CheckoutResponse
		err  error
	)
	if key := middlewares.IdempotencyKey(r.Context()); key != "" && h.opts.Idempotency != nil {
		resp, err = h.createIdempotent(ctx, key, create)
	} else {
		resp, err = create()
	}
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

var errIdempotencyInFlight = errors.New("a checkout with this idempotency key is in progress")

// createIdempotent returns the cached response for key, or runs create once
// and caches its result. Concurrent requests in this process share one
// create; other processes see errIdempotencyInFlight until it finishes.
// A failing cache degrades to a plain create.
func (h *Handler) createIdempotent(ctx context.Context, key string, create func() (CheckoutResponse, error)) (CheckoutResponse, error) {
	c := h.opts.Idempotency
	resultKey := c.GenerateKey("checkout", key)
	lockKey := c.GenerateKey("checkout-lock", key)

	v, err, _ := h.sfg.Do(resultKey, func() (interface{}, error) {
		if raw, err := c.Get(ctx, resultKey); err == nil {
			var cached CheckoutResponse
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				slog.InfoContext(ctx, "replaying checkout for idempotency key", "checkout_id", cached.CheckoutID)
				return cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "idempotency cache unavailable", "error", err)
			return create()
		}

		claimed, err := c.SetNX(ctx, lockKey, "1", h.opts.IdempotencyTTL)
		if err != nil {
			slog.WarnContext(ctx, "idempotency lock unavailable", "error", err)
			return create()
		}
		if !claimed {
			return nil, errIdempotencyInFlight
		}
		defer func() {
			if err := c.Delete(ctx, lockKey); err != nil {
				slog.WarnContext(ctx, "idempotency lock release failed", "error", err)
			}
		}()

		resp, err := create()
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(resp); err == nil {
			if err := c.Set(ctx, resultKey, b, h.opts.IdempotencyTTL); err != nil {
				slog.WarnContext(ctx, "idempotency cache set failed", "checkout_id", resp.CheckoutID, "error", err)
			}
		}
		return resp, nil
	})
	if err != nil {
		return CheckoutResponse{}, err
	}
	return v.(CheckoutResponse), nil
}

// returnBase is the scheme://host the success and cancel URLs are built on.
func (h *Handler) returnBase(r *http.Request) string {
	if h.opts.PublicBaseURL != "" {
		return strings.TrimRight(h.opts.PublicBaseURL, "/")
	}
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		return ""
	}
	return strings.TrimRight(origin, "/")
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errIdempotencyInFlight) {
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
		return
	}

	var cerr *coordinator.Error
	if !errors.As(err, &cerr) {
		slog.ErrorContext(r.Context(), "checkout failed", "error", err)
		writeError(w, http.StatusInternalServerError, string(coordinator.KindInternal), "")
		return
	}

	switch cerr.Kind {
	case coordinator.KindInvalidCart:
		writeError(w, http.StatusBadRequest, string(cerr.Kind), cerr.Reason)
	case coordinator.KindProductNotFound:
		writeError(w, http.StatusUnprocessableEntity, string(cerr.Kind), fmt.Sprintf("product %q is not available", cerr.ProductID))
	case coordinator.KindGatewayUnavailable:
		status := http.StatusBadGateway
		if errors.Is(err, ports.ErrGatewayCircuitOpen) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, string(cerr.Kind), "")
	default:
		writeError(w, http.StatusInternalServerError, string(coordinator.KindInternal), "")
	}
}

// Config exposes the client-side settings needed for the redirect step.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{PublishableKey: h.opts.PublishableKey})
}

// Health stays 200 while the gateway circuit is open; checkouts fail fast
// but the catalog routes still work.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.opts.GatewayState != nil {
		resp.Gateway = h.opts.GatewayState()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
