package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
)

// --- ReconcileStep ---

type ReconcileStep struct {
	reconciler *pricing.Reconciler
	items      []cart.CheckoutItem
}

func NewReconcileStep(reconciler *pricing.Reconciler, items []cart.CheckoutItem) *ReconcileStep {
	return &ReconcileStep{reconciler: reconciler, items: items}
}

func (s *ReconcileStep) Name() string          { return "Reconcile_Prices_Step" }
func (s *ReconcileStep) Status() entity.Status { return entity.StatusReconciling }

func (s *ReconcileStep) Execute(ctx context.Context, session *entity.CheckoutSession) error {
	lines, err := s.reconciler.Reconcile(ctx, s.items)
	if err != nil {
		var invalid *pricing.InvalidCartError
		var notFound *pricing.ProductNotFoundError
		switch {
		case errors.As(err, &invalid):
			return &Error{Kind: KindInvalidCart, Reason: invalid.Reason, Err: err}
		case errors.As(err, &notFound):
			return &Error{Kind: KindProductNotFound, ProductID: notFound.ProductID, Reason: "unknown product", Err: err}
		default:
			return &Error{Kind: KindInternal, Reason: "catalog unavailable", Err: err}
		}
	}
	session.LineItems = lines
	return nil
}

// --- CreateSessionStep ---

type CreateSessionStep struct {
	gateway ports.PaymentGateway
	request ports.SessionRequest
	timeout time.Duration
}

func NewCreateSessionStep(gateway ports.PaymentGateway, request ports.SessionRequest, timeout time.Duration) *CreateSessionStep {
	return &CreateSessionStep{gateway: gateway, request: request, timeout: timeout}
}

func (s *CreateSessionStep) Name() string          { return "Create_Gateway_Session_Step" }
func (s *CreateSessionStep) Status() entity.Status { return entity.StatusCreating }

// Execute makes exactly one gateway call. It is never retried: every call
// creates a new payable session.
func (s *CreateSessionStep) Execute(ctx context.Context, session *entity.CheckoutSession) error {
	ctx, span := otel.Tracer("coordinator").Start(ctx, "gateway.CreateCheckoutSession")
	defer span.End()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := s.request
	req.LineItems = session.LineItems
	span.SetAttributes(
		attribute.String("checkout.id", req.CheckoutID),
		attribute.Int64("checkout.total", session.Total()),
	)

	res, err := s.gateway.CreateCheckoutSession(ctx, req)
	if err == nil && (res.ID == "" || res.URL == "") {
		err = fmt.Errorf("gateway returned incomplete session %+v", res)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway call failed")
		return &Error{Kind: KindGatewayUnavailable, Reason: "payment provider unavailable", Err: err}
	}

	span.SetAttributes(attribute.String("gateway.session_id", res.ID))
	session.SessionID = res.ID
	session.URL = res.URL
	return nil
}
