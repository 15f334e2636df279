package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/cart"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
)

// CheckoutIDParam is appended to the success and cancel URLs so the outcome
// routes can tell which checkout the buyer is returning from.
const CheckoutIDParam = "checkout_id"

// Step is a single unit of work in a checkout. The session enters Status()
// before Execute runs.
type Step interface {
	Name() string
	Status() entity.Status
	Execute(ctx context.Context, session *entity.CheckoutSession) error
}

// Checkout orchestrates a checkout session from a declared cart to a
// gateway-hosted payment page, and records the buyer's return.
type Checkout struct {
	reconciler     *pricing.Reconciler
	gateway        ports.PaymentGateway
	repo           checkoutlog.Repository
	gatewayTimeout time.Duration
	observers      []Observer

	// mu serialises read-check-append on the log for Redirect and Resolve.
	mu sync.Mutex

	newID func() string
	now   func() time.Time
}

var _ ports.CheckoutService = (*Checkout)(nil)

func NewCheckout(
	reconciler *pricing.Reconciler,
	gateway ports.PaymentGateway,
	repo checkoutlog.Repository,
	gatewayTimeout time.Duration,
	observers ...Observer,
) *Checkout {
	return &Checkout{
		reconciler:     reconciler,
		gateway:        gateway,
		repo:           repo,
		gatewayTimeout: gatewayTimeout,
		observers:      observers,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

// CreateSession prices items from the catalog and opens a hosted payment
// session for them. It is not idempotent: each successful call creates a
// new remote session. Every error is a *Error.
func (c *Checkout) CreateSession(ctx context.Context, items []cart.CheckoutItem, successURL, cancelURL string) (*entity.CheckoutSession, error) {
	checkoutID := c.newID()

	ctx, span := otel.Tracer("coordinator").Start(ctx, "checkout.CreateSession")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.id", checkoutID))

	session := &entity.CheckoutSession{
		CheckoutID: checkoutID,
		Status:     entity.StatusIdle,
	}

	if err := c.validate(items, successURL, cancelURL); err != nil {
		return nil, c.fail(ctx, session, err)
	}
	session.SuccessURL = withCheckoutID(successURL, checkoutID)
	session.CancelURL = withCheckoutID(cancelURL, checkoutID)

	steps := []Step{
		NewReconcileStep(c.reconciler, items),
		NewCreateSessionStep(c.gateway, ports.SessionRequest{
			CheckoutID: checkoutID,
			Currency:   c.reconciler.Currency(),
			SuccessURL: session.SuccessURL,
			CancelURL:  session.CancelURL,
		}, c.gatewayTimeout),
	}

	for _, step := range steps {
		if err := c.transition(ctx, session, step.Status(), nil); err != nil {
			return nil, c.fail(ctx, session, err)
		}
		slog.DebugContext(ctx, "executing checkout step", "checkout_id", checkoutID, "step", step.Name())
		if err := step.Execute(ctx, session); err != nil {
			span.RecordError(err)
			return nil, c.fail(ctx, session, err)
		}
	}

	if err := c.transition(ctx, session, entity.StatusCreated, nil); err != nil {
		// The remote session exists but we could not record it, so it can
		// never be redirected to.
		return nil, c.fail(ctx, session, err)
	}

	out := *session
	return &out, nil
}

// Session returns the latest recorded state of a checkout.
func (c *Checkout) Session(ctx context.Context, checkoutID string) (*entity.CheckoutSession, error) {
	entry, err := c.repo.GetLatest(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, checkoutlog.ErrNotFound) {
			return nil, fmt.Errorf("checkout %q: %w", checkoutID, ports.ErrCheckoutNotFound)
		}
		return nil, fmt.Errorf("load checkout %q: %w", checkoutID, err)
	}
	return entry.Session()
}

// History returns every recorded transition of a checkout, oldest first.
func (c *Checkout) History(ctx context.Context, checkoutID string) ([]entity.TransitionRecord, error) {
	entries, err := c.repo.History(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, checkoutlog.ErrNotFound) {
			return nil, fmt.Errorf("checkout %q: %w", checkoutID, ports.ErrCheckoutNotFound)
		}
		return nil, fmt.Errorf("load history of checkout %q: %w", checkoutID, err)
	}

	records := make([]entity.TransitionRecord, len(entries))
	for i, e := range entries {
		records[i] = entity.TransitionRecord{
			Status:    e.Status,
			ErrorKind: e.ErrorKind,
			TraceID:   e.TraceID,
			At:        e.UpdatedAt,
		}
	}
	return records, nil
}

// Redirect records that the buyer is being sent to the hosted page and
// returns its URL. Calling it again while REDIRECTED returns the same URL.
func (c *Checkout) Redirect(ctx context.Context, checkoutID string) (string, error) {
	session, err := c.Resolve(ctx, checkoutID, entity.StatusRedirected)
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// Resolve records the buyer's return from the hosted page. outcome is one of
// REDIRECTED, COMPLETED or CANCELLED. Resolving to the state the checkout is
// already in is a no-op. A COMPLETED checkout only means the buyer came back
// through the success URL; it is not proof of payment.
func (c *Checkout) Resolve(ctx context.Context, checkoutID string, outcome entity.Status) (*entity.CheckoutSession, error) {
	switch outcome {
	case entity.StatusRedirected, entity.StatusCompleted, entity.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: %s is not an outcome", ErrIllegalTransition, outcome)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.Session(ctx, checkoutID)
	if err != nil {
		return nil, err
	}

	if session.Status == outcome {
		return session, nil
	}
	if !session.Status.CanTransitionTo(outcome) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, session.Status, outcome)
	}

	if err := c.transition(ctx, session, outcome, nil); err != nil {
		return nil, err
	}
	return session, nil
}

// transition records the move of session to next and notifies observers.
// On a failed save session is left unchanged.
func (c *Checkout) transition(ctx context.Context, session *entity.CheckoutSession, next entity.Status, cause *Error) error {
	t := entity.Transition{
		CheckoutID: session.CheckoutID,
		From:       session.Status,
		To:         next,
		At:         c.now(),
	}
	if cause != nil {
		t.ErrorKind = string(cause.Kind)
		t.Err = cause.Err
	}
	t.Session = *session
	t.Session.Status = next

	if err := c.repo.Save(ctx, checkoutlog.NewEntry(ctx, t)); err != nil {
		return fmt.Errorf("record %s for checkout %q: %w", next, session.CheckoutID, err)
	}
	session.Status = next

	for _, o := range c.observers {
		o.OnTransition(ctx, t)
	}
	return nil
}

// fail moves session to FAILED and returns err as a *Error. A failure to
// record FAILED is logged; the step error is still returned.
func (c *Checkout) fail(ctx context.Context, session *entity.CheckoutSession, err error) *Error {
	var cerr *Error
	if !errors.As(err, &cerr) {
		cerr = &Error{Kind: KindInternal, Reason: "internal error", Err: err}
	}
	cerr.CheckoutID = session.CheckoutID

	if session.Status.CanTransitionTo(entity.StatusFailed) {
		failed := *session
		failed.SessionID = ""
		failed.URL = ""
		if recErr := c.transition(ctx, &failed, entity.StatusFailed, cerr); recErr != nil {
			slog.ErrorContext(ctx, "failed to record checkout failure",
				"checkout_id", session.CheckoutID,
				"error_kind", cerr.Kind,
				"error", recErr,
			)
		}
	}
	return cerr
}

func (c *Checkout) validate(items []cart.CheckoutItem, successURL, cancelURL string) error {
	if err := pricing.Validate(items); err != nil {
		var invalid *pricing.InvalidCartError
		errors.As(err, &invalid)
		return &Error{Kind: KindInvalidCart, Reason: invalid.Reason, Err: err}
	}
	for _, raw := range []string{successURL, cancelURL} {
		if !isAbsoluteURL(raw) {
			return &Error{Kind: KindInvalidCart, Reason: "return URLs must be absolute", Err: fmt.Errorf("bad return url %q", raw)}
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func withCheckoutID(raw, checkoutID string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(CheckoutIDParam, checkoutID)
	u.RawQuery = q.Encode()
	return u.String()
}
