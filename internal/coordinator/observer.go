package coordinator

import (
	"context"
	"log/slog"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// Observer is notified of every checkout transition after it is recorded.
// Implementations must not block for long; they run on the checkout's call
// chain.
type Observer interface {
	OnTransition(ctx context.Context, t entity.Transition)
}

type ObserverFunc func(ctx context.Context, t entity.Transition)

func (f ObserverFunc) OnTransition(ctx context.Context, t entity.Transition) {
	f(ctx, t)
}

// LogObserver writes each transition to the default slog logger.
type LogObserver struct{}

func (LogObserver) OnTransition(ctx context.Context, t entity.Transition) {
	attrs := []any{
		"checkout_id", t.CheckoutID,
		"from", t.From,
		"to", t.To,
	}
	if t.Session.SessionID != "" {
		attrs = append(attrs, "session_id", t.Session.SessionID)
	}

	if t.To == entity.StatusFailed {
		attrs = append(attrs, "error_kind", t.ErrorKind, "error", t.Err)
		slog.ErrorContext(ctx, "checkout failed", attrs...)
		return
	}
	slog.InfoContext(ctx, "checkout transition", attrs...)
}
