// Package checkoutlog is the durable audit trail of every state transition a
// checkout session goes through.
//
// The latest entry for a checkout is also its current state: the outcome
// routes read it back to decide whether a redirect or resolution is legal,
// and the status endpoint serves it to pollers.
package checkoutlog

import (
	"time"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// Entry is a single row in the checkout_logs table.
type Entry struct {
	CheckoutID string
	Status     entity.Status

	// SessionID and URL are empty until the gateway session exists.
	SessionID string
	URL       string

	// Payload is the JSON snapshot of the session (line items and return
	// URLs) at the time of the transition.
	Payload string

	// ErrorKind is the coordinator error kind on FAILED rows.
	ErrorKind string

	// ErrorMessages is a JSON array of internal failure details. Never
	// returned to buyers.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
