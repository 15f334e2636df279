package coordinator

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when a redirect or outcome does not fit
// the checkout's current state.
var ErrIllegalTransition = errors.New("illegal checkout transition")

type ErrorKind string

const (
	KindInvalidCart        ErrorKind = "invalid_cart"
	KindProductNotFound    ErrorKind = "product_not_found"
	KindGatewayUnavailable ErrorKind = "gateway_unavailable"
	KindInternal           ErrorKind = "internal_error"
)

// Error is the only error CreateSession returns. Reason is safe to show to a
// buyer; Err is the underlying cause and is only ever logged.
type Error struct {
	Kind       ErrorKind
	CheckoutID string
	ProductID  string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.ProductID != "" {
		msg += fmt.Sprintf(" (product %q)", e.ProductID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
