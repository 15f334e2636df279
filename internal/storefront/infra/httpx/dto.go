package httpx

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutRequest is the cart a buyer submits. Clients may send price, name
// or image alongside each product; those fields are ignored.
type CheckoutRequest struct {
	Products []CheckoutProductDTO `json:"products"`
}

type CheckoutProductDTO struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CheckoutResponse struct {
	SessionID  string `json:"sessionId"`
	CheckoutID string `json:"checkoutId"`
	URL        string `json:"url"`
}

type OutcomeResponse struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
}

type StatusResponse struct {
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	Processing bool   `json:"processing"`
	SessionID  string `json:"session_id,omitempty"`
	// Total is in minor units; Amount is the same value in major units.
	Total    int64           `json:"total"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// HistoryEntry is one recorded transition of a checkout. Internal failure
// details are not exposed.
type HistoryEntry struct {
	Status    string    `json:"status"`
	ErrorKind string    `json:"error_kind,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
	At        time.Time `json:"at"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Gateway string `json:"gateway,omitempty"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Rating      float64         `json:"rating"`
	Category    string          `json:"category"`
}

type ConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
