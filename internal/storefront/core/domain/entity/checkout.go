package entity

import "time"

// LineItem is the gateway-facing projection of a cart entry once its price
// has been resolved against the catalog. UnitAmount is in minor currency units.
type LineItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	ImageRef   string `json:"image_ref"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int    `json:"quantity"`
}

func (i LineItem) Subtotal() int64 {
	return i.UnitAmount * int64(i.Quantity)
}

type CheckoutSession struct {
	CheckoutID string
	SessionID  string
	URL        string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Status     Status
}

// Total is the payable amount in minor units.
func (s *CheckoutSession) Total() int64 {
	var total int64
	for _, it := range s.LineItems {
		total += it.Subtotal()
	}
	return total
}

// TransitionRecord is a transition as read back from the checkout log.
type TransitionRecord struct {
	Status    Status
	ErrorKind string
	TraceID   string
	At        time.Time
}

// Transition is emitted every time a checkout session changes state.
type Transition struct {
	CheckoutID string
	From       Status
	To         Status
	Session    CheckoutSession
	ErrorKind  string
	Err        error
	At         time.Time
}
