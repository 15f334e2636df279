package checkoutlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty
// when there is none, e.g. in unit tests.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

type snapshot struct {
	LineItems  []entity.LineItem `json:"line_items"`
	SuccessURL string            `json:"success_url"`
	CancelURL  string            `json:"cancel_url"`
}

// NewEntry builds the log row for a transition, stamping the trace info
// found in ctx.
func NewEntry(ctx context.Context, t entity.Transition) *Entry {
	ti := ExtractTraceInfo(ctx)

	payload := ""
	if b, err := json.Marshal(snapshot{
		LineItems:  t.Session.LineItems,
		SuccessURL: t.Session.SuccessURL,
		CancelURL:  t.Session.CancelURL,
	}); err == nil {
		payload = string(b)
	}

	errJSON := "[]"
	if t.Err != nil {
		if b, err := json.Marshal([]string{t.Err.Error()}); err == nil {
			errJSON = string(b)
		}
	}

	at := t.At
	if at.IsZero() {
		at = time.Now()
	}

	return &Entry{
		CheckoutID:    t.CheckoutID,
		Status:        t.To,
		SessionID:     t.Session.SessionID,
		URL:           t.Session.URL,
		Payload:       payload,
		ErrorKind:     t.ErrorKind,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     at.UTC(),
	}
}

// Session rebuilds the checkout session recorded by e.
func (e *Entry) Session() (*entity.CheckoutSession, error) {
	var snap snapshot
	if e.Payload != "" {
		if err := json.Unmarshal([]byte(e.Payload), &snap); err != nil {
			return nil, fmt.Errorf("checkoutlog: decode payload for %q: %w", e.CheckoutID, err)
		}
	}
	return &entity.CheckoutSession{
		CheckoutID: e.CheckoutID,
		SessionID:  e.SessionID,
		URL:        e.URL,
		LineItems:  snap.LineItems,
		SuccessURL: snap.SuccessURL,
		CancelURL:  snap.CancelURL,
		Status:     e.Status,
	}, nil
}
