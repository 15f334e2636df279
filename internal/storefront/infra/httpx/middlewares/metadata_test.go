package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx/middlewares"
)

func TestAttachRequestMetadata(t *testing.T) {
	var gotRequestID, gotKey string
	h := middleware.RequestID(middlewares.AttachRequestMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = middlewares.RequestID(r.Context())
		gotKey = middlewares.IdempotencyKey(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set("X-Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc-123", gotKey)
}

func TestAccessorsOnBareContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middlewares.RequestID(req.Context()))
	assert.Empty(t, middlewares.IdempotencyKey(req.Context()))
}
