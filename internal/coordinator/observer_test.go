package coordinator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogObserver_Failure(t *testing.T) {
	buf := captureLogs(t)

	coordinator.LogObserver{}.OnTransition(context.Background(), entity.Transition{
		CheckoutID: "c1",
		From:       entity.StatusCreating,
		To:         entity.StatusFailed,
		ErrorKind:  string(coordinator.KindGatewayUnavailable),
		Err:        errors.New("connection reset"),
	})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "c1", rec["checkout_id"])
	assert.Equal(t, "gateway_unavailable", rec["error_kind"])
	assert.Equal(t, "connection reset", rec["error"])
}

func TestObserverFunc(t *testing.T) {
	var got entity.Status
	var o coordinator.Observer = coordinator.ObserverFunc(func(_ context.Context, tr entity.Transition) {
		got = tr.To
	})
	o.OnTransition(context.Background(), entity.Transition{To: entity.StatusRedirected})
	assert.Equal(t, entity.StatusRedirected, got)
}

func TestError_Message(t *testing.T) {
	err := &coordinator.Error{Kind: coordinator.KindProductNotFound, ProductID: "p9", Err: errors.New("no rows")}
	assert.Equal(t, `product_not_found (product "p9"): no rows`, err.Error())
	assert.ErrorContains(t, err, "no rows")
}
