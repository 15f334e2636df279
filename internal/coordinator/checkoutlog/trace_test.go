package checkoutlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func TestNewEntry_RoundTripsSession(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := entity.CheckoutSession{
		CheckoutID: "c1",
		SessionID:  "cs_test_1",
		URL:        "https://pay.example/cs_test_1",
		LineItems:  []entity.LineItem{{ProductID: "p1", Name: "Lamp", UnitAmount: 999, Quantity: 2}},
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
		Status:     entity.StatusCreated,
	}

	entry := checkoutlog.NewEntry(context.Background(), entity.Transition{
		CheckoutID: "c1",
		From:       entity.StatusCreating,
		To:         entity.StatusCreated,
		Session:    session,
		At:         at,
	})

	assert.Equal(t, entity.StatusCreated, entry.Status)
	assert.Equal(t, "[]", entry.ErrorMessages)
	assert.Empty(t, entry.TraceID)
	assert.Equal(t, at, entry.UpdatedAt)

	got, err := entry.Session()
	require.NoError(t, err)
	assert.Equal(t, session, *got)
}

func TestNewEntry_RecordsError(t *testing.T) {
	entry := checkoutlog.NewEntry(context.Background(), entity.Transition{
		CheckoutID: "c2",
		From:       entity.StatusCreating,
		To:         entity.StatusFailed,
		ErrorKind:  "gateway_unavailable",
		Err:        errors.New("dial tcp: timeout"),
	})

	assert.Equal(t, "gateway_unavailable", entry.ErrorKind)
	assert.JSONEq(t, `["dial tcp: timeout"]`, entry.ErrorMessages)
	assert.False(t, entry.UpdatedAt.IsZero())
}

func TestMemoryRepository_GetLatest(t *testing.T) {
	ctx := context.Background()
	repo := checkoutlog.NewMemoryRepository()

	_, err := repo.GetLatest(ctx, "missing")
	assert.ErrorIs(t, err, checkoutlog.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusReconciling}))
	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusCreating}))

	latest, err := repo.GetLatest(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCreating, latest.Status)

	history, err := repo.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.StatusReconciling, history[0].Status)

	_, err = repo.History(ctx, "missing")
	assert.ErrorIs(t, err, checkoutlog.ErrNotFound)
}
