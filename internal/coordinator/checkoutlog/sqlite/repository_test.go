package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog"
	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog/sqlite"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

func openRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_SaveAndGetLatest(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := []*checkoutlog.Entry{
		{CheckoutID: "c1", Status: entity.StatusReconciling, ErrorMessages: "[]", UpdatedAt: base},
		{CheckoutID: "c1", Status: entity.StatusCreating, ErrorMessages: "[]", UpdatedAt: base.Add(time.Millisecond)},
		{
			CheckoutID:    "c1",
			Status:        entity.StatusCreated,
			SessionID:     "cs_1",
			URL:           "https://pay.example/cs_1",
			Payload:       `{"line_items":[]}`,
			ErrorMessages: "[]",
			UpdatedAt:     base.Add(2 * time.Millisecond),
		},
		{CheckoutID: "c2", Status: entity.StatusFailed, ErrorKind: "invalid_cart", ErrorMessages: `["empty"]`, UpdatedAt: base},
	}
	for _, row := range rows {
		require.NoError(t, repo.Save(ctx, row))
	}

	latest, err := repo.GetLatest(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCreated, latest.Status)
	assert.Equal(t, "cs_1", latest.SessionID)
	assert.Equal(t, `{"line_items":[]}`, latest.Payload)
	assert.True(t, latest.UpdatedAt.Equal(base.Add(2*time.Millisecond)))

	failed, err := repo.GetLatest(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "invalid_cart", failed.ErrorKind)
	assert.Empty(t, failed.Payload)
}

func TestRepository_SameTimestampUsesInsertOrder(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	at := time.Now()

	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusCreated, ErrorMessages: "[]", UpdatedAt: at}))
	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusRedirected, ErrorMessages: "[]", UpdatedAt: at}))

	latest, err := repo.GetLatest(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRedirected, latest.Status)
}

func TestRepository_ClockStepBackKeepsWriteOrder(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)
	at := time.Date(2026, 3, 29, 2, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusCreated, ErrorMessages: "[]", UpdatedAt: at}))
	require.NoError(t, repo.Save(ctx, &checkoutlog.Entry{CheckoutID: "c1", Status: entity.StatusRedirected, ErrorMessages: "[]", UpdatedAt: at.Add(-time.Hour)}))

	latest, err := repo.GetLatest(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRedirected, latest.Status)

	history, err := repo.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.StatusCreated, history[0].Status)
	assert.Equal(t, entity.StatusRedirected, history[1].Status)
}

func TestRepository_NotFound(t *testing.T) {
	repo := openRepo(t)

	_, err := repo.GetLatest(context.Background(), "nope")
	assert.ErrorIs(t, err, checkoutlog.ErrNotFound)
	_, err = repo.History(context.Background(), "nope")
	assert.ErrorIs(t, err, checkoutlog.ErrNotFound)
}

func TestRepository_RoundTripsNewEntry(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	entry := checkoutlog.NewEntry(ctx, entity.Transition{
		CheckoutID: "c3",
		To:         entity.StatusCreated,
		Session: entity.CheckoutSession{
			SessionID: "cs_3",
			URL:       "https://pay.example/cs_3",
			LineItems: []entity.LineItem{{ProductID: "p1", UnitAmount: 500, Quantity: 1}},
		},
	})
	require.NoError(t, repo.Save(ctx, entry))

	latest, err := repo.GetLatest(ctx, "c3")
	require.NoError(t, err)
	session, err := latest.Session()
	require.NoError(t, err)
	assert.Equal(t, int64(500), session.Total())
	assert.Equal(t, "https://pay.example/cs_3", session.URL)
}
