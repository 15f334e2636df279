package checkoutlog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("checkoutlog: checkout not found")

// Repository persists checkout log entries. The table is append-only: each
// Save adds a row, GetLatest returns the last row written for a checkout and
// History all of them in write order. Both return an error wrapping
// ErrNotFound for an unknown checkout.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	GetLatest(ctx context.Context, checkoutID string) (*Entry, error)
	History(ctx context.Context, checkoutID string) ([]Entry, error)
}
