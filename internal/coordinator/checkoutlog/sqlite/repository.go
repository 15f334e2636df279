// Package sqlite provides a SQLite-backed checkoutlog.Repository.
//
// WAL mode is enabled on Open so the checkout goroutines can append while
// the status endpoint reads.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront/internal/coordinator/checkoutlog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

// schema is applied on every Open. The table is append-only; the newest row
// per checkout_id is the checkout's current state.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    checkout_id     TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    session_id      TEXT        NOT NULL DEFAULT '',
    url             TEXT        NOT NULL DEFAULT '',

    -- JSON snapshot of line items and return URLs.
    payload         TEXT,

    error_kind      TEXT        NOT NULL DEFAULT '',
    error_messages  TEXT        NOT NULL DEFAULT '[]',

    -- W3C trace_id / span_id of the span active when the row was written.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_checkout_seq ON checkout_logs(checkout_id, id);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_session_id ON checkout_logs(session_id);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_trace_id ON checkout_logs(trace_id);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends entry. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(checkout_id, status, session_id, url, payload, error_kind, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.CheckoutID,
		string(entry.Status),
		entry.SessionID,
		entry.URL,
		nullableString(entry.Payload),
		entry.ErrorKind,
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.CheckoutID, err)
	}
	return nil
}

const selectColumns = `
		SELECT checkout_id, status, session_id, url, COALESCE(payload,''), error_kind,
		       error_messages, trace_id, span_id, updated_at
		FROM   checkout_logs`

// GetLatest returns the last entry written for checkoutID. Rows are ordered
// by id, not updated_at, so a wall clock stepping back cannot reorder them.
func (r *Repository) GetLatest(ctx context.Context, checkoutID string) (*checkoutlog.Entry, error) {
	const q = selectColumns + `
		WHERE  checkout_id = ?
		ORDER  BY id DESC
		LIMIT  1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, q, checkoutID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: checkout %q: %w", checkoutID, checkoutlog.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", checkoutID, err)
	}
	return entry, nil
}

// History returns every entry for checkoutID in write order.
func (r *Repository) History(ctx context.Context, checkoutID string) ([]checkoutlog.Entry, error) {
	const q = selectColumns + `
		WHERE  checkout_id = ?
		ORDER  BY id ASC`

	rows, err := r.db.QueryContext(ctx, q, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", checkoutID, err)
	}
	defer rows.Close()

	var entries []checkoutlog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: history for %q: %w", checkoutID, err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: history for %q: %w", checkoutID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("sqlite: checkout %q: %w", checkoutID, checkoutlog.ErrNotFound)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*checkoutlog.Entry, error) {
	var entry checkoutlog.Entry
	var updatedAt string
	err := s.Scan(
		&entry.CheckoutID,
		&entry.Status,
		&entry.SessionID,
		&entry.URL,
		&entry.Payload,
		&entry.ErrorKind,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.UpdatedAt, err = parseRFC3339(updatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString stores NULL rather than an empty payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
