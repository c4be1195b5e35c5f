// Package sqlite provides a SQLite-backed implementation of checkoutlog.Repository.
//
// WAL mode is enabled on Open so the HTTP handlers reading a checkout's
// history never block the sequencer writing to it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

// The table is append-only: each row is an immutable transition.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    checkout_id    TEXT    NOT NULL,
    status         TEXT    NOT NULL,
    step           TEXT    NOT NULL DEFAULT '',
    payload        TEXT,
    error_message  TEXT    NOT NULL DEFAULT '',
    trace_id       TEXT    NOT NULL DEFAULT '',
    span_id        TEXT    NOT NULL DEFAULT '',
    created_at     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_checkout_id ON checkout_logs(checkout_id, created_at);
CREATE INDEX IF NOT EXISTS idx_checkout_logs_trace_id ON checkout_logs(trace_id);
`

// Fixed-width so that lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository is the SQLite implementation of checkoutlog.Repository and
// checkoutlog.Reader.
type Repository struct {
	db *sql.DB
}

var (
	_ checkoutlog.Repository = (*Repository)(nil)
	_ checkoutlog.Reader     = (*Repository)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// Single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(checkout_id, status, step, payload, error_message, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.CheckoutID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.ErrorMessage,
		entry.TraceID,
		entry.SpanID,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.CheckoutID, err)
	}
	return nil
}

// GetLatest returns the most recent entry for checkoutID.
func (r *Repository) GetLatest(ctx context.Context, checkoutID string) (*checkoutlog.Entry, error) {
	const q = `
		SELECT checkout_id, status, step, COALESCE(payload,''), error_message,
		       trace_id, span_id, created_at
		FROM   checkout_logs
		WHERE  checkout_id = ?
		ORDER  BY created_at DESC, id DESC
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

// List returns every entry for checkoutID, oldest first.
func (r *Repository) List(ctx context.Context, checkoutID string) ([]*checkoutlog.Entry, error) {
	const q = `
		SELECT checkout_id, status, step, COALESCE(payload,''), error_message,
		       trace_id, span_id, created_at
		FROM   checkout_logs
		WHERE  checkout_id = ?
		ORDER  BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
	}
	defer rows.Close()

	var out []*checkoutlog.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*checkoutlog.Entry, error) {
	var entry checkoutlog.Entry
	var createdAt string
	if err := s.Scan(
		&entry.CheckoutID,
		&entry.Status,
		&entry.Step,
		&entry.Payload,
		&entry.ErrorMessage,
		&entry.TraceID,
		&entry.SpanID,
		&createdAt,
	); err != nil {
		return nil, err
	}

	t, err := parseRFC3339(createdAt)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = t
	return &entry, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

// nullableString stores NULL instead of empty TEXT for absent payloads.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
