package checkoutlog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no entry exists for a checkout id.
var ErrNotFound = errors.New("checkoutlog: not found")

// Repository persists entries. The table is append-only.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
}

// Reader exposes the history of a checkout.
type Reader interface {
	GetLatest(ctx context.Context, checkoutID string) (*Entry, error)
	List(ctx context.Context, checkoutID string) ([]*Entry, error)
}
