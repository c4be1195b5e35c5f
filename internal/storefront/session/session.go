// Package session owns the per-buyer state: one cart ledger and at most one
// checkout sequence per authenticated subject.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/cart"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout"
)

var (
	// ErrEmptyCart is returned when checkout is started with nothing in the cart.
	ErrEmptyCart = errors.New("session: cart is empty")
	// ErrCheckoutLocked rejects cart edits while a payment is pending.
	ErrCheckoutLocked = errors.New("session: cart is locked while payment is in progress")
	// ErrNoCheckout is returned when no checkout is active.
	ErrNoCheckout = errors.New("session: no checkout in progress")
)

// Session is one buyer's cart and checkout. It implements checkout.Cart.
type Session struct {
	ID string

	mu       sync.Mutex
	ledger   *cart.Ledger
	checkout *checkout.Sequence
	touched  time.Time
	now      func() time.Time
}

var _ checkout.Cart = (*Session)(nil)

func newSession(id string, now func() time.Time) *Session {
	return &Session{
		ID:      id,
		ledger:  cart.NewLedger(),
		touched: now(),
		now:     now,
	}
}

// AddItem adds one unit of item to the cart.
func (s *Session) AddItem(item cart.LineItem) error {
	return s.mutate(func(l *cart.Ledger) { l.AddItem(item) })
}

// RemoveItem deletes the line for id, if any.
func (s *Session) RemoveItem(id string) error {
	return s.mutate(func(l *cart.Ledger) { l.RemoveItem(id) })
}

// UpdateQuantity sets the quantity for id; zero or less removes the line.
func (s *Session) UpdateQuantity(id string, quantity int) error {
	return s.mutate(func(l *cart.Ledger) { l.UpdateQuantity(id, quantity) })
}

// ClearCart empties the cart on the buyer's request.
func (s *Session) ClearCart() error {
	return s.mutate(func(l *cart.Ledger) { l.Clear() })
}

// Clear empties the cart unconditionally. It is called by the checkout
// sequence after a successful payment.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Clear()
	s.touched = s.now()
}

// Totals returns the current cart totals.
func (s *Session) Totals() cart.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Totals()
}

// Items returns the cart lines in display order.
func (s *Session) Items() []cart.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

// BeginCheckout returns the active sequence, or starts one with start when
// none is active or the previous one has completed.
func (s *Session) BeginCheckout(ctx context.Context, start func(ctx context.Context, c checkout.Cart) *checkout.Sequence) (*checkout.Sequence, error) {
	s.mu.Lock()
	if s.checkout != nil && !s.checkout.Current().IsTerminal() {
		seq := s.checkout
		s.mu.Unlock()
		return seq, nil
	}
	if s.ledger.Len() == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	s.mu.Unlock()

	// start reads the cart through s, so it runs without s.mu held.
	seq := start(ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout != nil && !s.checkout.Current().IsTerminal() {
		return s.checkout, nil
	}
	s.checkout = seq
	s.touched = s.now()
	return seq, nil
}

// Checkout returns the current sequence, including a completed one whose
// confirmation has not been dismissed yet.
func (s *Session) Checkout() (*checkout.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return nil, ErrNoCheckout
	}
	s.touched = s.now()
	return s.checkout, nil
}

// EndCheckout discards the current sequence. An unfinished sequence is
// recorded as abandoned.
func (s *Session) EndCheckout(ctx context.Context) error {
	s.mu.Lock()
	seq := s.checkout
	if seq == nil {
		s.mu.Unlock()
		return ErrNoCheckout
	}
	if seq.Paying() {
		s.mu.Unlock()
		return checkout.ErrPaymentInProgress
	}
	s.checkout = nil
	s.mu.Unlock()

	seq.Abandon(ctx)
	return nil
}

func (s *Session) mutate(fn func(*cart.Ledger)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout != nil && s.checkout.Paying() {
		return ErrCheckoutLocked
	}
	fn(s.ledger)
	s.touched = s.now()
	return nil
}

func (s *Session) paymentPending() bool {
	s.mu.Lock()
	seq := s.checkout
	s.mu.Unlock()
	return seq != nil && seq.Paying()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}
