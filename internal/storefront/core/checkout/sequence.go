// Package checkout drives a buyer through the linear checkout flow:
// CartReview → ShippingInfo → PaymentMethod → Confirmation.
//
// Progress past ShippingInfo is gated on the shipping form, and progress past
// PaymentMethod on a successful charge from the payment gateway, after which
// the cart is cleared. A failed charge leaves both the step and the cart
// untouched and hands the gateway's error back to the caller.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/cart"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
)

const tracerName = "github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout"

// Cart is the part of the cart ledger the sequencer reads and clears.
// Sequence never calls it while holding its own lock.
type Cart interface {
	Totals() cart.Totals
	Items() []cart.LineItem
	Clear()
}

// OrderConfirmation is produced by a successful payment.
type OrderConfirmation struct {
	OrderID       string
	PaymentID     string
	PaymentStatus string
	Currency      string
	Items         []cart.LineItem
	Totals        cart.Totals
	Shipping      ShippingForm
	PlacedAt      time.Time
}

// Snapshot is a read-only view of a sequence.
type Snapshot struct {
	ID           string
	Step         Step
	Shipping     ShippingForm
	Payment      PaymentForm
	Paying       bool
	Confirmation *OrderConfirmation
}

// Sequence is one buyer's pass through checkout. It is safe for concurrent
// use; a Next issued while a charge is pending fails with ErrPaymentInProgress.
type Sequence struct {
	mu           sync.Mutex
	id           string
	step         Step
	shipping     ShippingForm
	payment      PaymentForm
	paying       bool
	confirmation *OrderConfirmation

	cart     Cart
	gateway  ports.PaymentGateway
	log      checkoutlog.Repository
	currency string
	tracer   trace.Tracer
	newKey   func() string
	now      func() time.Time
}

// Option configures a Sequence.
type Option func(*Sequence)

// WithLog records every transition in repo.
func WithLog(repo checkoutlog.Repository) Option {
	return func(s *Sequence) { s.log = repo }
}

// WithCurrency sets the ISO currency sent to the gateway. Default USD.
func WithCurrency(currency string) Option {
	return func(s *Sequence) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithIdempotencyKeys replaces the per-attempt key generator.
func WithIdempotencyKeys(fn func() string) Option {
	return func(s *Sequence) { s.newKey = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Sequence) { s.now = fn }
}

// New starts a sequence at CartReview over c.
func New(ctx context.Context, c Cart, gateway ports.PaymentGateway, opts ...Option) *Sequence {
	s := &Sequence{
		id:       uuid.NewString(),
		step:     CartReview,
		cart:     c,
		gateway:  gateway,
		currency: "USD",
		tracer:   otel.Tracer(tracerName),
		newKey:   uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	totals := c.Totals()
	slog.InfoContext(ctx, "checkout started", "checkout_id", s.id, "total_items", totals.TotalItems, "total_price_cents", totals.TotalPriceCents)
	s.record(ctx, checkoutlog.StatusStarted, CartReview, totalsPayload(totals), "")
	return s
}

// ID identifies the sequence in logs and traces.
func (s *Sequence) ID() string {
	return s.id
}

// Current returns the current step.
func (s *Sequence) Current() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Paying reports whether a gateway call is pending.
func (s *Sequence) Paying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paying
}

// Snapshot copies the sequence state.
func (s *Sequence) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.id,
		Step:     s.step,
		Shipping: s.shipping,
		Payment:  s.payment,
		Paying:   s.paying,
	}
	if s.confirmation != nil {
		c := *s.confirmation
		snap.Confirmation = &c
	}
	return snap
}

// Confirmation returns the order confirmation once the sequence is complete.
func (s *Sequence) Confirmation() (OrderConfirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirmation == nil {
		return OrderConfirmation{}, false
	}
	return *s.confirmation, true
}

// SetShipping replaces the shipping form. Allowed on any step before Confirmation.
func (s *Sequence) SetShipping(f ShippingForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.shipping = f
	return nil
}

// SetPayment replaces the payment form. Allowed on any step before Confirmation.
func (s *Sequence) SetPayment(f PaymentForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return err
	}
	s.payment = f
	return nil
}

// Next advances one step. From PaymentMethod it charges the gateway with
// ctx and, on success, clears the cart and moves to Confirmation.
func (s *Sequence) Next(ctx context.Context) (Step, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Next", trace.WithAttributes(attribute.String("checkout.id", s.id)))
	defer span.End()

	s.mu.Lock()
	if s.paying {
		s.mu.Unlock()
		span.SetStatus(otelcodes.Error, ErrPaymentInProgress.Error())
		return PaymentMethod, ErrPaymentInProgress
	}

	from := s.step
	span.SetAttributes(attribute.String("checkout.from_step", from.String()))

	switch from {
	case CartReview:
		s.step = ShippingInfo
		s.mu.Unlock()
		s.advanced(ctx, from, ShippingInfo)
		return ShippingInfo, nil

	case ShippingInfo:
		if err := s.shipping.Validate(); err != nil {
			s.mu.Unlock()
			s.rejected(ctx, span, ShippingInfo, err)
			return ShippingInfo, err
		}
		s.step = PaymentMethod
		s.mu.Unlock()
		s.advanced(ctx, from, PaymentMethod)
		return PaymentMethod, nil

	case PaymentMethod:
		if err := s.payment.Validate(); err != nil {
			s.mu.Unlock()
			s.rejected(ctx, span, PaymentMethod, err)
			return PaymentMethod, err
		}
		s.paying = true
		shipping, payment := s.shipping, s.payment
		s.mu.Unlock()

		// The cart is read outside s.mu; its owner rejects edits while paying.
		items := s.cart.Items()
		totals := s.cart.Totals()
		req := s.paymentRequest(shipping, payment, totals)
		return s.pay(ctx, span, req, items, totals, shipping)

	default:
		s.mu.Unlock()
		span.SetStatus(otelcodes.Error, ErrCheckoutComplete.Error())
		return from, ErrCheckoutComplete
	}
}

// Back returns to the previous step, keeping everything already entered.
func (s *Sequence) Back(ctx context.Context) (Step, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Back", trace.WithAttributes(attribute.String("checkout.id", s.id)))
	defer span.End()

	s.mu.Lock()
	if s.paying {
		s.mu.Unlock()
		return PaymentMethod, ErrPaymentInProgress
	}
	from := s.step
	switch from {
	case CartReview:
		s.mu.Unlock()
		return CartReview, ErrAtFirstStep
	case Confirmation:
		s.mu.Unlock()
		return Confirmation, ErrCheckoutComplete
	}
	s.step = from - 1
	to := s.step
	s.mu.Unlock()

	span.SetAttributes(attribute.String("checkout.to_step", to.String()))
	slog.InfoContext(ctx, "checkout step reversed", "checkout_id", s.id, "from", from.String(), "to", to.String())
	s.record(ctx, checkoutlog.StatusStepReversed, to, nil, "")
	return to, nil
}

// Abandon records that the buyer left the flow. The sequence itself keeps
// its state; the owner is expected to discard it.
func (s *Sequence) Abandon(ctx context.Context) {
	step := s.Current()
	if step.IsTerminal() {
		return
	}
	slog.InfoContext(ctx, "checkout abandoned", "checkout_id", s.id, "step", step.String())
	s.record(ctx, checkoutlog.StatusAbandoned, step, nil, "")
}

func (s *Sequence) pay(
	ctx context.Context,
	span trace.Span,
	req entity.PaymentRequest,
	items []cart.LineItem,
	totals cart.Totals,
	shipping ShippingForm,
) (Step, error) {
	span.SetAttributes(
		attribute.Int64("checkout.amount_cents", req.AmountCents),
		attribute.String("checkout.currency", req.Currency),
	)
	slog.InfoContext(ctx, "charging payment gateway", "checkout_id", s.id, "amount_cents", req.AmountCents, "idempotency_key", req.IdempotencyKey)

	res, err := s.charge(ctx, req)
	if err == nil && !res.Success {
		err = &PaymentFailedError{Status: res.Status, Message: res.Error}
	}

	if err != nil {
		s.mu.Lock()
		s.paying = false
		s.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		slog.WarnContext(ctx, "payment failed", "checkout_id", s.id, "error", err)
		s.record(ctx, checkoutlog.StatusPaymentFailed, PaymentMethod, nil, err.Error())
		return PaymentMethod, err
	}

	conf := &OrderConfirmation{
		OrderID:       uuid.NewString(),
		PaymentID:     res.PaymentID,
		PaymentStatus: res.Status,
		Currency:      req.Currency,
		Items:         items,
		Totals:        totals,
		Shipping:      shipping,
		PlacedAt:      s.now().UTC(),
	}
	s.cart.Clear()

	s.mu.Lock()
	s.paying = false
	s.confirmation = conf
	s.step = Confirmation
	s.mu.Unlock()

	slog.InfoContext(ctx, "checkout completed", "checkout_id", s.id, "order_id", conf.OrderID, "payment_id", conf.PaymentID)
	s.record(ctx, checkoutlog.StatusCompleted, Confirmation, confirmationPayload{
		OrderID:         conf.OrderID,
		PaymentID:       conf.PaymentID,
		TotalItems:      totals.TotalItems,
		TotalPriceCents: totals.TotalPriceCents,
		Currency:        conf.Currency,
	}, "")
	return Confirmation, nil
}

// charge calls the gateway. A panicking gateway is reported as a failed
// charge so the sequence never stays in the paying state.
func (s *Sequence) charge(ctx context.Context, req entity.PaymentRequest) (res entity.PaymentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "payment gateway panicked", "checkout_id", s.id, "panic", r, "stack", string(debug.Stack()))
			res, err = entity.PaymentResult{}, fmt.Errorf("%w: %v", ErrGatewayPanic, r)
		}
	}()
	return s.gateway.CreatePayment(ctx, req)
}

func (s *Sequence) paymentRequest(shipping ShippingForm, payment PaymentForm, totals cart.Totals) entity.PaymentRequest {
	billing := payment.Billing
	if payment.BillingSameAsShipping {
		billing = shipping.Address
	}
	return entity.PaymentRequest{
		AmountCents:    totals.TotalPriceCents,
		Currency:       s.currency,
		BuyerEmail:     shipping.Email,
		BillingAddress: &billing,
		IdempotencyKey: s.newKey(),
	}
}

func (s *Sequence) editableLocked() error {
	if s.paying {
		return ErrPaymentInProgress
	}
	if s.step.IsTerminal() {
		return ErrCheckoutComplete
	}
	return nil
}

func (s *Sequence) advanced(ctx context.Context, from, to Step) {
	slog.InfoContext(ctx, "checkout step advanced", "checkout_id", s.id, "from", from.String(), "to", to.String())
	s.record(ctx, checkoutlog.StatusStepAdvanced, to, nil, "")
}

func (s *Sequence) rejected(ctx context.Context, span trace.Span, step Step, err error) {
	span.SetStatus(otelcodes.Error, err.Error())
	slog.InfoContext(ctx, "checkout step rejected", "checkout_id", s.id, "step", step.String(), "error", err)
	s.record(ctx, checkoutlog.StatusValidationFailed, step, nil, err.Error())
}

// record is a no-op without a log repository; write failures are logged
// and never block the buyer.
func (s *Sequence) record(ctx context.Context, status checkoutlog.Status, step Step, payload any, errMsg string) {
	if s.log == nil {
		return
	}
	var raw string
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			raw = string(b)
		}
	}
	if err := s.log.Save(ctx, checkoutlog.NewEntry(ctx, s.id, status, step.String(), raw, errMsg)); err != nil {
		slog.WarnContext(ctx, "failed to write checkout log", "checkout_id", s.id, "status", status, "error", err)
	}
}

type totalsJSON struct {
	TotalItems      int   `json:"total_items"`
	TotalPriceCents int64 `json:"total_price_cents"`
}

func totalsPayload(t cart.Totals) totalsJSON {
	return totalsJSON{TotalItems: t.TotalItems, TotalPriceCents: t.TotalPriceCents}
}

type confirmationPayload struct {
	OrderID         string `json:"order_id"`
	PaymentID       string `json:"payment_id"`
	TotalItems      int    `json:"total_items"`
	TotalPriceCents int64  `json:"total_price_cents"`
	Currency        string `json:"currency"`
}
