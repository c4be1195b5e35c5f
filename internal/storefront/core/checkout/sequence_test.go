package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/cart"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
)

type fakeGateway struct {
	mu       sync.Mutex
	result   entity.PaymentResult
	err      error
	requests []entity.PaymentRequest
	// when non-nil, CreatePayment signals started and waits on release.
	started chan struct{}
	release chan struct{}
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.started != nil {
		g.started <- struct{}{}
		<-g.release
	}
	return g.result, g.err
}

func (g *fakeGateway) calls() []entity.PaymentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]entity.PaymentRequest(nil), g.requests...)
}

type memoryLog struct {
	mu      sync.Mutex
	entries []*checkoutlog.Entry
	err     error
}

func (m *memoryLog) Save(_ context.Context, e *checkoutlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

func (m *memoryLog) statuses() []checkoutlog.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkoutlog.Status
	for _, e := range m.entries {
		out = append(out, e.Status)
	}
	return out
}

func filledCart() *cart.Ledger {
	l := cart.NewLedger()
	l.AddItem(cart.LineItem{ID: "club-chair", UnitPriceCents: 1000, Title: "Club chair"})
	l.AddItem(cart.LineItem{ID: "club-chair", UnitPriceCents: 1000})
	l.AddItem(cart.LineItem{ID: "bar-stool", UnitPriceCents: 2550, Title: "Bar stool"})
	return l
}

func validShipping() ShippingForm {
	return ShippingForm{
		FullName: "Ada Buyer",
		Email:    "ada@example.com",
		Address: entity.Address{
			Line1: "12 Upholstery Rd", City: "Grand Rapids", State: "MI", PostalCode: "49503", Country: "US",
		},
	}
}

func validPayment() PaymentForm {
	return PaymentForm{Method: "card", CardholderName: "Ada Buyer", BillingSameAsShipping: true}
}

// toPayment advances a fresh sequence to PaymentMethod with valid forms.
func toPayment(t *testing.T, s *Sequence) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SetShipping(validShipping()))
	require.NoError(t, s.SetPayment(validPayment()))
	_, err := s.Next(ctx)
	require.NoError(t, err)
	step, err := s.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, PaymentMethod, step)
}

func TestLinearSequencing(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{})
	assert.Equal(t, CartReview, s.Current())

	step, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ShippingInfo, step)

	require.NoError(t, s.SetShipping(validShipping()))

	step, err = s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, CartReview, step)
	assert.Equal(t, validShipping(), s.Snapshot().Shipping)
}

func TestBackFromFirstStep(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{})

	step, err := s.Back(ctx)
	assert.ErrorIs(t, err, ErrAtFirstStep)
	assert.Equal(t, CartReview, step)
}

func TestShippingValidationGatesAdvance(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{})
	_, err := s.Next(ctx)
	require.NoError(t, err)

	form := validShipping()
	form.Email = "   "
	form.Address.PostalCode = ""
	require.NoError(t, s.SetShipping(form))

	step, err := s.Next(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ShippingInfo, verr.Step)
	assert.Equal(t, []string{"email", "address.postal_code"}, verr.Fields)
	assert.Equal(t, ShippingInfo, step)
	assert.Equal(t, ShippingInfo, s.Current())

	require.NoError(t, s.SetShipping(validShipping()))
	step, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, PaymentMethod, step)
}

func TestPaymentFormValidatedBeforeGateway(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{result: entity.PaymentResult{Success: true}}
	s := New(ctx, filledCart(), gw)
	toPayment(t, s)

	require.NoError(t, s.SetPayment(PaymentForm{Method: "card"}))
	_, err := s.Next(ctx)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"cardholder_name", "billing.line1", "billing.city", "billing.postal_code", "billing.country"}, verr.Fields)
	assert.Empty(t, gw.calls())
	assert.Equal(t, PaymentMethod, s.Current())
}

func TestDeclinedPaymentKeepsStepAndCart(t *testing.T) {
	ctx := context.Background()
	ledger := filledCart()
	gw := &fakeGateway{result: entity.PaymentResult{Success: false, Status: "declined", Error: "card declined by issuer"}}
	s := New(ctx, ledger, gw)
	toPayment(t, s)

	step, err := s.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, "card declined by issuer", err.Error())
	var perr *PaymentFailedError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "declined", perr.Status)

	assert.Equal(t, PaymentMethod, step)
	assert.Equal(t, PaymentMethod, s.Current())
	assert.False(t, s.Paying())
	assert.Equal(t, cart.Totals{TotalItems: 3, TotalPriceCents: 4550}, ledger.Totals())
	_, ok := s.Confirmation()
	assert.False(t, ok)
}

func TestDeclineWithoutMessage(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{})
	toPayment(t, s)

	_, err := s.Next(ctx)
	assert.EqualError(t, err, "payment declined")
}

func TestGatewayErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	ledger := filledCart()
	boom := errors.New("payment gateway: connection refused")
	s := New(ctx, ledger, &fakeGateway{err: boom})
	toPayment(t, s)

	step, err := s.Next(ctx)
	assert.Same(t, boom, err)
	assert.Equal(t, PaymentMethod, step)
	assert.Equal(t, 2, ledger.Len())
}

type panickingGateway struct{}

func (panickingGateway) CreatePayment(context.Context, entity.PaymentRequest) (entity.PaymentResult, error) {
	panic("processor client nil pointer")
}

func TestGatewayPanicReleasesSequence(t *testing.T) {
	ctx := context.Background()
	ledger := filledCart()
	log := &memoryLog{}
	s := New(ctx, ledger, panickingGateway{}, WithLog(log))
	toPayment(t, s)

	var (
		step Step
		err  error
	)
	require.NotPanics(t, func() { step, err = s.Next(ctx) })
	require.ErrorIs(t, err, ErrGatewayPanic)
	assert.Contains(t, err.Error(), "processor client nil pointer")
	assert.Equal(t, PaymentMethod, step)
	assert.False(t, s.Paying())
	assert.Equal(t, 2, ledger.Len())

	statuses := log.statuses()
	assert.Equal(t, checkoutlog.StatusPaymentFailed, statuses[len(statuses)-1])

	step, err = s.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, ShippingInfo, step)
	require.NoError(t, s.SetShipping(validShipping()))
}

func TestSuccessfulPaymentClearsCart(t *testing.T) {
	ctx := context.Background()
	ledger := filledCart()
	gw := &fakeGateway{result: entity.PaymentResult{Success: true, PaymentID: "pay_1", Status: "succeeded"}}
	placed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New(ctx, ledger, gw,
		WithCurrency("CAD"),
		WithIdempotencyKeys(func() string { return "key-1" }),
		WithClock(func() time.Time { return placed }),
	)
	toPayment(t, s)

	step, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, Confirmation, step)
	assert.Equal(t, Confirmation, s.Current())
	assert.Equal(t, cart.Totals{}, ledger.Totals())
	assert.Empty(t, ledger.Items())

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(4550), calls[0].AmountCents)
	assert.Equal(t, "CAD", calls[0].Currency)
	assert.Equal(t, "ada@example.com", calls[0].BuyerEmail)
	assert.Equal(t, "key-1", calls[0].IdempotencyKey)
	require.NotNil(t, calls[0].BillingAddress)
	assert.Equal(t, "Grand Rapids", calls[0].BillingAddress.City)

	conf, ok := s.Confirmation()
	require.True(t, ok)
	assert.NotEmpty(t, conf.OrderID)
	assert.Equal(t, "pay_1", conf.PaymentID)
	assert.Equal(t, cart.Totals{TotalItems: 3, TotalPriceCents: 4550}, conf.Totals)
	assert.Len(t, conf.Items, 2)
	assert.Equal(t, placed, conf.PlacedAt)
}

func TestSeparateBillingAddress(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{result: entity.PaymentResult{Success: true}}
	s := New(ctx, filledCart(), gw)
	toPayment(t, s)

	form := validPayment()
	form.BillingSameAsShipping = false
	form.Billing = entity.Address{Line1: "1 Ledger Way", City: "Detroit", PostalCode: "48201", Country: "US"}
	require.NoError(t, s.SetPayment(form))

	_, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Detroit", gw.calls()[0].BillingAddress.City)
}

func TestFreshIdempotencyKeyPerAttempt(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{}
	s := New(ctx, filledCart(), gw)
	toPayment(t, s)

	_, _ = s.Next(ctx)
	_, _ = s.Next(ctx)

	calls := gw.calls()
	require.Len(t, calls, 2)
	assert.NotEqual(t, calls[0].IdempotencyKey, calls[1].IdempotencyKey)
}

func TestTerminalStep(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{result: entity.PaymentResult{Success: true}})
	toPayment(t, s)
	_, err := s.Next(ctx)
	require.NoError(t, err)

	step, err := s.Next(ctx)
	assert.ErrorIs(t, err, ErrCheckoutComplete)
	assert.Equal(t, Confirmation, step)

	_, err = s.Back(ctx)
	assert.ErrorIs(t, err, ErrCheckoutComplete)

	assert.ErrorIs(t, s.SetShipping(validShipping()), ErrCheckoutComplete)
	assert.ErrorIs(t, s.SetPayment(validPayment()), ErrCheckoutComplete)
}

func TestConcurrentNextDuringPaymentIsRejected(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{
		result:  entity.PaymentResult{Success: true, PaymentID: "pay_1"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(ctx, filledCart(), gw)
	toPayment(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		done <- err
	}()
	<-gw.started

	assert.True(t, s.Paying())
	step, err := s.Next(ctx)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.Equal(t, PaymentMethod, step)
	_, err = s.Back(ctx)
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.ErrorIs(t, s.SetPayment(validPayment()), ErrPaymentInProgress)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Len(t, gw.calls(), 1)
	assert.Equal(t, Confirmation, s.Current())
}

func TestTransitionsAreLogged(t *testing.T) {
	ctx := context.Background()
	log := &memoryLog{}
	gw := &fakeGateway{}
	s := New(ctx, filledCart(), gw, WithLog(log))

	_, _ = s.Next(ctx)
	_, _ = s.Next(ctx) // blank shipping form
	require.NoError(t, s.SetShipping(validShipping()))
	require.NoError(t, s.SetPayment(validPayment()))
	_, _ = s.Next(ctx)
	_, _ = s.Back(ctx)
	_, _ = s.Next(ctx)
	_, _ = s.Next(ctx) // declined
	gw.result = entity.PaymentResult{Success: true, PaymentID: "pay_2"}
	_, _ = s.Next(ctx)

	assert.Equal(t, []checkoutlog.Status{
		checkoutlog.StatusStarted,
		checkoutlog.StatusStepAdvanced,
		checkoutlog.StatusValidationFailed,
		checkoutlog.StatusStepAdvanced,
		checkoutlog.StatusStepReversed,
		checkoutlog.StatusStepAdvanced,
		checkoutlog.StatusPaymentFailed,
		checkoutlog.StatusCompleted,
	}, log.statuses())

	first := log.entries[0]
	assert.Equal(t, s.ID(), first.CheckoutID)
	assert.JSONEq(t, `{"total_items":3,"total_price_cents":4550}`, first.Payload)
	assert.Contains(t, log.entries[len(log.entries)-1].Payload, `"payment_id":"pay_2"`)
}

func TestLogFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	s := New(ctx, filledCart(), &fakeGateway{}, WithLog(&memoryLog{err: errors.New("disk full")}))

	step, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ShippingInfo, step)
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	log := &memoryLog{}
	s := New(ctx, filledCart(), &fakeGateway{}, WithLog(log))
	_, _ = s.Next(ctx)

	s.Abandon(ctx)
	assert.Equal(t, checkoutlog.StatusAbandoned, log.statuses()[len(log.statuses())-1])
	assert.Equal(t, "ShippingInfo", log.entries[len(log.entries)-1].Step)
}

func TestStepString(t *testing.T) {
	var names []string
	for _, s := range Steps {
		names = append(names, s.String())
	}
	assert.Equal(t, []string{"CartReview", "ShippingInfo", "PaymentMethod", "Confirmation"}, names)
	assert.Equal(t, "Unknown", Step(42).String())
	assert.True(t, Confirmation.IsTerminal())
	assert.False(t, PaymentMethod.IsTerminal())
}
