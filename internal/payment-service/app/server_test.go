package app

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jcmexdev/seating-storefront/internal/payment-service/domain"
	"github.com/jcmexdev/seating-storefront/internal/pkg/cache"
	"github.com/jcmexdev/seating-storefront/internal/pkg/rpc/payment"
)

type failingCache struct{ cache.Cache }

func (failingCache) Get(context.Context, string) (string, error) { return "", errors.New("redis down") }
func (failingCache) Set(context.Context, string, any, time.Duration) error {
	return errors.New("redis down")
}

func newTestServer(c cache.Cache) *Server {
	srv := NewServer(c, Options{
		LimitCents:        50000,
		AllowedCurrencies: []string{"usd", " CAD "},
		IdempotencyTTL:    time.Hour,
	})
	n := 0
	srv.newID = func() string {
		n++
		return "pay_" + string(rune('0'+n))
	}
	return srv
}

func TestChargeSucceeds(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))

	res, err := srv.Charge(context.Background(), &payment.ChargeRequest{
		IdempotencyKey: "k1", AmountCents: 12000, Currency: "USD", BuyerEmail: "b@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Equal(t, payment.StatusSucceeded, res.Status)
	require.Contains(t, srv.payments, "pay_1")
	assert.Equal(t, int64(12000), srv.payments["pay_1"].AmountCents)
}

func TestChargeDeclines(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))

	tests := []struct {
		name     string
		req      *payment.ChargeRequest
		contains string
	}{
		{"over limit", &payment.ChargeRequest{IdempotencyKey: "a", AmountCents: 50001, Currency: "USD"}, "exceeds limit"},
		{"currency", &payment.ChargeRequest{IdempotencyKey: "b", AmountCents: 100, Currency: "EUR"}, "unsupported currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.Charge(context.Background(), tt.req)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, payment.StatusDeclined, res.Status)
			assert.Contains(t, res.Error, tt.contains)
		})
	}
	assert.Empty(t, srv.payments)
}

func TestChargeInvalidArguments(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))

	_, err := srv.Charge(context.Background(), &payment.ChargeRequest{AmountCents: 100, Currency: "USD"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.Charge(context.Background(), &payment.ChargeRequest{IdempotencyKey: "k", AmountCents: 0, Currency: "USD"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestChargeKeyFromMetadata(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-idempotency-key", "md-key"))

	res, err := srv.Charge(ctx, &payment.ChargeRequest{AmountCents: 100, Currency: "CAD"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "md-key", srv.payments[res.PaymentID].IdempotencyKey)
}

func TestChargeIsIdempotentPerKey(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))
	req := &payment.ChargeRequest{IdempotencyKey: "same", AmountCents: 500, Currency: "USD"}

	first, err := srv.Charge(context.Background(), req)
	require.NoError(t, err)
	second, err := srv.Charge(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Len(t, srv.payments, 1)

	third, err := srv.Charge(context.Background(), &payment.ChargeRequest{IdempotencyKey: "other", AmountCents: 500, Currency: "USD"})
	require.NoError(t, err)
	assert.NotEqual(t, first.PaymentID, third.PaymentID)
	assert.Len(t, srv.payments, 2)
}

func TestChargeSurvivesCacheOutage(t *testing.T) {
	srv := newTestServer(failingCache{Cache: cache.NewMemory("payment")})

	res, err := srv.Charge(context.Background(), &payment.ChargeRequest{IdempotencyKey: "k", AmountCents: 100, Currency: "USD"})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRefund(t *testing.T) {
	srv := newTestServer(cache.NewMemory("payment"))

	res, err := srv.Refund(context.Background(), &payment.RefundRequest{PaymentID: "unknown"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	charge, err := srv.Charge(context.Background(), &payment.ChargeRequest{IdempotencyKey: "k", AmountCents: 100, Currency: "USD"})
	require.NoError(t, err)

	res, err = srv.Refund(context.Background(), &payment.RefundRequest{PaymentID: charge.PaymentID})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StatusRefunded, srv.payments[charge.PaymentID].Status)

	res, err = srv.Refund(context.Background(), &payment.RefundRequest{PaymentID: charge.PaymentID})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestServerOverGRPC(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	payment.RegisterPaymentServer(s, NewServer(cache.NewMemory("payment"), Options{
		LimitCents:        50000,
		AllowedCurrencies: []string{"USD"},
		IdempotencyTTL:    time.Hour,
	}))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := payment.NewPaymentClient(conn)

	req := &payment.ChargeRequest{IdempotencyKey: "order-1", AmountCents: 4500, Currency: "USD"}
	first, err := client.Charge(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Success)

	again, err := client.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentID, again.PaymentID)

	refund, err := client.Refund(context.Background(), &payment.RefundRequest{PaymentID: first.PaymentID})
	require.NoError(t, err)
	assert.True(t, refund.Success)
}
