package payment

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type recordingServer struct {
	lastCharge *ChargeRequest
	lastRefund *RefundRequest
}

func (s *recordingServer) Charge(_ context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	s.lastCharge = req
	if req.AmountCents < 0 {
		return nil, status.Error(codes.InvalidArgument, "negative amount")
	}
	return &ChargeResponse{Success: true, PaymentID: "pay_1", Status: StatusSucceeded}, nil
}

func (s *recordingServer) Refund(_ context.Context, req *RefundRequest) (*RefundResponse, error) {
	s.lastRefund = req
	return &RefundResponse{Success: true}, nil
}

func dial(t *testing.T, srv PaymentServer) PaymentClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterPaymentServer(s, srv)
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

	return NewPaymentClient(conn)
}

func TestChargeRoundTrip(t *testing.T) {
	srv := &recordingServer{}
	client := dial(t, srv)

	res, err := client.Charge(context.Background(), &ChargeRequest{
		IdempotencyKey: "key-1",
		AmountCents:    123456,
		Currency:       "USD",
		BuyerEmail:     "buyer@example.com",
		BillingAddress: &Address{Line1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pay_1", res.PaymentID)
	assert.Equal(t, StatusSucceeded, res.Status)

	require.NotNil(t, srv.lastCharge)
	assert.Equal(t, "key-1", srv.lastCharge.IdempotencyKey)
	assert.Equal(t, int64(123456), srv.lastCharge.AmountCents)
	assert.Equal(t, "USD", srv.lastCharge.Currency)
	require.NotNil(t, srv.lastCharge.BillingAddress)
	assert.Equal(t, "Austin", srv.lastCharge.BillingAddress.City)
}

func TestChargeWithoutAddress(t *testing.T) {
	srv := &recordingServer{}
	client := dial(t, srv)

	_, err := client.Charge(context.Background(), &ChargeRequest{IdempotencyKey: "k", AmountCents: 1})
	require.NoError(t, err)
	assert.Nil(t, srv.lastCharge.BillingAddress)
}

func TestChargeErrorKeepsStatusCode(t *testing.T) {
	client := dial(t, &recordingServer{})

	_, err := client.Charge(context.Background(), &ChargeRequest{AmountCents: -1})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRefundRoundTrip(t *testing.T) {
	srv := &recordingServer{}
	client := dial(t, srv)

	res, err := client.Refund(context.Background(), &RefundRequest{PaymentID: "pay_9"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pay_9", srv.lastRefund.PaymentID)
}
