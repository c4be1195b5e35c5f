package payment

import (
	"context"
	"fmt"

	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors"
	paymentrpc "github.com/jcmexdev/seating-storefront/internal/pkg/rpc/payment"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
)

// GRPCGateway is the adapter that talks to the payment service over gRPC.
type GRPCGateway struct {
	client paymentrpc.PaymentClient
}

// NewGRPCGateway returns the port backed by client.
func NewGRPCGateway(client paymentrpc.PaymentClient) ports.PaymentGateway {
	return &GRPCGateway{client: client}
}

var _ ports.PaymentGateway = (*GRPCGateway)(nil)

// CreatePayment sends one charge attempt. The idempotency key travels both in
// the payload and as x-idempotency-key metadata.
func (g *GRPCGateway) CreatePayment(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResult, error) {
	ctx = interceptors.WithIdempotencyKey(ctx, req.IdempotencyKey)

	res, err := g.client.Charge(ctx, &paymentrpc.ChargeRequest{
		IdempotencyKey: req.IdempotencyKey,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		BuyerEmail:     req.BuyerEmail,
		BillingAddress: toRPCAddress(req.BillingAddress),
	})
	if err != nil {
		return entity.PaymentResult{}, fmt.Errorf("payment gateway: %w", err)
	}

	return entity.PaymentResult{
		Success:   res.Success,
		PaymentID: res.PaymentID,
		Status:    res.Status,
		Error:     res.Error,
	}, nil
}

func toRPCAddress(a *entity.Address) *paymentrpc.Address {
	if a == nil {
		return nil
	}
	return &paymentrpc.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
