package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
)

// fakeGateway is an in-memory PaymentGateway for local development, used
// when no payment service address is configured. Do NOT use in production.
type fakeGateway struct {
	mu         sync.Mutex
	limitCents int64
	results    map[string]entity.PaymentResult
}

// NewFakeGateway approves every charge up to limitCents.
func NewFakeGateway(limitCents int64) ports.PaymentGateway {
	return &fakeGateway{
		limitCents: limitCents,
		results:    make(map[string]entity.PaymentResult),
	}
}

func (f *fakeGateway) CreatePayment(_ context.Context, req entity.PaymentRequest) (entity.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if res, ok := f.results[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return res, nil
	}

	res := entity.PaymentResult{Success: true, PaymentID: "pay_" + uuid.NewString(), Status: "succeeded"}
	if req.AmountCents <= 0 || req.AmountCents > f.limitCents {
		res = entity.PaymentResult{Status: "declined", Error: "payment declined: amount exceeds limit"}
	}
	f.results[req.IdempotencyKey] = res
	return res, nil
}
