package ports

import (
	"context"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
)

// PaymentGateway charges the buyer. A declined charge is a result with
// Success=false; a non-nil error means the call itself failed.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req entity.PaymentRequest) (entity.PaymentResult, error)
}
