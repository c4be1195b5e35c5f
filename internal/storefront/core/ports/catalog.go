package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
)

// ErrProductNotFound is returned by GetProduct for unknown ids.
var ErrProductNotFound = errors.New("product not found")

// ProductCatalog is the read-only view of the remote catalog API.
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
}
