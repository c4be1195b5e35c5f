package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jcmexdev/seating-storefront/internal/pkg/cache"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
)

// CachedCatalog caches GetProduct lookups. Listings are always fetched live.
// Cache failures degrade to the underlying catalog.
type CachedCatalog struct {
	next  ports.ProductCatalog
	cache cache.Cache
	ttl   time.Duration
}

var _ ports.ProductCatalog = (*CachedCatalog)(nil)

func NewCachedCatalog(next ports.ProductCatalog, c cache.Cache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, cache: c, ttl: ttl}
}

func (c *CachedCatalog) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	return c.next.ListProducts(ctx, filter)
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	key := c.cache.GenerateKey("product", id)

	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
	}
	if raw != "" {
		var p entity.Product
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
	}

	p, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(p); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			slog.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
		}
	}
	return p, nil
}
