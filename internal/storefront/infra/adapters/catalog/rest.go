package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcmexdev/seating-storefront/internal/pkg/auth"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
)

// RESTCatalog reads products from the remote catalog API. The caller's
// bearer token and request id are forwarded on every call.
type RESTCatalog struct {
	baseURL string
	client  *http.Client
}

var _ ports.ProductCatalog = (*RESTCatalog)(nil)

// NewRESTCatalog returns a catalog client rooted at baseURL, e.g.
// "https://api.example.com/api".
func NewRESTCatalog(baseURL string, timeout time.Duration) *RESTCatalog {
	return &RESTCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type productDTO struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PriceCents int64    `json:"price_cents"`
	Image      string   `json:"image"`
	Category   string   `json:"category"`
	Vendor     string   `json:"vendor"`
	Colors     []string `json:"colors"`
}

func (p productDTO) toEntity() entity.Product {
	return entity.Product{
		ID:         p.ID,
		Title:      p.Title,
		PriceCents: p.PriceCents,
		Image:      p.Image,
		Category:   p.Category,
		Vendor:     p.Vendor,
		Colors:     p.Colors,
	}
}

// ListProducts implements ports.ProductCatalog.
func (c *RESTCatalog) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Vendor != "" {
		q.Set("vendor", filter.Vendor)
	}
	endpoint := c.baseURL + "/products"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var dtos []productDTO
	if err := c.getJSON(ctx, endpoint, &dtos); err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}

	out := make([]entity.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toEntity())
	}
	return out, nil
}

// GetProduct implements ports.ProductCatalog.
func (c *RESTCatalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var dto productDTO
	if err := c.getJSON(ctx, c.baseURL+"/products/"+url.PathEscape(id), &dto); err != nil {
		return nil, fmt.Errorf("catalog: get product %q: %w", id, err)
	}
	p := dto.toEntity()
	return &p, nil
}

func (c *RESTCatalog) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token := auth.TokenFromContext(ctx); token != "" {
		req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	if reqID := constants.RequestID(ctx); reqID != "" {
		req.Header.Set(constants.HeaderXRequestId, reqID)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ports.ErrProductNotFound
	case res.StatusCode < 200 || res.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
