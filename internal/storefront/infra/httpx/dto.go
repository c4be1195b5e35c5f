package httpx

import (
	"time"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/cart"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type ProductResponse struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PriceCents int64    `json:"price_cents"`
	Image      string   `json:"image,omitempty"`
	Category   string   `json:"category,omitempty"`
	Vendor     string   `json:"vendor,omitempty"`
	Colors     []string `json:"colors,omitempty"`
}

type LineItemResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	Image          string `json:"image,omitempty"`
	Category       string `json:"category,omitempty"`
}

type CartResponse struct {
	Items           []LineItemResponse `json:"items"`
	TotalItems      int                `json:"total_items"`
	TotalPriceCents int64              `json:"total_price_cents"`
}

type AddressDTO struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type ShippingDTO struct {
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone,omitempty"`
	Address  AddressDTO `json:"address"`
}

type PaymentDTO struct {
	Method                string     `json:"method"`
	CardholderName        string     `json:"cardholder_name"`
	BillingSameAsShipping bool       `json:"billing_same_as_shipping"`
	Billing               AddressDTO `json:"billing"`
}

type ConfirmationResponse struct {
	OrderID         string             `json:"order_id"`
	PaymentID       string             `json:"payment_id"`
	PaymentStatus   string             `json:"payment_status"`
	Currency        string             `json:"currency"`
	Items           []LineItemResponse `json:"items"`
	TotalItems      int                `json:"total_items"`
	TotalPriceCents int64              `json:"total_price_cents"`
	Shipping        ShippingDTO        `json:"shipping"`
	PlacedAt        time.Time          `json:"placed_at"`
}

type CheckoutResponse struct {
	ID           string                `json:"id"`
	Step         string                `json:"step"`
	StepIndex    int                   `json:"step_index"`
	Paying       bool                  `json:"paying"`
	Shipping     ShippingDTO           `json:"shipping"`
	Payment      PaymentDTO            `json:"payment"`
	Confirmation *ConfirmationResponse `json:"confirmation,omitempty"`
}

type CheckoutLogEntryResponse struct {
	Status       string    `json:"status"`
	Step         string    `json:"step"`
	Payload      string    `json:"payload,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	TraceID      string    `json:"trace_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func mapProduct(p entity.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Title:      p.Title,
		PriceCents: p.PriceCents,
		Image:      p.Image,
		Category:   p.Category,
		Vendor:     p.Vendor,
		Colors:     p.Colors,
	}
}

func mapLineItems(items []cart.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i, it := range items {
		out[i] = LineItemResponse{
			ID:             it.ID,
			Title:          it.Title,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
			SubtotalCents:  it.SubtotalCents(),
			Image:          it.Image,
			Category:       it.Category,
		}
	}
	return out
}

func mapCart(items []cart.LineItem, totals cart.Totals) CartResponse {
	return CartResponse{
		Items:           mapLineItems(items),
		TotalItems:      totals.TotalItems,
		TotalPriceCents: totals.TotalPriceCents,
	}
}

func (a AddressDTO) toEntity() entity.Address {
	return entity.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func mapAddress(a entity.Address) AddressDTO {
	return AddressDTO{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func (s ShippingDTO) toForm() checkout.ShippingForm {
	return checkout.ShippingForm{
		FullName: s.FullName,
		Email:    s.Email,
		Phone:    s.Phone,
		Address:  s.Address.toEntity(),
	}
}

func mapShipping(f checkout.ShippingForm) ShippingDTO {
	return ShippingDTO{
		FullName: f.FullName,
		Email:    f.Email,
		Phone:    f.Phone,
		Address:  mapAddress(f.Address),
	}
}

func (p PaymentDTO) toForm() checkout.PaymentForm {
	return checkout.PaymentForm{
		Method:                p.Method,
		CardholderName:        p.CardholderName,
		BillingSameAsShipping: p.BillingSameAsShipping,
		Billing:               p.Billing.toEntity(),
	}
}

func mapPayment(f checkout.PaymentForm) PaymentDTO {
	return PaymentDTO{
		Method:                f.Method,
		CardholderName:        f.CardholderName,
		BillingSameAsShipping: f.BillingSameAsShipping,
		Billing:               mapAddress(f.Billing),
	}
}

func mapCheckout(snap checkout.Snapshot) CheckoutResponse {
	resp := CheckoutResponse{
		ID:        snap.ID,
		Step:      snap.Step.String(),
		StepIndex: int(snap.Step),
		Paying:    snap.Paying,
		Shipping:  mapShipping(snap.Shipping),
		Payment:   mapPayment(snap.Payment),
	}
	if c := snap.Confirmation; c != nil {
		resp.Confirmation = &ConfirmationResponse{
			OrderID:         c.OrderID,
			PaymentID:       c.PaymentID,
			PaymentStatus:   c.PaymentStatus,
			Currency:        c.Currency,
			Items:           mapLineItems(c.Items),
			TotalItems:      c.Totals.TotalItems,
			TotalPriceCents: c.Totals.TotalPriceCents,
			Shipping:        mapShipping(c.Shipping),
			PlacedAt:        c.PlacedAt,
		}
	}
	return resp
}

func mapLogEntries(entries []*checkoutlog.Entry) []CheckoutLogEntryResponse {
	out := make([]CheckoutLogEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = CheckoutLogEntryResponse{
			Status:       string(e.Status),
			Step:         e.Step,
			Payload:      e.Payload,
			ErrorMessage: e.ErrorMessage,
			TraceID:      e.TraceID,
			CreatedAt:    e.CreatedAt,
		}
	}
	return out
}
