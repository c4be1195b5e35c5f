package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/cart"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/seating-storefront/internal/storefront/infra/httpx/middlewares"
	"github.com/jcmexdev/seating-storefront/internal/storefront/session"
)

// Handler serves the cart and checkout API for the authenticated buyer.
type Handler struct {
	sessions *session.Store
	catalog  ports.ProductCatalog
	gateway  ports.PaymentGateway
	log      checkoutlog.Repository // nil-safe: transitions not persisted if nil
	history  checkoutlog.Reader     // nil-safe: history endpoint returns 404 if nil
	currency string
}

// NewHandler wires the handler. logRepo and history may be nil.
func NewHandler(
	sessions *session.Store,
	catalog ports.ProductCatalog,
	gateway ports.PaymentGateway,
	logRepo checkoutlog.Repository,
	history checkoutlog.Reader,
	currency string,
) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalog,
		gateway:  gateway,
		log:      logRepo,
		history:  history,
		currency: currency,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts proxies the catalog listing, filtered by the category, search
// and vendor query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.catalog.ListProducts(r.Context(), entity.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Vendor:   q.Get("vendor"),
	})
	if err != nil {
		h.catalogError(w, r, err)
		return
	}

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(*product))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, http.StatusOK, h.session(r))
}

// AddCartItem looks the product up in the catalog and adds one unit of it.
// The price is always the catalog's, never the client's.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.catalogError(w, r, err)
		return
	}
	if product.PriceCents < 0 {
		h.catalogError(w, r, fmt.Errorf("catalog: product %q has negative price %d", product.ID, product.PriceCents))
		return
	}

	s := h.session(r)
	if err := s.AddItem(cart.LineItem{
		ID:             product.ID,
		UnitPriceCents: product.PriceCents,
		Title:          product.Title,
		Image:          product.Image,
		Category:       product.Category,
	}); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "cart item added", "session_id", s.ID, "product_id", product.ID)
	h.writeCart(w, http.StatusOK, s)
}

// UpdateCartItem sets the quantity of a line; zero or less removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}

	s := h.session(r)
	if err := s.UpdateQuantity(chi.URLParam(r, "id"), *req.Quantity); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.RemoveItem(chi.URLParam(r, "id")); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.ClearCart(); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

// BeginCheckout starts a checkout over the current cart, or returns the one
// already in progress.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	seq, err := h.session(r).BeginCheckout(r.Context(), h.startSequence)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCheckout(seq.Snapshot()))
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(seq.Snapshot()))
}

func (h *Handler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	if err := seq.SetShipping(req.toForm()); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(seq.Snapshot()))
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	if err := seq.SetPayment(req.toForm()); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(seq.Snapshot()))
}

// NextStep advances the checkout. From PaymentMethod this charges the buyer.
// A charge, once issued, runs to completion even if the client goes away.
func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	if _, err := seq.Next(context.WithoutCancel(r.Context())); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(seq.Snapshot()))
}

func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	if _, err := seq.Back(r.Context()); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCheckout(seq.Snapshot()))
}

// EndCheckout discards the checkout. After a confirmation this dismisses it;
// before, the checkout is recorded as abandoned.
func (h *Handler) EndCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).EndCheckout(r.Context()); err != nil {
		h.checkoutError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckoutHistory lists the audit log of the current checkout.
func (h *Handler) CheckoutHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "history_unavailable", "checkout log is not configured")
		return
	}
	seq, ok := h.sequence(w, r)
	if !ok {
		return
	}
	entries, err := h.history.List(r.Context(), seq.ID())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read checkout log", "checkout_id", seq.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "checkout_log_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapLogEntries(entries))
}

func (h *Handler) startSequence(ctx context.Context, c checkout.Cart) *checkout.Sequence {
	return checkout.New(ctx, c, h.gateway,
		checkout.WithLog(h.log),
		checkout.WithCurrency(h.currency),
	)
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.sessions.Get(middlewares.SessionID(r.Context()))
}

func (h *Handler) sequence(w http.ResponseWriter, r *http.Request) (*checkout.Sequence, bool) {
	seq, err := h.session(r).Checkout()
	if err != nil {
		h.checkoutError(w, r, err)
		return nil, false
	}
	return seq, true
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, s *session.Session) {
	// Items and Totals take the session lock separately; a concurrent edit
	// between them only shows up as a stale total on this response.
	writeJSON(w, status, mapCart(s.Items(), s.Totals()))
}

func (h *Handler) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ports.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "catalog request failed", "error", err)
	writeError(w, http.StatusBadGateway, "catalog_error", err.Error())
}

// checkoutError maps session and sequencer errors onto HTTP statuses.
// Gateway messages are passed through unchanged.
func (h *Handler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *checkout.ValidationError
	var declined *checkout.PaymentFailedError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Fields:  validation.Fields,
		})
	case errors.As(err, &declined):
		writeError(w, http.StatusPaymentRequired, "payment_failed", declined.Error())
	case errors.Is(err, checkout.ErrPaymentInProgress):
		writeError(w, http.StatusConflict, "payment_in_progress", err.Error())
	case errors.Is(err, session.ErrCheckoutLocked):
		writeError(w, http.StatusConflict, "cart_locked", err.Error())
	case errors.Is(err, checkout.ErrCheckoutComplete):
		writeError(w, http.StatusConflict, "checkout_complete", err.Error())
	case errors.Is(err, checkout.ErrAtFirstStep):
		writeError(w, http.StatusConflict, "at_first_step", err.Error())
	case errors.Is(err, session.ErrEmptyCart):
		writeError(w, http.StatusConflict, "empty_cart", err.Error())
	case errors.Is(err, session.ErrNoCheckout):
		writeError(w, http.StatusNotFound, "no_checkout", err.Error())
	default:
		slog.ErrorContext(r.Context(), "payment gateway call failed", "error", err)
		writeError(w, http.StatusBadGateway, "payment_gateway_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
