package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jcmexdev/seating-storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, verifier middlewares.TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireBearer(verifier))

		r.Get("/products", handler.ListProducts)
		r.Get("/products/{id}", handler.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Delete("/", handler.ClearCart)
			r.Post("/items", handler.AddCartItem)
			r.Put("/items/{id}", handler.UpdateCartItem)
			r.Delete("/items/{id}", handler.RemoveCartItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", handler.BeginCheckout)
			r.Get("/", handler.GetCheckout)
			r.Delete("/", handler.EndCheckout)
			r.Put("/shipping", handler.SetShipping)
			r.Put("/payment", handler.SetPayment)
			r.Post("/next", handler.NextStep)
			r.Post("/back", handler.PreviousStep)
			r.Get("/history", handler.CheckoutHistory)
		})
	})
	return r
}
