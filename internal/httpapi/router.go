package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Products *ProductsHandler
	Coupons  *CouponHandler
	CEP      *CEPHandler
}

// NewRouter wires the public API. Product browsing and CEP lookup are open;
// everything cart-and-beyond requires an authenticated user.
func NewRouter(h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
			r.Get("/{product_id}/installments", h.Products.Installments)
		})

		r.Get("/cep/{cep}", h.CEP.Lookup)
		r.Post("/coupons/validate", h.Coupons.Validate)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(log))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
				r.Delete("/", h.Cart.ClearCart)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout.Start)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Get("/", h.Checkout.Get)
					r.Post("/advance", h.Checkout.Advance)
					r.Post("/back", h.Checkout.Retreat)
					r.Post("/coupon", h.Checkout.ApplyCoupon)
					r.Delete("/", h.Checkout.Abandon)
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/{order_id}", h.Orders.Get)
				r.Post("/{order_id}/cancel", h.Orders.Cancel)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront-api")
}
