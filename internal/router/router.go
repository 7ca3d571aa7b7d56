package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Admin    *handler.AdminHandler
	Metrics  http.Handler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Check)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)

	// Cart
	mux.HandleFunc("GET /api/cart", h.Cart.Get)
	mux.HandleFunc("DELETE /api/cart", h.Cart.Clear)
	mux.HandleFunc("POST /api/cart/items", h.Cart.AddItem)
	mux.HandleFunc("PATCH /api/cart/items/{productId}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.Cart.RemoveItem)

	// Orders and checkout
	mux.HandleFunc("POST /api/orders", h.Order.Create)
	mux.HandleFunc("GET /api/orders", h.Order.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.HandleFunc("POST /api/orders/{id}/payment-cancelled", h.Checkout.PaymentCancelled)
	mux.HandleFunc("POST /api/create-payment-order", h.Checkout.CreatePaymentOrder)
	mux.HandleFunc("POST /api/verify-payment", h.Checkout.VerifyPayment)
	mux.HandleFunc("POST /api/payment-webhook", h.Webhook.Handle)

	// Admin (API key)
	mux.HandleFunc("POST /api/admin/products", h.Product.Create)
	mux.HandleFunc("PUT /api/admin/products/{id}", h.Product.Update)
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.Product.Delete)
	mux.HandleFunc("GET /api/admin/orders", h.Admin.ListOrders)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth -> UserIdentity
	var handler http.Handler = mux
	handler = middleware.UserIdentity(handler)
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
