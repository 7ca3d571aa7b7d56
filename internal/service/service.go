package service

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create adds a product to the catalogue.
	Create(ctx context.Context, req model.ProductRequest) (*model.Product, error)

	// Update replaces a product's editable fields.
	Update(ctx context.Context, id string, req model.UpdateProductRequest) (*model.Product, error)

	// Delete removes a product from the catalogue.
	Delete(ctx context.Context, id string) error
}

// CartService defines operations on the caller's cart.
type CartService interface {
	Get(ctx context.Context, userID string) (*model.CartResponse, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*model.CartResponse, error)
	UpdateQuantity(ctx context.Context, userID, productID string, delta int) (*model.CartResponse, error)
	RemoveItem(ctx context.Context, userID, productID string) (*model.CartResponse, error)
	Clear(ctx context.Context, userID string) error

	// Lines returns a snapshot of the cart lines for order creation.
	Lines(ctx context.Context, userID string) ([]model.CartLine, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder turns a cart snapshot into a pending order. Retrying with
	// the same idempotency key returns the original order.
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error)

	// GetByID retrieves an order with its line items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser lists a user's orders with their line items, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// ListByStatus lists orders in a status older than the given age.
	ListByStatus(ctx context.Context, status model.OrderStatus, olderThan time.Duration, limit int) ([]model.Order, error)
}

// PaymentService drives an order through the payment gateway.
type PaymentService interface {
	// CreatePaymentSession prepares a gateway order for a pending order.
	CreatePaymentSession(ctx context.Context, orderID uuid.UUID, clientAmount *int64) (*model.PaymentSession, error)

	// VerifyPayment confirms a payment reported by the browser after checking its signature.
	VerifyPayment(ctx context.Context, req model.VerifyPaymentRequest) (*model.PaymentResult, error)

	// CancelPayment records that the customer closed the payment widget.
	CancelPayment(ctx context.Context, orderID uuid.UUID) (*model.PaymentResult, error)

	// HandleWebhook processes a gateway webhook given its raw body and signature header.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*model.WebhookResult, error)
}

// EventPublisher publishes order events.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event model.OrderPaidEvent) error
}

// CartClearer empties a user's cart.
type CartClearer interface {
	Clear(ctx context.Context, key string) error
}

// Recorder receives checkout metrics.
type Recorder interface {
	OrderCreated()
	PaymentSession(outcome string)
	PaymentConfirmed(source string)
	SignatureFailure(kind string)
	WebhookEvent(event, outcome string)
	ObserveGateway(d time.Duration)
}
