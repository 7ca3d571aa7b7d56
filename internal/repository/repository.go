package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// Create inserts a product. Returns ErrDuplicate if the ID is taken.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces a product's editable fields. Returns false when it does not exist.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete removes a product. Returns false when it did not exist.
	Delete(ctx context.Context, id string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts an order header within the provided transaction.
	// Returns ErrDuplicate if the user already has an order with the same idempotency key.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's line items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) error

	// GetByID retrieves an order with its items. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByGatewayOrderID retrieves the order bound to a gateway order. Returns nil, nil when absent.
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)

	// GetByIdempotencyKey retrieves a user's order by its idempotency key. Returns nil, nil when absent.
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error)

	// SetGatewayOrderID binds a gateway order to a pending order that has none yet.
	// Returns false when the order already had one or is no longer pending.
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) (bool, error)

	// UpdateStatus applies a transition only if the stored status still equals
	// t.From. It reports whether this call performed the transition.
	UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error)

	// ListByUser lists a user's orders with their items, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// ListByStatus lists order headers in a status created before the cutoff, oldest first.
	ListByStatus(ctx context.Context, status model.OrderStatus, createdBefore time.Time, limit int) ([]model.Order, error)
}
