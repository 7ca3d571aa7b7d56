package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const idempotencyConstraint = "uq_orders_user_idempotency_key"

const orderColumns = `
	id, user_id, idempotency_key, gateway_order_id,
	subtotal, tax, shipping, total, currency, status,
	shipping_address_details, payment_id, paid_via,
	created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts an order header within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, idempotency_key, gateway_order_id,
			subtotal, tax, shipping, total, currency, status,
			shipping_address, shipping_address_details,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.IdempotencyKey,
		order.GatewayOrderID,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.Currency,
		string(order.Status),
		order.ShippingAddress.String(),
		order.ShippingAddress,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, idempotencyConstraint) {
			r.logger.Debug().
				Str("user_id", order.UserID).
				Msg("order with idempotency key already exists")
			return fmt.Errorf("failed to create order: %w", ErrDuplicate)
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, position, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, i, item.ProductID, item.Name, item.UnitPrice, item.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByGatewayOrderID retrieves the order bound to a gateway order.
func (r *orderRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	return r.getOne(ctx, "gateway_order_id = $1", gatewayOrderID)
}

// GetByIdempotencyKey retrieves a user's order by idempotency key.
func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	return r.getOne(ctx, "user_id = $1 AND idempotency_key = $2", userID, key)
}

func (r *orderRepository) getOne(ctx context.Context, where string, args ...any) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where

	order, err := scanOrder(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("where", where).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("where", where).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.getItems(ctx, r.pool, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) getItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderLineItem{}
	for rows.Next() {
		var item model.OrderLineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// SetGatewayOrderID binds a gateway order to a pending order that has none yet.
func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) (bool, error) {
	query := `
		UPDATE orders
		SET gateway_order_id = $2, updated_at = NOW()
		WHERE id = $1 AND gateway_order_id IS NULL AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, id, gatewayOrderID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("gateway_order_id", gatewayOrderID).
			Msg("failed to set gateway order id")
		return false, fmt.Errorf("failed to set gateway order id: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateStatus applies a compare-and-set status transition. Concurrent
// callers racing on the same transition see exactly one true.
func (r *orderRepository) UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3,
			payment_id = COALESCE(NULLIF($4, ''), payment_id),
			paid_via = COALESCE(NULLIF($5, ''), paid_via),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query, t.OrderID, string(t.From), string(t.To), t.PaymentID, string(t.Source))
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", t.OrderID.String()).
			Str("from", string(t.From)).
			Str("to", string(t.To)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	applied := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", t.OrderID.String()).
		Str("to", string(t.To)).
		Bool("applied", applied).
		Msg("order status transition attempted")

	return applied, nil
}

// ListByUser lists a user's orders, newest first. Items for the whole page
// are loaded with a single query.
func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	ids := []uuid.UUID{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Items = []model.OrderLineItem{}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.getItemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if lines, ok := items[orders[i].ID]; ok {
			orders[i].Items = lines
		}
	}

	return orders, nil
}

func (r *orderRepository) getItemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orderIDs)).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderLineItem, len(orderIDs))
	for rows.Next() {
		var item model.OrderLineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByStatus lists order headers in a status created before the cutoff.
func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus, createdBefore time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, string(status), createdBefore, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("status", string(status)).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		order   model.Order
		status  string
		paidVia *string
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.IdempotencyKey,
		&order.GatewayOrderID,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Total,
		&order.Currency,
		&status,
		&order.ShippingAddress,
		&order.PaymentID,
		&paidVia,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderStatus(status)
	if paidVia != nil {
		source := model.PaymentSource(*paidVia)
		order.PaidVia = &source
	}
	return &order, nil
}
