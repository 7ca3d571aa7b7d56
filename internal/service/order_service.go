package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	pricing   cart.Pricing
	recorder  Recorder
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	pricing cart.Pricing,
	recorder Recorder,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		pricing:   pricing,
		recorder:  recorder,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder creates a pending order from a cart snapshot.
func (s *orderService) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	if req.UserID == "" {
		return nil, model.ErrMissingUser
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, model.ErrMissingIdempotencyKey
	}

	// a retried submission returns the order it already created
	existing, err := s.orderRepo.GetByIdempotencyKey(ctx, req.UserID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if existing != nil {
		s.logger.Info().
			Str("order_id", existing.ID.String()).
			Str("user_id", req.UserID).
			Msg("returning existing order for idempotency key")
		return existing, nil
	}

	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	order := s.buildOrder(req, key)

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.resolveDuplicate(ctx, req.UserID, key)
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.recorder.OrderCreated()
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", order.UserID).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created successfully")

	return order, nil
}

// resolveDuplicate handles a concurrent create that won the unique key race.
func (s *orderService) resolveDuplicate(ctx context.Context, userID, key string) (*model.Order, error) {
	existing, err := s.orderRepo.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("failed to create order: idempotency key conflict without order")
	}
	s.logger.Info().
		Str("order_id", existing.ID.String()).
		Msg("concurrent create resolved to existing order")
	return existing, nil
}

func (s *orderService) buildOrder(req model.CreateOrderRequest, key string) *model.Order {
	now := time.Now().UTC()
	id := uuid.New()

	items := make([]model.OrderLineItem, len(req.Lines))
	for i, line := range req.Lines {
		items[i] = model.OrderLineItem{
			ID:        uuid.New(),
			OrderID:   id,
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}

	totals := cart.ComputeTotals(req.Lines, s.pricing)

	return &model.Order{
		ID:              id,
		UserID:          req.UserID,
		IdempotencyKey:  key,
		Items:           items,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		Total:           totals.Total,
		Currency:        s.pricing.Currency,
		Status:          model.OrderStatusPending,
		ShippingAddress: *req.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// GetByID retrieves an order by its ID with its line items.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListByUser returns one page of a user's order history.
func (s *orderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.ErrMissingUser
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListByStatus lists orders in status that are older than olderThan.
func (s *orderService) ListByStatus(ctx context.Context, status model.OrderStatus, olderThan time.Duration, limit int) ([]model.Order, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if olderThan < 0 {
		olderThan = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orders, err := s.orderRepo.ListByStatus(ctx, status, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// validateOrderRequest checks the cart snapshot and shipping address.
func (s *orderService) validateOrderRequest(req model.CreateOrderRequest) error {
	if len(req.Lines) == 0 {
		return model.ErrEmptyCart
	}

	for i, line := range req.Lines {
		if line.ProductID == "" || line.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("invalid cart line")
			return model.ErrInvalidQuantity
		}
	}

	if req.ShippingAddress == nil {
		return model.ErrMissingAddress
	}
	if strings.TrimSpace(req.ShippingAddress.Street) == "" || strings.TrimSpace(req.ShippingAddress.City) == "" {
		return model.ErrIncompleteAddress
	}

	return nil
}
