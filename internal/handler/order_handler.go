package handler

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderIdempotencyKey may carry the idempotency key instead of the body.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orders service.OrderService
	carts  service.CartService
	logger zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, carts service.CartService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		carts:  carts,
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders. The order is built from the caller's
// current cart; the cart itself is only cleared once payment succeeds.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var body model.CreateOrderBody
	if !decodeJSON(w, r, &body, h.logger) {
		return
	}

	key := strings.TrimSpace(body.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	}

	lines, err := h.carts.Lines(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), model.CreateOrderRequest{
		UserID:          userID,
		IdempotencyKey:  key,
		ShippingAddress: body.ShippingAddress,
		Lines:           lines,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders: the caller's order history, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	limit, offset, ok := parsePage(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(w, r.PathValue("id"), h.logger)
	if !ok {
		return
	}

	order, err := ownedOrder(r.Context(), h.orders, orderID, userID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func parseOrderID(w http.ResponseWriter, raw string, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return id, true
}

// ownedOrder loads an order and hides it from everyone but its owner.
func ownedOrder(ctx context.Context, orders service.OrderService, id uuid.UUID, userID string) (*model.Order, error) {
	order, err := orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}
