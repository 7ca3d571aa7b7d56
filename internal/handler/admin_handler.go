package handler

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler serves operator endpoints behind the admin API key.
type AdminHandler struct {
	orders service.OrderService
	logger zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(orders service.OrderService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		logger: logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders?status=pending&olderThan=30m&limit=50.
// It lists orders stuck in a status, typically pending orders whose payment
// never reported back.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := model.OrderStatusPending
	if s := q.Get("status"); s != "" {
		status = model.OrderStatus(s)
	}

	var olderThan time.Duration
	if s := q.Get("olderThan"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid olderThan parameter", h.logger)
			return
		}
		olderThan = d
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid limit parameter", h.logger)
			return
		}
		limit = n
	}

	orders, err := h.orders.ListByStatus(r.Context(), status, olderThan, limit)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}
