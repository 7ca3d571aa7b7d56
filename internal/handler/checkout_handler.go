package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles the browser side of a payment.
type CheckoutHandler struct {
	orders   service.OrderService
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(orders service.OrderService, payments service.PaymentService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		orders:   orders,
		payments: payments,
		logger:   logger.With().Str("handler", "checkout").Logger(),
	}
}

// CreatePaymentOrder handles POST /api/create-payment-order.
func (h *CheckoutHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CreatePaymentOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	orderID, ok := parseOrderID(w, req.OrderID, h.logger)
	if !ok {
		return
	}

	if _, err := ownedOrder(r.Context(), h.orders, orderID, userID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	session, err := h.payments.CreatePaymentSession(r.Context(), orderID, req.Amount)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// VerifyPayment handles POST /api/verify-payment. The signature is the
// credential, so no caller identity is required.
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPaymentRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	result, err := h.payments.VerifyPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PaymentCancelled handles POST /api/orders/{id}/payment-cancelled.
func (h *CheckoutHandler) PaymentCancelled(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	orderID, ok := parseOrderID(w, r.PathValue("id"), h.logger)
	if !ok {
		return
	}

	if _, err := ownedOrder(r.Context(), h.orders, orderID, userID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	result, err := h.payments.CancelPayment(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
