package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const (
	// HeaderWebhookSignature carries the gateway's HMAC of the raw body.
	HeaderWebhookSignature = "X-Razorpay-Signature"

	maxWebhookBytes = 256 << 10
)

// WebhookHandler receives gateway webhooks.
type WebhookHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(payments service.PaymentService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		logger:   logger.With().Str("handler", "webhook").Logger(),
	}
}

type webhookResponse struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
}

// Handle handles POST /api/payment-webhook. The body is read raw because
// the signature covers the exact bytes the gateway sent.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeMalformedPayload, "payload too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeMalformedPayload, "could not read body", h.logger)
		return
	}

	result, err := h.payments.HandleWebhook(r.Context(), body, r.Header.Get(HeaderWebhookSignature))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug().
		Str("event", result.Event).
		Str("outcome", result.Outcome).
		Msg("webhook processed")
	writeJSON(w, http.StatusOK, webhookResponse{Status: "ok", Outcome: result.Outcome})
}
