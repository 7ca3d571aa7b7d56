package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWebhookHandler_Handle(t *testing.T) {
	logger := zerolog.Nop()
	body := `{"event":"payment.captured","payload":{}}`

	tests := []struct {
		name           string
		mockReturn     *model.WebhookResult
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Paid",
			mockReturn:     &model.WebhookResult{Event: "payment.captured", Outcome: model.WebhookPaid},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ok"`,
		},
		{
			name:           "Unknown order is acknowledged",
			mockReturn:     &model.WebhookResult{Event: "payment.captured", Outcome: model.WebhookUnknownOrder},
			expectedStatus: http.StatusOK,
			expectedBody:   `"outcome":"unknown_order"`,
		},
		{
			name:           "Invalid signature",
			mockError:      model.ErrWebhookSignatureInvalid,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   model.ErrCodeWebhookSignatureInvalid,
		},
		{
			name:           "Malformed payload",
			mockError:      model.ErrMalformedPayload,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   model.ErrCodeMalformedPayload,
		},
		{
			name:           "Store failure asks the gateway to retry",
			mockError:      errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			handler := NewWebhookHandler(payments, logger)

			// the service must see the exact bytes that were signed
			payments.On("HandleWebhook", mock.Anything, []byte(body), "sig-hex").Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodPost, "/api/payment-webhook", strings.NewReader(body))
			req.Header.Set(HeaderWebhookSignature, "sig-hex")
			w := httptest.NewRecorder()

			handler.Handle(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			payments.AssertExpectations(t)
		})
	}
}

func TestWebhookHandler_RejectsOversizedBody(t *testing.T) {
	payments := new(MockPaymentService)
	handler := NewWebhookHandler(payments, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/payment-webhook", strings.NewReader(strings.Repeat("x", maxWebhookBytes+1)))
	w := httptest.NewRecorder()

	handler.Handle(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	payments.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}
