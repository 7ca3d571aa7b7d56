package model

import "github.com/google/uuid"

// PaymentSession is the browser-facing half of a gateway order. It lives
// only for the checkout attempt; the gateway keeps its own copy.
type PaymentSession struct {
	GatewaySessionID string    `json:"sessionId"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	OrderID          uuid.UUID `json:"orderId"`
	KeyID            string    `json:"keyId"`
}

// CreatePaymentOrderRequest is the payload for POST /api/create-payment-order.
// Amount is optional; when present it must match the server-computed minor amount.
type CreatePaymentOrderRequest struct {
	Amount  *int64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	OrderID string `json:"orderId" validate:"required,uuid"`
}

// VerifyPaymentRequest is what the gateway widget hands the browser on success.
type VerifyPaymentRequest struct {
	PaymentID      string `json:"paymentId" validate:"required"`
	GatewayOrderID string `json:"gatewayOrderId" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

// PaymentResult reports the order state after a callback, cancellation or webhook.
type PaymentResult struct {
	OrderID   uuid.UUID   `json:"orderId"`
	Status    OrderStatus `json:"status"`
	Cancelled bool        `json:"cancelled,omitempty"`
}

// Webhook outcomes.
const (
	WebhookPaid           = "paid"
	WebhookAlreadyPaid    = "already_paid"
	WebhookIgnored        = "ignored"
	WebhookUnknownOrder   = "unknown_order"
	WebhookNotPayable     = "not_payable"
	WebhookAmountMismatch = "amount_mismatch"
	WebhookOrderMismatch  = "order_mismatch"
)

// WebhookResult reports what a verified webhook did. Every outcome is
// acknowledged to the gateway; only infrastructure errors ask it to retry.
type WebhookResult struct {
	Event   string     `json:"event"`
	Outcome string     `json:"outcome"`
	OrderID *uuid.UUID `json:"orderId,omitempty"`
}
