package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Webhook events that confirm a payment.
const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventOrderPaid         = "order.paid"
)

// Notes is the gateway's free-form key/value map. The gateway encodes an
// empty map as [] so both shapes are accepted.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.HasPrefix(trimmed, []byte("[")) {
		*n = Notes{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	out := make(Notes, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	*n = out
	return nil
}

// PaymentEntity is a payment as described in webhook payloads.
type PaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Notes    Notes  `json:"notes"`
}

// OrderEntity is a gateway order as described in webhook payloads.
type OrderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
	Notes    Notes  `json:"notes"`
}

// WebhookEvent is a decoded gateway webhook.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment,omitempty"`
		Order *struct {
			Entity OrderEntity `json:"entity"`
		} `json:"order,omitempty"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// ParseWebhookEvent decodes a webhook body. Only call it after the
// signature over the same bytes has been verified.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("failed to decode webhook: missing event name")
	}
	return &event, nil
}

// ConfirmsPayment reports whether the event means the customer has paid.
func (e *WebhookEvent) ConfirmsPayment() bool {
	switch e.Event {
	case EventPaymentAuthorized, EventPaymentCaptured, EventOrderPaid:
		return true
	}
	return false
}

// PaymentID returns the gateway payment id carried by the event, if any.
func (e *WebhookEvent) PaymentID() string {
	if e.Payload.Payment != nil {
		return e.Payload.Payment.Entity.ID
	}
	return ""
}

// GatewayOrderID returns the gateway order id carried by the event, if any.
func (e *WebhookEvent) GatewayOrderID() string {
	if e.Payload.Payment != nil && e.Payload.Payment.Entity.OrderID != "" {
		return e.Payload.Payment.Entity.OrderID
	}
	if e.Payload.Order != nil {
		return e.Payload.Order.Entity.ID
	}
	return ""
}

// LocalOrderID returns our order id from the notes attached at order creation.
func (e *WebhookEvent) LocalOrderID() string {
	for _, notes := range e.notes() {
		for _, key := range []string{NoteOrderID, "orderId"} {
			if v := notes[key]; v != "" {
				return v
			}
		}
	}
	return ""
}

func (e *WebhookEvent) notes() []Notes {
	var out []Notes
	if e.Payload.Payment != nil {
		out = append(out, e.Payload.Payment.Entity.Notes)
	}
	if e.Payload.Order != nil {
		out = append(out, e.Payload.Order.Entity.Notes)
	}
	return out
}

// NoteOrderID is the notes key under which our order id is sent to the gateway.
const NoteOrderID = "order_id"

// Receipt returns the gateway receipt for an order id.
func Receipt(orderID string) string {
	return "order_" + orderID
}
