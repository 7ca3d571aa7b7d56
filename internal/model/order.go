package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentSource identifies which verified path confirmed a payment.
type PaymentSource string

const (
	PaymentSourceCallback PaymentSource = "callback"
	PaymentSourceWebhook  PaymentSource = "webhook"
)

// Address is a shipping destination.
type Address struct {
	FullName string `json:"fullName,omitempty"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
}

// String formats the address as a single line, e.g. "12 MG Road, Pune, MH 411001".
func (a Address) String() string {
	parts := make([]string, 0, 3)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	tail := strings.TrimSpace(fmt.Sprintf("%s %s", a.State, a.Zip))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	GatewayOrderID  *string         `json:"gatewayOrderId,omitempty" db:"gateway_order_id"`
	UserID          string          `json:"userId" db:"user_id"`
	IdempotencyKey  string          `json:"-" db:"idempotency_key"`
	Items           []OrderLineItem `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	Shipping        decimal.Decimal `json:"shipping" db:"shipping"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Currency        string          `json:"currency" db:"currency"`
	Status          OrderStatus     `json:"status" db:"status"`
	ShippingAddress Address         `json:"shippingAddress" db:"shipping_address"`
	PaymentID       *string         `json:"paymentId,omitempty" db:"payment_id"`
	PaidVia         *PaymentSource  `json:"paidVia,omitempty" db:"paid_via"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLineItem is a snapshot of a cart line taken when the order was created.
// It does not follow later catalogue price or name changes.
type OrderLineItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

// CreateOrderRequest carries everything the order initiator needs.
// Lines is the cart snapshot; the caller loads it from the cart store.
type CreateOrderRequest struct {
	UserID          string
	IdempotencyKey  string
	ShippingAddress *Address
	Lines           []CartLine
}

// CreateOrderBody is the HTTP payload for POST /api/orders.
type CreateOrderBody struct {
	IdempotencyKey  string   `json:"idempotencyKey"`
	ShippingAddress *Address `json:"shippingAddress"`
}

// StatusTransition describes a conditional status change. It only applies
// when the stored status still equals From.
type StatusTransition struct {
	OrderID   uuid.UUID
	From      OrderStatus
	To        OrderStatus
	PaymentID string
	Source    PaymentSource
}

// OrderPaidEvent is published once per order when it first becomes paid.
type OrderPaidEvent struct {
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	PaymentID string          `json:"payment_id"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Source    PaymentSource   `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}
