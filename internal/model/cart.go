package model

import "github.com/shopspring/decimal"

// CartLine is one product in a cart. Quantity is always at least 1;
// removing a product drops the line instead of zeroing it.
type CartLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Totals is the priced summary of a set of cart lines.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// CartResponse is the HTTP view of a cart.
type CartResponse struct {
	Lines    []CartLine `json:"lines"`
	Totals   Totals     `json:"totals"`
	Currency string     `json:"currency"`
}

// AddCartItemRequest is the payload for POST /api/cart/items.
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// UpdateCartItemRequest is the payload for PATCH /api/cart/items/{productId}.
type UpdateCartItemRequest struct {
	Delta int `json:"delta" validate:"required"`
}
