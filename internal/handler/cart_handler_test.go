package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cartResponse(quantity int) *model.CartResponse {
	return &model.CartResponse{
		Lines:    []model.CartLine{{ProductID: "P001", Name: "Mug", UnitPrice: decimal.NewFromInt(100), Quantity: quantity}},
		Totals:   model.Totals{Subtotal: decimal.NewFromInt(int64(100 * quantity))},
		Currency: "INR",
	}
}

func TestCartHandler_AddItem(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		userID         string
		body           any
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			userID:         "user-1",
			body:           model.AddCartItemRequest{ProductID: "P001", Quantity: 2},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Unknown product",
			userID:         "user-1",
			body:           model.AddCartItemRequest{ProductID: "P001", Quantity: 2},
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Zero quantity",
			userID:         "user-1",
			body:           map[string]any{"productId": "P001", "quantity": 0},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Anonymous caller",
			body:           model.AddCartItemRequest{ProductID: "P001", Quantity: 2},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := new(MockCartService)
			handler := NewCartHandler(carts, logger)

			if tt.expectService {
				var ret *model.CartResponse
				if tt.mockError == nil {
					ret = cartResponse(2)
				}
				carts.On("AddItem", mock.Anything, "user-1", "P001", 2).Return(ret, tt.mockError)
			}

			w := httptest.NewRecorder()
			handler.AddItem(w, newRequest(t, http.MethodPost, "/api/cart/items", tt.body, tt.userID))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var got model.CartResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, 2, got.Lines[0].Quantity)
				assert.Equal(t, "INR", got.Currency)
			}
			carts.AssertExpectations(t)
		})
	}
}

func TestCartHandler_UpdateRemoveClear(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Update", func(t *testing.T) {
		carts := new(MockCartService)
		carts.On("UpdateQuantity", mock.Anything, "user-1", "P001", -1).Return(cartResponse(1), nil)

		req := newRequest(t, http.MethodPatch, "/api/cart/items/P001", model.UpdateCartItemRequest{Delta: -1}, "user-1")
		req.SetPathValue("productId", "P001")
		w := httptest.NewRecorder()

		NewCartHandler(carts, logger).UpdateItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		carts.AssertExpectations(t)
	})

	t.Run("Remove", func(t *testing.T) {
		carts := new(MockCartService)
		carts.On("RemoveItem", mock.Anything, "user-1", "P001").Return(&model.CartResponse{Lines: []model.CartLine{}}, nil)

		req := newRequest(t, http.MethodDelete, "/api/cart/items/P001", nil, "user-1")
		req.SetPathValue("productId", "P001")
		w := httptest.NewRecorder()

		NewCartHandler(carts, logger).RemoveItem(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		carts.AssertExpectations(t)
	})

	t.Run("Clear", func(t *testing.T) {
		carts := new(MockCartService)
		carts.On("Clear", mock.Anything, "user-1").Return(nil)

		w := httptest.NewRecorder()
		NewCartHandler(carts, logger).Clear(w, newRequest(t, http.MethodDelete, "/api/cart", nil, "user-1"))

		assert.Equal(t, http.StatusNoContent, w.Code)
		carts.AssertExpectations(t)
	})

	t.Run("Get", func(t *testing.T) {
		carts := new(MockCartService)
		carts.On("Get", mock.Anything, "user-1").Return(cartResponse(3), nil)

		w := httptest.NewRecorder()
		NewCartHandler(carts, logger).Get(w, newRequest(t, http.MethodGet, "/api/cart", nil, "user-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"quantity":3`)
	})
}
