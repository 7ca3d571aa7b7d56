package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *RazorpayClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewRazorpayClient(config.GatewayConfig{
		BaseURL:   server.URL,
		KeyID:     "rzp_test_key",
		KeySecret: "secret",
		Timeout:   5,
	}, zerolog.Nop())
}

func sampleRequest() OrderRequest {
	return OrderRequest{
		Amount:   58600,
		Currency: "INR",
		Receipt:  "order_abc",
		Notes:    map[string]string{NoteOrderID: "abc"},
	}
}

func TestRazorpayClient_CreateOrder_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(58600), req.Amount)
		assert.Equal(t, "order_abc", req.Receipt)
		assert.Equal(t, "abc", req.Notes[NoteOrderID])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_Gw1","entity":"order","amount":58600,"currency":"INR","receipt":"order_abc","status":"created"}`))
	})

	order, err := client.CreateOrder(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "order_Gw1", order.ID)
	assert.Equal(t, int64(58600), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestRazorpayClient_CreateOrder_InvalidResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>`},
		{name: "wrong entity", body: `{"id":"x","entity":"payment","amount":58600,"currency":"INR"}`},
		{name: "missing id", body: `{"entity":"order","amount":58600,"currency":"INR"}`},
		{name: "amount mismatch", body: `{"id":"x","entity":"order","amount":100,"currency":"INR"}`},
		{name: "currency mismatch", body: `{"id":"x","entity":"order","amount":58600,"currency":"USD"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			order, err := client.CreateOrder(context.Background(), sampleRequest())

			assert.Nil(t, order)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestRazorpayClient_CreateOrder_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	})

	_, err := client.CreateOrder(context.Background(), sampleRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
	assert.False(t, apiErr.Temporary())
}

func TestRazorpayClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := client.CreateOrder(context.Background(), sampleRequest())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.Temporary())
	}

	_, err := client.CreateOrder(context.Background(), sampleRequest())

	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(5), calls.Load())
}

func TestRazorpayClient_BreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	for i := 0; i < 7; i++ {
		_, err := client.CreateOrder(context.Background(), sampleRequest())
		require.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}
	assert.Equal(t, int32(7), calls.Load())
}

func TestRazorpayClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CreateOrder(ctx, sampleRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
