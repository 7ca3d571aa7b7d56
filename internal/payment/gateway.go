package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Gateway creates orders on the payment gateway.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
}

// OrderRequest is the gateway order-creation payload. Amount is in minor units.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is the gateway's view of an order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// APIError is an error response from the gateway.
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway returned %d: %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("gateway returned %d", e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ErrInvalidResponse is returned when the gateway answers with an unexpected body.
var ErrInvalidResponse = errors.New("invalid gateway response")

const ordersPath = "/v1/orders"

// RazorpayClient calls the Razorpay orders API using HTTP basic auth with the
// key id and key secret. Calls run through a circuit breaker so a failing
// gateway is not hammered while checkouts keep retrying.
type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*GatewayOrder]
	logger     zerolog.Logger
}

// NewRazorpayClient creates a gateway client from configuration.
func NewRazorpayClient(cfg config.GatewayConfig, logger zerolog.Logger) *RazorpayClient {
	log := logger.With().Str("component", "gateway_client").Logger()

	breaker := gobreaker.NewCircuitBreaker[*GatewayOrder](gobreaker.Settings{
		Name:        "razorpay-orders",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// client errors say nothing about gateway health
			var apiErr *APIError
			return errors.As(err, &apiErr) && !apiErr.Temporary()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("gateway circuit breaker state changed")
		},
	})

	return &RazorpayClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: cfg.TimeoutDuration()},
		breaker:    breaker,
		logger:     log,
	}
}

// CreateOrder creates a gateway order and validates the echoed amount and currency.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	order, err := c.breaker.Execute(func() (*GatewayOrder, error) {
		return c.createOrder(ctx, req)
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("receipt", req.Receipt).
			Int64("amount", req.Amount).
			Msg("gateway order creation failed")
		return nil, err
	}

	c.logger.Info().
		Str("gateway_order_id", order.ID).
		Str("receipt", req.Receipt).
		Int64("amount", order.Amount).
		Msg("gateway order created")

	return order, nil
}

func (c *RazorpayClient) createOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Description = envelope.Error.Description
		}
		return nil, apiErr
	}

	var order GatewayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := validateOrder(&order, req); err != nil {
		return nil, err
	}

	return &order, nil
}

func validateOrder(order *GatewayOrder, req OrderRequest) error {
	switch {
	case order.Entity != "order":
		return fmt.Errorf("%w: unexpected entity %q", ErrInvalidResponse, order.Entity)
	case order.ID == "":
		return fmt.Errorf("%w: missing order id", ErrInvalidResponse)
	case order.Amount != req.Amount:
		return fmt.Errorf("%w: amount %d does not match requested %d", ErrInvalidResponse, order.Amount, req.Amount)
	case !strings.EqualFold(order.Currency, req.Currency):
		return fmt.Errorf("%w: currency %q does not match requested %q", ErrInvalidResponse, order.Currency, req.Currency)
	}
	return nil
}
