package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/archive"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// archiveTimeout bounds evidence uploads so they never hold up a response.
	archiveTimeout = 5 * time.Second

	// sideEffectTimeout bounds the cart clear and order.paid publish that
	// follow a won pending to paid transition.
	sideEffectTimeout = 10 * time.Second
)

// PaymentConfig holds the gateway credentials the payment service needs.
// KeyID is publishable; the secrets never leave the server.
type PaymentConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	carts     CartClearer
	publisher EventPublisher
	archiver  archive.Archiver
	recorder  Recorder
	cfg       PaymentConfig
	now       func() time.Time
	logger    zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	carts CartClearer,
	publisher EventPublisher,
	archiver archive.Archiver,
	recorder Recorder,
	cfg PaymentConfig,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		carts:     carts,
		publisher: publisher,
		archiver:  archiver,
		recorder:  recorder,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// CreatePaymentSession prepares a gateway order for a pending order. A
// retry reuses the gateway order already bound to the order.
func (s *paymentService) CreatePaymentSession(ctx context.Context, orderID uuid.UUID, clientAmount *int64) (*model.PaymentSession, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.OrderStatusPending {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Msg("payment session requested for order that is not pending")
		return nil, model.ErrOrderNotPayable
	}

	amount := payment.ToMinorUnits(order.Total, order.Currency)
	if clientAmount != nil && *clientAmount != amount {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Int64("client_amount", *clientAmount).
			Int64("amount", amount).
			Msg("client amount does not match order total")
		return nil, model.ErrAmountMismatch
	}

	if order.GatewayOrderID != nil {
		s.recorder.PaymentSession(metrics.SessionReused)
		return s.session(order, *order.GatewayOrderID, amount), nil
	}

	start := time.Now()
	gwOrder, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   amount,
		Currency: order.Currency,
		Receipt:  payment.Receipt(order.ID.String()),
		Notes:    map[string]string{payment.NoteOrderID: order.ID.String()},
	})
	s.recorder.ObserveGateway(time.Since(start))
	if err != nil {
		s.recorder.PaymentSession(metrics.SessionFailed)
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create gateway order")
		return nil, model.NewPaymentInitError(err)
	}

	bound, err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, gwOrder.ID)
	if err != nil {
		s.recorder.PaymentSession(metrics.SessionFailed)
		return nil, model.NewPaymentInitError(err)
	}
	if !bound {
		// another request bound a gateway order first, or the order moved on
		current, err := s.loadOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current.Status != model.OrderStatusPending {
			return nil, model.ErrOrderNotPayable
		}
		if current.GatewayOrderID == nil {
			s.recorder.PaymentSession(metrics.SessionFailed)
			return nil, model.NewPaymentInitError(errors.New("gateway order was not bound to the order"))
		}
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("discarded_gateway_order_id", gwOrder.ID).
			Str("gateway_order_id", *current.GatewayOrderID).
			Msg("concurrent session request already bound a gateway order")
		s.recorder.PaymentSession(metrics.SessionReused)
		return s.session(current, *current.GatewayOrderID, amount), nil
	}

	s.recorder.PaymentSession(metrics.SessionCreated)
	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("gateway_order_id", gwOrder.ID).
		Int64("amount", amount).
		Msg("payment session created")

	return s.session(order, gwOrder.ID, amount), nil
}

func (s *paymentService) session(order *model.Order, gatewayOrderID string, amount int64) *model.PaymentSession {
	return &model.PaymentSession{
		GatewaySessionID: gatewayOrderID,
		Amount:           amount,
		Currency:         order.Currency,
		OrderID:          order.ID,
		KeyID:            s.cfg.KeyID,
	}
}

// VerifyPayment checks the callback signature and marks the order paid.
func (s *paymentService) VerifyPayment(ctx context.Context, req model.VerifyPaymentRequest) (*model.PaymentResult, error) {
	if !payment.VerifyPaymentSignature(s.cfg.KeySecret, req.GatewayOrderID, req.PaymentID, req.Signature) {
		s.recorder.SignatureFailure(metrics.SignatureCallback)
		s.logger.Error().
			Str("gateway_order_id", req.GatewayOrderID).
			Str("payment_id", req.PaymentID).
			Msg("payment signature verification failed")
		s.archiveEvidence(ctx, archive.Evidence{
			Kind:           archive.KindCallback,
			GatewayOrderID: req.GatewayOrderID,
			PaymentID:      req.PaymentID,
			Signature:      req.Signature,
		})
		return nil, model.ErrSignatureInvalid
	}

	order, err := s.orderRepo.GetByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Error().
			Str("gateway_order_id", req.GatewayOrderID).
			Str("payment_id", req.PaymentID).
			Msg("verified payment for unknown gateway order")
		return nil, model.ErrOrderNotFound
	}

	status, _, err := s.markPaid(ctx, order, req.PaymentID, model.PaymentSourceCallback)
	if err != nil {
		return nil, err
	}

	return &model.PaymentResult{OrderID: order.ID, Status: status}, nil
}

// CancelPayment acknowledges a dismissed payment widget. The order stays
// pending so the customer can retry.
func (s *paymentService) CancelPayment(ctx context.Context, orderID uuid.UUID) (*model.PaymentResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &model.PaymentResult{OrderID: order.ID, Status: order.Status}
	if order.Status == model.OrderStatusPending {
		result.Cancelled = true
		s.logger.Info().Str("order_id", order.ID.String()).Msg("payment dismissed by customer")
	}
	return result, nil
}

// HandleWebhook verifies and applies a gateway webhook.
func (s *paymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*model.WebhookResult, error) {
	if !payment.VerifyWebhookSignature(s.cfg.WebhookSecret, rawBody, signature) {
		s.recorder.SignatureFailure(metrics.SignatureWebhook)
		s.logger.Warn().
			Int("body_bytes", len(rawBody)).
			Bool("signature_present", signature != "").
			Msg("webhook signature verification failed")
		s.archiveEvidence(ctx, archive.Evidence{
			Kind:      archive.KindWebhook,
			Signature: signature,
			Body:      rawBody,
		})
		return nil, model.ErrWebhookSignatureInvalid
	}

	event, err := payment.ParseWebhookEvent(rawBody)
	if err != nil {
		s.logger.Error().Err(err).Msg("malformed webhook payload")
		return nil, &model.DomainError{
			Kind:    model.KindBadRequest,
			Code:    model.ErrCodeMalformedPayload,
			Message: model.ErrMalformedPayload.Message,
			Err:     err,
		}
	}

	result, err := s.applyWebhook(ctx, event)
	if err != nil {
		return nil, err
	}

	s.recorder.WebhookEvent(event.Event, result.Outcome)
	return result, nil
}

func (s *paymentService) applyWebhook(ctx context.Context, event *payment.WebhookEvent) (*model.WebhookResult, error) {
	result := &model.WebhookResult{Event: event.Event}
	log := s.logger.With().
		Str("event", event.Event).
		Str("gateway_order_id", event.GatewayOrderID()).
		Str("payment_id", event.PaymentID()).
		Logger()

	if !event.ConfirmsPayment() {
		log.Debug().Msg("ignoring webhook event")
		result.Outcome = model.WebhookIgnored
		return result, nil
	}

	order, err := s.resolveWebhookOrder(ctx, event)
	if err != nil {
		return nil, err
	}
	if order == nil {
		log.Warn().Str("order_ref", event.LocalOrderID()).Msg("webhook for unknown order")
		result.Outcome = model.WebhookUnknownOrder
		return result, nil
	}
	result.OrderID = &order.ID

	if gw := event.GatewayOrderID(); gw != "" && order.GatewayOrderID != nil && *order.GatewayOrderID != gw {
		log.Error().
			Str("order_id", order.ID.String()).
			Str("bound_gateway_order_id", *order.GatewayOrderID).
			Msg("webhook gateway order does not match the order")
		result.Outcome = model.WebhookOrderMismatch
		return result, nil
	}

	if event.Payload.Payment != nil {
		paid := event.Payload.Payment.Entity.Amount
		if want := payment.ToMinorUnits(order.Total, order.Currency); paid != 0 && paid != want {
			log.Error().
				Str("order_id", order.ID.String()).
				Int64("paid_amount", paid).
				Int64("order_amount", want).
				Msg("webhook amount does not match order total")
			result.Outcome = model.WebhookAmountMismatch
			return result, nil
		}
	}

	_, won, err := s.markPaid(ctx, order, event.PaymentID(), model.PaymentSourceWebhook)
	switch {
	case errors.Is(err, model.ErrOrderNotPayable):
		result.Outcome = model.WebhookNotPayable
		return result, nil
	case err != nil:
		return nil, err
	case won:
		result.Outcome = model.WebhookPaid
	default:
		result.Outcome = model.WebhookAlreadyPaid
	}
	return result, nil
}

// resolveWebhookOrder finds the order from the notes attached at gateway
// order creation, falling back to the gateway order id.
func (s *paymentService) resolveWebhookOrder(ctx context.Context, event *payment.WebhookEvent) (*model.Order, error) {
	if ref := event.LocalOrderID(); ref != "" {
		if id, err := uuid.Parse(ref); err == nil {
			order, err := s.orderRepo.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to get order: %w", err)
			}
			if order != nil {
				return order, nil
			}
		}
	}

	if gw := event.GatewayOrderID(); gw != "" {
		order, err := s.orderRepo.GetByGatewayOrderID(ctx, gw)
		if err != nil {
			return nil, fmt.Errorf("failed to get order: %w", err)
		}
		return order, nil
	}

	return nil, nil
}

// markPaid moves a pending order to paid. Only the caller whose conditional
// update succeeds runs the side effects; everyone else sees the paid order.
// It returns the resulting status and whether this call won.
func (s *paymentService) markPaid(ctx context.Context, order *model.Order, paymentID string, source model.PaymentSource) (model.OrderStatus, bool, error) {
	switch order.Status {
	case model.OrderStatusPaid:
		return model.OrderStatusPaid, false, nil
	case model.OrderStatusPending:
	default:
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Str("source", string(source)).
			Msg("payment confirmed for order that is not payable")
		return order.Status, false, model.ErrOrderNotPayable
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, model.StatusTransition{
		OrderID:   order.ID,
		From:      model.OrderStatusPending,
		To:        model.OrderStatusPaid,
		PaymentID: paymentID,
		Source:    source,
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	if !applied {
		current, err := s.loadOrder(ctx, order.ID)
		if err != nil {
			return "", false, err
		}
		if current.Status == model.OrderStatusPaid {
			s.logger.Debug().
				Str("order_id", order.ID.String()).
				Str("source", string(source)).
				Msg("order already paid")
			return model.OrderStatusPaid, false, nil
		}
		return current.Status, false, model.ErrOrderNotPayable
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_id", paymentID).
		Str("source", string(source)).
		Msg("order paid")
	s.recorder.PaymentConfirmed(string(source))

	// The transition is committed and no other caller will repeat these, so
	// they must survive the caller going away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.carts.Clear(ctx, order.UserID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to clear cart after payment")
	}

	event := model.OrderPaidEvent{
		OrderID:   order.ID.String(),
		UserID:    order.UserID,
		PaymentID: paymentID,
		Total:     order.Total,
		Currency:  order.Currency,
		Source:    source,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order paid event")
	}

	return model.OrderStatusPaid, true, nil
}

func (s *paymentService) loadOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *paymentService) archiveEvidence(ctx context.Context, ev archive.Evidence) {
	ev = ev.Capped()
	ev.ReceivedAt = s.now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := s.archiver.Archive(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("kind", ev.Kind).Msg("failed to archive signature evidence")
	}
}
