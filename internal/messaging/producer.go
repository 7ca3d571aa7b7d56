// Package messaging publishes order lifecycle events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// EventTypeHeader names the header that carries the event type.
const EventTypeHeader = "event-type"

// EventOrderPaid is the event type of model.OrderPaidEvent.
const EventOrderPaid = "order.paid"

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes JSON events to a single topic.
type Producer struct {
	writer messageWriter
	topic  string
	logger zerolog.Logger
}

// NewProducer creates a producer for topic on the given brokers.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
	}, topic, logger)
}

func newProducer(w messageWriter, topic string, logger zerolog.Logger) *Producer {
	return &Producer{
		writer: w,
		topic:  topic,
		logger: logger.With().Str("component", "producer").Str("topic", topic).Logger(),
	}
}

// Publish writes event under key. Messages with the same key land on the
// same partition, so per-order events stay ordered.
func (p *Producer) Publish(ctx context.Context, key, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).Str("key", key).Str("event_type", eventType).Msg("failed to publish event")
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	p.logger.Debug().Str("key", key).Str("event_type", eventType).Msg("event published")
	return nil
}

// PublishOrderPaid publishes the event that triggers the customer's thank-you email.
func (p *Producer) PublishOrderPaid(ctx context.Context, event model.OrderPaidEvent) error {
	return p.Publish(ctx, event.OrderID, EventOrderPaid, event)
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of sending them. It stands in for Kafka
// when publishing is disabled.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "log_publisher").Logger()}
}

func (p *LogPublisher) PublishOrderPaid(_ context.Context, event model.OrderPaidEvent) error {
	p.logger.Info().
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("payment_id", event.PaymentID).
		Str("source", string(event.Source)).
		Msg("order paid")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
