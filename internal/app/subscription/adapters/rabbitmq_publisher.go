package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/meal-subscriptions/internal/app/subscription/domain"
	"go.uber.org/zap"
)

// ExchangeName is the topic exchange domain events are published to. The
// routing key is the event name, e.g. subscription.paused.
const ExchangeName = "meals.subscription.events"

var (
	_ contracts.EventPublisher = (*RabbitMQPublisher)(nil)
	_ contracts.EventPublisher = (*NoopPublisher)(nil)
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes domain events to RabbitMQ.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	log      *zap.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher dials url and declares the events exchange.
func NewRabbitMQPublisher(url string, log *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("RabbitMQ publisher connected", zap.String("exchange", ExchangeName))

	return &RabbitMQPublisher{
		conn:     conn,
		channel:  ch,
		exchange: ExchangeName,
		log:      log,
	}, nil
}

func newRabbitMQPublisherWithChannel(ch amqpChannel, log *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{channel: ch, exchange: ExchangeName, log: log}
}

// Publish sends the event envelope with the event name as routing key.
func (p *RabbitMQPublisher) Publish(ctx context.Context, event domain.Event) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,         // exchange
		envelope.EventType, // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.EventID,
			Timestamp:    envelope.OccurredAt,
			Type:         envelope.EventType,
			Body:         body,
		},
	)
	if err != nil {
		p.log.Error("failed to publish event",
			zap.String("routing_key", envelope.EventType),
			zap.String("subscription_id", envelope.AggregateID),
			zap.Error(err),
		)
		return err
	}

	p.log.Debug("event published",
		zap.String("routing_key", envelope.EventType),
		zap.String("event_id", envelope.EventID),
		zap.Int("size", len(body)),
	)
	return nil
}

// Close closes the publisher connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("error closing channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return err
		}
	}

	p.log.Info("RabbitMQ publisher closed")
	return nil
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct {
	log *zap.Logger
}

func NewNoopPublisher(log *zap.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.log.Debug("noop publish",
		zap.String("event", event.EventName()),
		zap.String("subscription_id", event.AggregateID()),
	)
	return nil
}
