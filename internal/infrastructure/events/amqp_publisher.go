package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopify-variant-cleanup/internal/config"
	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/infrastructure/pubsub"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// OutcomePublisher forwards variant deletion outcomes to a RabbitMQ topic exchange
type OutcomePublisher struct {
	conn       *amqp.Connection
	channel    amqpChannel
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

// NewOutcomePublisher connects to RabbitMQ and declares the outcome exchange
func NewOutcomePublisher(cfg config.RabbitMQConfig, logger zerolog.Logger) (*OutcomePublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := newOutcomePublisher(channel, cfg.Exchange, cfg.RoutingKey, logger)
	p.conn = conn
	return p, nil
}

func newOutcomePublisher(channel amqpChannel, exchange, routingKey string, logger zerolog.Logger) *OutcomePublisher {
	return &OutcomePublisher{
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Close closes the channel and the connection
func (p *OutcomePublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Publish sends one outcome as a persistent JSON message
func (p *OutcomePublisher) Publish(ctx context.Context, outcome *domain.DeletionOutcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    outcome.BatchID + ":" + outcome.VariantID,
		Headers: amqp.Table{
			"shop":    outcome.Shop,
			"success": outcome.Success,
		},
		Body: body,
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish outcome: %w", err)
	}
	return nil
}

// Forward publishes every outcome received on the subscription until it closes
func (p *OutcomePublisher) Forward(ctx context.Context, sub *pubsub.OutcomeChannel) {
	p.logger.Info().
		Str("exchange", p.exchange).
		Str("routingKey", p.routingKey).
		Msg("Forwarding deletion outcomes to RabbitMQ")

	for outcome := range sub.Events {
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := p.Publish(publishCtx, outcome); err != nil {
			p.logger.Error().
				Err(err).
				Str("shop", outcome.Shop).
				Str("variantId", outcome.VariantID).
				Msg("Failed to publish deletion outcome")
		}
		cancel()
	}
}
