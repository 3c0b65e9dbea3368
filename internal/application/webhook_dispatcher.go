package application

import (
	"context"
	"fmt"
	"sync"

	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events for the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes webhook events to registered handlers.
// Each event is handled in its own goroutine, detached from the delivering request.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers []WebhookHandler
	inflight sync.WaitGroup
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers are tried in registration order.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.mu.Lock()
	d.handlers = append(d.handlers, handler)
	d.mu.Unlock()
}

func (d *WebhookDispatcher) handlerFor(topic string) WebhookHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, h := range d.handlers {
		if h.CanHandle(topic) {
			return h
		}
	}
	return nil
}

// Dispatch starts handling the event and returns immediately.
// It reports false when no handler accepts the topic.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) bool {
	event.Topic = domain.NormalizeTopic(event.Topic)

	handler := d.handlerFor(event.Topic)
	if handler == nil {
		d.logger.Warn().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("No handler registered for webhook topic")
		return false
	}

	detached := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.run(detached, handler, event)
	}()
	return true
}

func (d *WebhookDispatcher) run(ctx context.Context, handler WebhookHandler, event *domain.WebhookEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().
				Str("topic", event.Topic).
				Str("shop", event.Shop).
				Str("panic", fmt.Sprint(r)).
				Msg("Webhook handler panicked")
		}
	}()

	if err := handler.Handle(ctx, event); err != nil {
		d.logger.Error().
			Err(err).
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Msg("Failed to handle webhook event")
	}
}

// Wait blocks until all dispatched handlers have returned
func (d *WebhookDispatcher) Wait() {
	d.inflight.Wait()
}
