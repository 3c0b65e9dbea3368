package webhook_handlers

import (
	"context"

	"shopify-variant-cleanup/internal/application"
	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler deletes purchased variants flagged "delete after purchase"
type OrderHandler struct {
	logger      zerolog.Logger
	shopService *application.ShopService
	resolver    *application.VariantResolver
	deleter     *application.VariantDeleter
	metrics     ports.PipelineMetrics
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(
	logger zerolog.Logger,
	shopService *application.ShopService,
	resolver *application.VariantResolver,
	deleter *application.VariantDeleter,
	metrics ports.PipelineMetrics,
) *OrderHandler {
	return &OrderHandler{
		logger:      logger,
		shopService: shopService,
		resolver:    resolver,
		deleter:     deleter,
		metrics:     metrics,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == domain.TopicOrdersCreate
}

// Handle processes an order created event. Failures are logged, never returned:
// the delivery is acknowledged whatever happens downstream.
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	h.Process(ctx, event)
	return nil
}

// Process runs the pipeline and returns the started deletion batch, or nil when
// nothing was deleted. The batch is not awaited.
func (h *OrderHandler) Process(ctx context.Context, event *domain.WebhookEvent) *application.DeletionBatch {
	order, err := domain.ParseOrderEvent(event.Payload)
	if err != nil {
		h.fail("decode", event, err, "Dropping malformed order webhook payload")
		return nil
	}

	variantIDs := order.VariantIDs()
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Int64("orderId", order.ID).
		Int("lineItems", len(order.LineItems)).
		Int("variants", len(variantIDs)).
		Msg("Processing order webhook event")

	if len(variantIDs) == 0 {
		return nil
	}

	admin, err := h.shopService.AdminForShop(ctx, event.Shop)
	if err != nil {
		h.fail("credentials", event, err, "Order webhook variant delete error: no credentials for shop")
		return nil
	}

	flagged, err := h.resolver.Resolve(ctx, admin, variantIDs)
	if err != nil {
		h.fail("fetch", event, err, "Order webhook variant delete error: variant fetch failed")
		return nil
	}
	if len(flagged) == 0 {
		return nil
	}

	batch := h.deleter.Execute(ctx, admin, event.Shop, flagged)
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("batchId", batch.ID).
		Int("deletes", batch.Size()).
		Msg("Order webhook variant deletes dispatched")
	return batch
}

func (h *OrderHandler) fail(stage string, event *domain.WebhookEvent, err error, msg string) {
	if h.metrics != nil {
		h.metrics.PipelineFailed(stage)
	}
	h.logger.Error().
		Err(err).
		Str("stage", stage).
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Msg(msg)
}
