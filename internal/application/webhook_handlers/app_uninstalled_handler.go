package webhook_handlers

import (
	"context"

	"shopify-variant-cleanup/internal/application"
	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger      zerolog.Logger
	shopService *application.ShopService
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, shopService *application.ShopService) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:      logger,
		shopService: shopService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle evicts the shop from the active registry and purges its persisted data.
// The payload is not read; the shop comes from the delivery headers.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Msg("Shop uninstalled app")

	return h.shopService.Uninstall(ctx, event.Shop)
}
