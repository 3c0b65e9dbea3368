package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"shopify-variant-cleanup/internal/application"
	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

// ComplianceHandler handles the mandatory privacy webhooks
type ComplianceHandler struct {
	logger      zerolog.Logger
	shopService *application.ShopService
}

// NewComplianceHandler creates a new privacy compliance webhook handler
func NewComplianceHandler(logger zerolog.Logger, shopService *application.ShopService) *ComplianceHandler {
	return &ComplianceHandler{
		logger:      logger,
		shopService: shopService,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ComplianceHandler) CanHandle(topic string) bool {
	return topic == domain.TopicCustomersDataRequest ||
		topic == domain.TopicCustomersRedact ||
		topic == domain.TopicShopRedact
}

type compliancePayload struct {
	ShopDomain string `json:"shop_domain"`
	Customer   struct {
		ID int64 `json:"id"`
	} `json:"customer"`
}

// Handle processes a privacy webhook event. The app keeps no customer data,
// so only shop/redact has anything to erase.
func (h *ComplianceHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload compliancePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse compliance webhook payload: %w", err)
	}

	shop := event.Shop
	if shop == "" {
		shop = payload.ShopDomain
	}

	switch event.Topic {
	case domain.TopicCustomersDataRequest:
		h.logger.Info().Str("shop", shop).Int64("customerId", payload.Customer.ID).Msg("Customer data request: no customer data stored")
	case domain.TopicCustomersRedact:
		h.logger.Info().Str("shop", shop).Int64("customerId", payload.Customer.ID).Msg("Customer redact: no customer data stored")
	case domain.TopicShopRedact:
		h.logger.Info().Str("shop", shop).Msg("Shop redact: purging shop data")
		return h.shopService.Uninstall(ctx, shop)
	}

	return nil
}
