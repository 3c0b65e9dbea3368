package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookManager registers the app's webhook subscriptions with Shopify
type WebhookManager struct {
	client           ports.ShopifyClient
	subscriptionRepo ports.WebhookSubscriptionRepository
	logger           zerolog.Logger
	address          string
}

// NewWebhookManager creates a webhook manager delivering to address
func NewWebhookManager(
	client ports.ShopifyClient,
	subscriptionRepo ports.WebhookSubscriptionRepository,
	logger zerolog.Logger,
	address string,
) *WebhookManager {
	return &WebhookManager{
		client:           client,
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
		address:          address,
	}
}

// DefaultTopics returns the topics every installed shop is subscribed to.
// The mandatory privacy topics are configured in the app settings, not per shop.
func (m *WebhookManager) DefaultTopics() []string {
	return []string{
		domain.TopicAppUninstalled,
		domain.TopicOrdersCreate,
	}
}

// EnsureSubscriptions creates the default subscriptions the shop does not have yet.
// Subscriptions for a default topic pointing at another address are removed.
func (m *WebhookManager) EnsureSubscriptions(ctx context.Context, shop string, accessToken string) error {
	existing, err := m.client.ListWebhooks(ctx, shop, accessToken)
	if err != nil {
		return fmt.Errorf("failed to list webhooks: %w", err)
	}

	defaults := make(map[string]bool)
	for _, topic := range m.DefaultTopics() {
		defaults[topic] = true
	}

	var errs []error
	registered := make(map[string]bool, len(existing))
	for _, webhook := range existing {
		if webhook.Address == m.address {
			registered[webhook.Topic] = true
			continue
		}
		if !defaults[webhook.Topic] {
			continue
		}

		if err := m.client.DeleteWebhook(ctx, shop, accessToken, int64(webhook.Id)); err != nil {
			m.logger.Warn().Err(err).Str("shop", shop).Str("topic", webhook.Topic).Str("address", webhook.Address).Msg("Failed to remove stale webhook")
			errs = append(errs, fmt.Errorf("remove %s: %w", webhook.Topic, err))
			continue
		}
		m.logger.Info().Str("shop", shop).Str("topic", webhook.Topic).Str("address", webhook.Address).Msg("Removed stale webhook")
	}

	for _, topic := range m.DefaultTopics() {
		if registered[topic] {
			continue
		}

		webhook, err := m.client.CreateWebhook(ctx, shop, accessToken, topic, m.address)
		if err != nil {
			m.logger.Warn().Err(err).Str("shop", shop).Str("topic", topic).Msg("Failed to register webhook")
			errs = append(errs, fmt.Errorf("%s: %w", topic, err))
			continue
		}

		if m.subscriptionRepo != nil {
			sub := &domain.WebhookSubscription{
				ShopDomain: shop,
				Topic:      topic,
				WebhookID:  int64(webhook.Id),
				Address:    m.address,
				CreatedAt:  time.Now().UTC(),
			}
			if err := m.subscriptionRepo.SaveWebhookSubscription(ctx, sub); err != nil {
				m.logger.Warn().Err(err).Str("shop", shop).Str("topic", topic).Msg("Failed to record webhook subscription")
			}
		}

		m.logger.Info().Str("shop", shop).Str("topic", topic).Msg("Registered webhook")
	}

	return errors.Join(errs...)
}
