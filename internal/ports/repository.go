package ports

import (
	"context"

	"shopify-variant-cleanup/internal/domain"
)

// ShopRepository defines the persistence of installed shops and their per-shop records.
// It is the shop credential store: offline tokens live on the shop record.
type ShopRepository interface {
	// Shop operations
	SaveShop(ctx context.Context, shop *domain.Shop) error
	GetShop(ctx context.Context, domain string) (*domain.Shop, error)
	ListActiveShops(ctx context.Context) ([]*domain.Shop, error)

	// DeleteAll purges every record keyed by the shop domain
	DeleteAll(ctx context.Context, domain string) error

	// Webhook operations
	LogWebhook(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookSubscriptionRepository defines the interface for webhook subscription persistence
type WebhookSubscriptionRepository interface {
	SaveWebhookSubscription(ctx context.Context, subscription *domain.WebhookSubscription) error
	ListWebhookSubscriptions(ctx context.Context, shopDomain string) ([]*domain.WebhookSubscription, error)
}

// EncryptionService encrypts secrets stored at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// DeliveryGuard detects repeated deliveries of the same webhook
type DeliveryGuard interface {
	// FirstDelivery records the delivery id and reports whether it was seen for the first time
	FirstDelivery(ctx context.Context, webhookID string) (bool, error)
}

// OutcomePublisher receives per-variant deletion outcomes
type OutcomePublisher interface {
	Publish(outcome *domain.DeletionOutcome)
}

// PipelineMetrics records webhook and deletion counters
type PipelineMetrics interface {
	WebhookReceived(topic string, status string)
	PipelineFailed(stage string)
	VariantDeletion(kind domain.DeletionKind, success bool)
}
