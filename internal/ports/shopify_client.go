package ports

import (
	"context"

	"shopify-variant-cleanup/internal/domain"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

// ShopifyClient defines the REST operations used outside the variant pipeline
type ShopifyClient interface {
	// Shop API
	GetShop(ctx context.Context, shop string, accessToken string) (*shopify.Shop, error)

	// Webhook API
	CreateWebhook(ctx context.Context, shop string, accessToken string, topic string, address string) (*shopify.Webhook, error)
	ListWebhooks(ctx context.Context, shop string, accessToken string) ([]shopify.Webhook, error)
	DeleteWebhook(ctx context.Context, shop string, accessToken string, webhookID int64) error
}

// VariantAdmin is an Admin GraphQL client authenticated for one shop
type VariantAdmin interface {
	// FetchVariants reads all requested variants in one batched request
	FetchVariants(ctx context.Context, ids []string) ([]domain.VariantRecord, error)
	DeleteVariant(ctx context.Context, variantID string) (*domain.MutationResult, error)
	// DeleteVariantWithImage deletes the variant and its product image in a single request
	DeleteVariantWithImage(ctx context.Context, variantID, productID, imageID string) (*domain.MutationResult, error)
}

// VariantAdminFactory builds shop-scoped admin clients from an offline token
type VariantAdminFactory interface {
	ForShop(ctx context.Context, shop string, accessToken string) (VariantAdmin, error)
	// Evict drops any cached client for the shop
	Evict(shop string)
}

// TokenValidator checks that an offline token is accepted by Shopify
type TokenValidator interface {
	ValidateToken(ctx context.Context, shop string, accessToken string) (bool, error)
}
