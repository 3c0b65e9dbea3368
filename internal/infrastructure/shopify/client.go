package shopify

import (
	"context"
	"fmt"
	"net/http"

	"shopify-variant-cleanup/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// ClientConfig holds the settings shared by every shop-scoped go-shopify client
type ClientConfig struct {
	APIKey     string
	APISecret  string
	APIVersion string
	Retries    int
	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

type client struct {
	app    goshopify.App
	config ClientConfig
	logger zerolog.Logger
}

// NewClient creates a new Shopify REST client adapter
func NewClient(config ClientConfig, logger zerolog.Logger) ports.ShopifyClient {
	return &client{
		app:    NewApp(config),
		config: config,
		logger: logger,
	}
}

// NewApp builds the go-shopify app credentials
func NewApp(config ClientConfig) goshopify.App {
	return goshopify.App{
		ApiKey:    config.APIKey,
		ApiSecret: config.APISecret,
	}
}

// newShopClient is a helper to create a goshopify client for one shop
func newShopClient(app goshopify.App, config ClientConfig, logger zerolog.Logger, shopDomain string, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{
		goshopify.WithLogger(&leveledLogger{logger: logger.With().Str("shop", shopDomain).Logger()}),
	}
	if config.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(config.APIVersion))
	}
	if config.Retries > 0 {
		opts = append(opts, goshopify.WithRetry(config.Retries))
	}
	if config.HTTPClient != nil {
		opts = append(opts, goshopify.WithHTTPClient(config.HTTPClient))
	}

	client, err := goshopify.NewClient(app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	return newShopClient(c.app, c.config, c.logger, shopDomain, accessToken)
}

// Shop API

func (c *client) GetShop(ctx context.Context, shopDomain string, accessToken string) (*goshopify.Shop, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	shop, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}

// Webhook API

func (c *client) CreateWebhook(ctx context.Context, shopDomain string, accessToken string, topic string, address string) (*goshopify.Webhook, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhook := goshopify.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}
	created, err := client.Webhook.Create(ctx, webhook)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook: %w", err)
	}
	return created, nil
}

func (c *client) ListWebhooks(ctx context.Context, shopDomain string, accessToken string) ([]goshopify.Webhook, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	webhooks, err := client.Webhook.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	return webhooks, nil
}

func (c *client) DeleteWebhook(ctx context.Context, shopDomain string, accessToken string, webhookID int64) error {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	err = client.Webhook.Delete(ctx, uint64(webhookID))
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// leveledLogger routes go-shopify's internal logging through zerolog
type leveledLogger struct {
	logger zerolog.Logger
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
