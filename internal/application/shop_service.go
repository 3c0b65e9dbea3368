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

// ShopService implements the application logic around installed shops.
// It depends on ports (interfaces) not concrete implementations.
type ShopService struct {
	repository    ports.ShopRepository
	encryptionSvc ports.EncryptionService
	validator     ports.TokenValidator
	admins        ports.VariantAdminFactory
	registry      *ActiveShopRegistry
	webhooks      *WebhookManager
	logger        zerolog.Logger
}

// NewShopService creates a new shop service. validator and webhooks may be nil.
func NewShopService(
	repository ports.ShopRepository,
	encryptionSvc ports.EncryptionService,
	validator ports.TokenValidator,
	admins ports.VariantAdminFactory,
	registry *ActiveShopRegistry,
	webhooks *WebhookManager,
	logger zerolog.Logger,
) *ShopService {
	return &ShopService{
		repository:    repository,
		encryptionSvc: encryptionSvc,
		validator:     validator,
		admins:        admins,
		registry:      registry,
		webhooks:      webhooks,
		logger:        logger,
	}
}

// InstallInput carries the result of a completed OAuth token exchange
type InstallInput struct {
	Shop        string
	AccessToken string
	Scopes      []string
	Settings    domain.ShopSettings
}

// Install persists a freshly authorized shop and marks it active.
// Any record left by a previous installation is overwritten.
func (s *ShopService) Install(ctx context.Context, input InstallInput) (*domain.Shop, error) {
	shopDomain := domain.NormalizeShopDomain(input.Shop)
	if shopDomain == "" {
		return nil, fmt.Errorf("shop domain is required")
	}
	if input.AccessToken == "" {
		return nil, domain.ErrNoAccessToken
	}

	if s.validator != nil {
		valid, err := s.validator.ValidateToken(ctx, shopDomain, input.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to validate access token: %w", err)
		}
		if !valid {
			return nil, fmt.Errorf("access token for %s was rejected by Shopify", shopDomain)
		}
	}

	// Encrypt access token before storage
	encryptedToken, err := s.encryptionSvc.Encrypt(input.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to encrypt access token")
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	settings := input.Settings
	if settings == nil {
		settings = domain.ShopSettings{}
	}

	now := time.Now().UTC()
	shop := &domain.Shop{
		Domain:      shopDomain,
		AccessToken: encryptedToken,
		Scopes:      input.Scopes,
		Active:      true,
		Settings:    settings,
		InstalledAt: now,
		UpdatedAt:   now,
	}
	if err := s.repository.SaveShop(ctx, shop); err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to save shop")
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}

	if s.admins != nil {
		s.admins.Evict(shopDomain)
	}
	s.registry.Add(shopDomain, settings)

	if s.webhooks != nil {
		if err := s.webhooks.EnsureSubscriptions(ctx, shopDomain, input.AccessToken); err != nil {
			// The install stands; missing subscriptions are retried on the next install
			s.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to register some webhooks")
		}
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Strs("scopes", input.Scopes).
		Msg("Shop installed")

	return shop, nil
}

// GetOfflineToken returns the decrypted offline access token of an installed shop
func (s *ShopService) GetOfflineToken(ctx context.Context, shopDomain string) (string, error) {
	shop, err := s.repository.GetShop(ctx, shopDomain)
	if err != nil {
		return "", fmt.Errorf("failed to get shop: %w", err)
	}
	if shop == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrShopNotFound, shopDomain)
	}
	if !shop.IsInstalled() {
		return "", fmt.Errorf("%w: %s", domain.ErrNoAccessToken, shopDomain)
	}

	token, err := s.encryptionSvc.Decrypt(shop.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to decrypt access token")
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// AdminForShop builds an Admin API client authenticated with the shop's offline token
func (s *ShopService) AdminForShop(ctx context.Context, shopDomain string) (ports.VariantAdmin, error) {
	token, err := s.GetOfflineToken(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	admin, err := s.admins.ForShop(ctx, shopDomain, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}
	return admin, nil
}

// Uninstall evicts the shop from the active registry, then purges its persisted data.
// The eviction is unconditional and is not rolled back when the purge fails.
func (s *ShopService) Uninstall(ctx context.Context, shopDomain string) error {
	s.registry.Remove(shopDomain)
	if s.admins != nil {
		s.admins.Evict(shopDomain)
	}

	if err := s.repository.DeleteAll(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to purge data for %s: %w", shopDomain, err)
	}

	s.logger.Info().Str("shop", shopDomain).Msg("Shop data purged")
	return nil
}

// ProcessWebhook records a webhook delivery in the event log
func (s *ShopService) ProcessWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	if err := s.repository.LogWebhook(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("topic", event.Topic).Str("shop", event.Shop).Msg("Failed to log webhook")
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	s.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Bool("verified", event.Verified).Msg("Webhook logged")
	return nil
}

// IsMissingShop reports whether err means the shop has no usable credentials
func IsMissingShop(err error) bool {
	return errors.Is(err, domain.ErrShopNotFound) || errors.Is(err, domain.ErrNoAccessToken)
}
