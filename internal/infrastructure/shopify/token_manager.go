package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shopify-variant-cleanup/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// TokenManager checks offline tokens against the Shopify API
type TokenManager struct {
	client ports.ShopifyClient
	logger zerolog.Logger
}

// NewTokenManager creates a new token manager
func NewTokenManager(client ports.ShopifyClient, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		client: client,
		logger: logger,
	}
}

// ValidateToken checks if a token is still valid by making a lightweight API call to Shopify.
// Shopify access tokens don't expire unless revoked. Errors other than an
// authentication failure are logged and the token is assumed valid.
func (tm *TokenManager) ValidateToken(ctx context.Context, shopDomain string, token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("token is empty")
	}
	if shopDomain == "" {
		return false, fmt.Errorf("shop domain is required for token validation")
	}

	_, err := tm.client.GetShop(ctx, shopDomain, token)
	if err != nil {
		if isAuthError(err) {
			tm.logger.Warn().
				Str("shop", shopDomain).
				Msg("Token validation failed: token is invalid or revoked")
			return false, nil
		}

		tm.logger.Warn().
			Err(err).
			Str("shop", shopDomain).
			Msg("Token validation encountered an error (assuming token is valid)")
		return true, nil
	}

	tm.logger.Debug().
		Str("shop", shopDomain).
		Msg("Token validation successful")
	return true, nil
}

func isAuthError(err error) bool {
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status == http.StatusUnauthorized || respErr.Status == http.StatusForbidden
	}

	// go-shopify does not always surface a typed error, fall back to the message
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key or access token") ||
		strings.Contains(errStr, "forbidden")
}
