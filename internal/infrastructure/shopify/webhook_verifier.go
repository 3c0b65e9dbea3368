package shopify

import (
	"net/http"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 signature of webhook deliveries
type WebhookVerifier struct {
	app goshopify.App
}

// NewWebhookVerifier creates a verifier for the app's shared secret
func NewWebhookVerifier(apiKey, apiSecret string) *WebhookVerifier {
	return &WebhookVerifier{
		app: goshopify.App{ApiKey: apiKey, ApiSecret: apiSecret},
	}
}

// Verify reports whether the request carries a valid signature.
// The request body is left readable.
func (v *WebhookVerifier) Verify(r *http.Request) bool {
	if r.Header.Get("X-Shopify-Hmac-Sha256") == "" {
		return false
	}
	return v.app.VerifyWebhookRequest(r)
}
