package domain

import (
	"strings"
	"time"
)

// ShopSettings is the free-form settings blob stored with an installed shop
type ShopSettings map[string]interface{}

// Shop represents an installed Shopify shop
type Shop struct {
	ID          string       `json:"id" bson:"_id"`
	Domain      string       `json:"domain" bson:"domain"`
	AccessToken string       `json:"-" bson:"access_token"` // Offline token, encrypted at rest
	Scopes      []string     `json:"scopes" bson:"scopes"`
	Active      bool         `json:"active" bson:"active"`
	Settings    ShopSettings `json:"settings" bson:"settings"`
	InstalledAt time.Time    `json:"installed_at" bson:"installed_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// NormalizeShopDomain trims and lowercases a shop domain
func NormalizeShopDomain(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// IsInstalled reports whether the shop is active and holds an offline token
func (s *Shop) IsInstalled() bool {
	return s != nil && s.Active && s.AccessToken != ""
}

// WebhookSubscription records a webhook registered with Shopify for a shop
type WebhookSubscription struct {
	ID         string    `json:"id" bson:"_id"`
	ShopDomain string    `json:"shop_domain" bson:"shop_domain"`
	Topic      string    `json:"topic" bson:"topic"`
	WebhookID  int64     `json:"webhook_id" bson:"webhook_id"`
	Address    string    `json:"address" bson:"address"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
