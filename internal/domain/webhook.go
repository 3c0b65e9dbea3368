package domain

import (
	"strings"
	"time"
)

// Webhook topics handled by the app, in the REST header form Shopify delivers
const (
	TopicAppUninstalled       = "app/uninstalled"
	TopicOrdersCreate         = "orders/create"
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
	TopicShopRedact           = "shop/redact"
)

// WebhookEvent represents an inbound webhook delivery
type WebhookEvent struct {
	ID         string    `json:"id" bson:"_id"`
	WebhookID  string    `json:"webhook_id" bson:"webhook_id"`
	Topic      string    `json:"topic" bson:"topic"`
	Shop       string    `json:"shop" bson:"shop"`
	Payload    []byte    `json:"payload" bson:"payload"`
	Verified   bool      `json:"verified" bson:"verified"`
	ReceivedAt time.Time `json:"received_at" bson:"received_at"`
}

// NormalizeTopic maps GraphQL enum topics (ORDERS_CREATE) to the REST form (orders/create).
// Topics already in REST form are lowercased and returned.
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if strings.Contains(topic, "/") {
		return strings.ToLower(topic)
	}
	lower := strings.ToLower(topic)
	// Splitting at the first underscore holds for single-word resources, which covers every handled topic
	i := strings.Index(lower, "_")
	if i < 0 {
		return lower
	}
	return lower[:i] + "/" + lower[i+1:]
}
