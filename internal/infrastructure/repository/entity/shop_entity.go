package entity

import (
	"time"

	"shopify-variant-cleanup/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopDoc represents an installed shop in MongoDB
type MongoShopDoc struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty"`
	Domain      string                 `bson:"domain"`
	AccessToken string                 `bson:"accessToken"`
	Scopes      []string               `bson:"scopes"`
	Active      bool                   `bson:"active"`
	Settings    map[string]interface{} `bson:"settings"`
	InstalledAt time.Time              `bson:"installedAt"`
	CreatedAt   time.Time              `bson:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	settings := domain.ShopSettings(d.Settings)
	if settings == nil {
		settings = domain.ShopSettings{}
	}
	return &domain.Shop{
		ID:          d.ID.Hex(),
		Domain:      d.Domain,
		AccessToken: d.AccessToken,
		Scopes:      d.Scopes,
		Active:      d.Active,
		Settings:    settings,
		InstalledAt: d.InstalledAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoShopDocFromDomain converts a domain entity to a MongoDB document
func MongoShopDocFromDomain(shop *domain.Shop) *MongoShopDoc {
	doc := &MongoShopDoc{
		Domain:      shop.Domain,
		AccessToken: shop.AccessToken,
		Scopes:      shop.Scopes,
		Active:      shop.Active,
		Settings:    map[string]interface{}(shop.Settings),
		InstalledAt: shop.InstalledAt,
		UpdatedAt:   shop.UpdatedAt,
	}
	if doc.Settings == nil {
		doc.Settings = map[string]interface{}{}
	}

	if shop.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(shop.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}

// MongoWebhookDoc represents a logged webhook delivery in MongoDB
type MongoWebhookDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	WebhookID string             `bson:"webhookId"`
	Topic     string             `bson:"topic"`
	Shop      string             `bson:"shop"`
	Payload   string             `bson:"payload"`
	Verified  bool               `bson:"verified"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MongoWebhookDocFromDomain converts a webhook event to a MongoDB document
func MongoWebhookDocFromDomain(event *domain.WebhookEvent) *MongoWebhookDoc {
	doc := &MongoWebhookDoc{
		WebhookID: event.WebhookID,
		Topic:     event.Topic,
		Shop:      event.Shop,
		Payload:   string(event.Payload),
		Verified:  event.Verified,
		CreatedAt: event.ReceivedAt,
	}
	if event.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(event.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}

// MongoWebhookSubscriptionDoc represents a registered webhook subscription in MongoDB
type MongoWebhookSubscriptionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain string             `bson:"shopDomain"`
	Topic      string             `bson:"topic"`
	WebhookID  int64              `bson:"webhookId"`
	Address    string             `bson:"address"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoWebhookSubscriptionDoc) ToDomain() *domain.WebhookSubscription {
	return &domain.WebhookSubscription{
		ID:         d.ID.Hex(),
		ShopDomain: d.ShopDomain,
		Topic:      d.Topic,
		WebhookID:  d.WebhookID,
		Address:    d.Address,
		CreatedAt:  d.CreatedAt,
	}
}

// MongoWebhookSubscriptionDocFromDomain converts a domain entity to a MongoDB document
func MongoWebhookSubscriptionDocFromDomain(sub *domain.WebhookSubscription) *MongoWebhookSubscriptionDoc {
	return &MongoWebhookSubscriptionDoc{
		ShopDomain: sub.ShopDomain,
		Topic:      sub.Topic,
		WebhookID:  sub.WebhookID,
		Address:    sub.Address,
		CreatedAt:  sub.CreatedAt,
	}
}
