package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/infrastructure/repository/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements the shop and webhook subscription repositories using MongoDB
type MongoRepository struct {
	shopsCollection         *mongo.Collection
	webhooksCollection      *mongo.Collection
	subscriptionsCollection *mongo.Collection
}

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		shopsCollection:         db.Collection("shops"),
		webhooksCollection:      db.Collection("webhook_events"),
		subscriptionsCollection: db.Collection("webhook_subscriptions"),
	}
}

// EnsureIndexes creates the indexes the repository queries rely on
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.shopsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "domain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create shops index: %w", err)
	}

	_, err = r.webhooksCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shop", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook_events index: %w", err)
	}

	_, err = r.subscriptionsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}, {Key: "topic", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook_subscriptions index: %w", err)
	}

	return nil
}

// SaveShop saves or updates a shop
func (r *MongoRepository) SaveShop(ctx context.Context, shop *domain.Shop) error {
	doc := entity.MongoShopDocFromDomain(shop)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{"$set": doc}

	_, err := r.shopsCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	return nil
}

// GetShop retrieves a shop by domain
func (r *MongoRepository) GetShop(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	filter := bson.M{"domain": shopDomain}

	err := r.shopsCollection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// ListActiveShops retrieves all shops marked active
func (r *MongoRepository) ListActiveShops(ctx context.Context) ([]*domain.Shop, error) {
	cursor, err := r.shopsCollection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer cursor.Close(ctx)

	var shops []*domain.Shop
	for cursor.Next(ctx) {
		var doc entity.MongoShopDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode shop: %w", err)
		}
		shops = append(shops, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return shops, nil
}

// DeleteAll removes the shop record, its webhook log and its subscriptions.
// Every collection is attempted even when an earlier delete fails.
func (r *MongoRepository) DeleteAll(ctx context.Context, shopDomain string) error {
	var errs []error

	if _, err := r.shopsCollection.DeleteMany(ctx, bson.M{"domain": shopDomain}); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete shop: %w", err))
	}
	if _, err := r.webhooksCollection.DeleteMany(ctx, bson.M{"shop": shopDomain}); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete webhook events: %w", err))
	}
	if _, err := r.subscriptionsCollection.DeleteMany(ctx, bson.M{"shopDomain": shopDomain}); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete webhook subscriptions: %w", err))
	}

	return errors.Join(errs...)
}

// LogWebhook logs a webhook event
func (r *MongoRepository) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	doc := entity.MongoWebhookDocFromDomain(event)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.webhooksCollection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}

	event.ID = doc.ID.Hex()
	return nil
}

// SaveWebhookSubscription saves or updates the subscription for a shop and topic
func (r *MongoRepository) SaveWebhookSubscription(ctx context.Context, sub *domain.WebhookSubscription) error {
	doc := entity.MongoWebhookSubscriptionDocFromDomain(sub)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": sub.ShopDomain, "topic": sub.Topic}
	update := bson.M{"$set": doc}

	_, err := r.subscriptionsCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save webhook subscription: %w", err)
	}

	return nil
}

// ListWebhookSubscriptions retrieves the subscriptions recorded for a shop
func (r *MongoRepository) ListWebhookSubscriptions(ctx context.Context, shopDomain string) ([]*domain.WebhookSubscription, error) {
	cursor, err := r.subscriptionsCollection.Find(ctx, bson.M{"shopDomain": shopDomain})
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoWebhookSubscriptionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode webhook subscriptions: %w", err)
	}

	subs := make([]*domain.WebhookSubscription, 0, len(docs))
	for i := range docs {
		subs = append(subs, docs[i].ToDomain())
	}
	return subs, nil
}
