package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

type fakeShopRepo struct {
	mu        sync.Mutex
	shops     map[string]*domain.Shop
	events    []*domain.WebhookEvent
	deleted   []string
	deleteErr error
	listErr   error
}

func newFakeShopRepo() *fakeShopRepo {
	return &fakeShopRepo{shops: make(map[string]*domain.Shop)}
}

func (r *fakeShopRepo) SaveShop(_ context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *shop
	r.shops[shop.Domain] = &copied
	return nil
}

func (r *fakeShopRepo) GetShop(_ context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shop, ok := r.shops[shopDomain]
	if !ok {
		return nil, nil
	}
	copied := *shop
	return &copied, nil
}

func (r *fakeShopRepo) ListActiveShops(context.Context) ([]*domain.Shop, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var shops []*domain.Shop
	for _, shop := range r.shops {
		if shop.Active {
			shops = append(shops, shop)
		}
	}
	return shops, nil
}

func (r *fakeShopRepo) DeleteAll(_ context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, shopDomain)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.shops, shopDomain)
	return nil
}

func (r *fakeShopRepo) LogWebhook(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type fakeEncryption struct{}

func (fakeEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeEncryption) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, "enc:") {
		return "", errors.New("not encrypted")
	}
	return strings.TrimPrefix(ciphertext, "enc:"), nil
}

type imageDelete struct {
	variantID, productID, imageID string
}

type fakeAdmin struct {
	mu           sync.Mutex
	records      []domain.VariantRecord
	fetchErr     error
	failVariants map[string]bool
	fetchCalls   [][]string
	plainDeletes []string
	imageDeletes []imageDelete
}

func (a *fakeAdmin) FetchVariants(_ context.Context, ids []string) ([]domain.VariantRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetchCalls = append(a.fetchCalls, append([]string(nil), ids...))
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	return a.records, nil
}

func (a *fakeAdmin) DeleteVariant(ctx context.Context, variantID string) (*domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plainDeletes = append(a.plainDeletes, variantID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.failVariants[variantID] {
		return nil, fmt.Errorf("delete %s failed", variantID)
	}
	return &domain.MutationResult{Success: true, Raw: []byte(`{"productVariantDelete":{"userErrors":[]}}`)}, nil
}

func (a *fakeAdmin) DeleteVariantWithImage(ctx context.Context, variantID, productID, imageID string) (*domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.imageDeletes = append(a.imageDeletes, imageDelete{variantID, productID, imageID})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.failVariants[variantID] {
		return nil, fmt.Errorf("delete %s failed", variantID)
	}
	return &domain.MutationResult{Success: true, Raw: []byte(`{"productVariantDelete":{"userErrors":[]},"productDeleteImages":{"userErrors":[]}}`)}, nil
}

type fakeAdminFactory struct {
	mu      sync.Mutex
	admin   *fakeAdmin
	tokens  []string
	evicted []string
}

func (f *fakeAdminFactory) ForShop(_ context.Context, _ string, accessToken string) (ports.VariantAdmin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, accessToken)
	return f.admin, nil
}

func (f *fakeAdminFactory) Evict(shop string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evicted = append(f.evicted, shop)
}

type fakeValidator struct {
	valid bool
	err   error
}

func (v fakeValidator) ValidateToken(context.Context, string, string) (bool, error) {
	return v.valid, v.err
}

type fakeShopifyClient struct {
	mu        sync.Mutex
	existing  []shopify.Webhook
	createErr map[string]error
	created   []string
	deleted   []int64
	deleteErr error
	nextID    uint64
}

func (c *fakeShopifyClient) GetShop(context.Context, string, string) (*shopify.Shop, error) {
	return &shopify.Shop{}, nil
}

func (c *fakeShopifyClient) CreateWebhook(_ context.Context, _ string, _ string, topic string, address string) (*shopify.Webhook, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.createErr[topic]; err != nil {
		return nil, err
	}
	c.nextID++
	c.created = append(c.created, topic)
	return &shopify.Webhook{Id: c.nextID, Topic: topic, Address: address}, nil
}

func (c *fakeShopifyClient) ListWebhooks(context.Context, string, string) ([]shopify.Webhook, error) {
	return c.existing, nil
}

func (c *fakeShopifyClient) DeleteWebhook(_ context.Context, _ string, _ string, webhookID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, webhookID)
	return nil
}

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs []*domain.WebhookSubscription
}

func (r *fakeSubscriptionRepo) SaveWebhookSubscription(_ context.Context, sub *domain.WebhookSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, sub)
	return nil
}

func (r *fakeSubscriptionRepo) ListWebhookSubscriptions(_ context.Context, shopDomain string) ([]*domain.WebhookSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var subs []*domain.WebhookSubscription
	for _, sub := range r.subs {
		if sub.ShopDomain == shopDomain {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	failures  map[string]int
	deletions map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{failures: map[string]int{}, deletions: map[string]int{}}
}

func (m *fakeMetrics) WebhookReceived(string, string) {}

func (m *fakeMetrics) PipelineFailed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[stage]++
}

func (m *fakeMetrics) VariantDeletion(kind domain.DeletionKind, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions[fmt.Sprintf("%s/%t", kind, success)]++
}

type fakePublisher struct {
	mu       sync.Mutex
	outcomes []*domain.DeletionOutcome
}

func (p *fakePublisher) Publish(outcome *domain.DeletionOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, outcome)
}

func strPtr(s string) *string { return &s }
