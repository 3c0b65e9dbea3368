package webhook_handlers

import (
	"context"
	"sync"

	"shopify-variant-cleanup/internal/application"
	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"

	"github.com/rs/zerolog"
)

const testShop = "demo.myshopify.com"

type memoryShopRepo struct {
	mu      sync.Mutex
	shops   map[string]*domain.Shop
	deleted []string
}

func (r *memoryShopRepo) SaveShop(_ context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *shop
	r.shops[shop.Domain] = &copied
	return nil
}

func (r *memoryShopRepo) GetShop(_ context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shop, ok := r.shops[shopDomain]; ok {
		copied := *shop
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryShopRepo) ListActiveShops(context.Context) ([]*domain.Shop, error) {
	return nil, nil
}

func (r *memoryShopRepo) DeleteAll(_ context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, shopDomain)
	delete(r.shops, shopDomain)
	return nil
}

func (r *memoryShopRepo) LogWebhook(context.Context, *domain.WebhookEvent) error {
	return nil
}

type plainEncryption struct{}

func (plainEncryption) Encrypt(s string) (string, error) { return s, nil }
func (plainEncryption) Decrypt(s string) (string, error) { return s, nil }

type deleteCall struct {
	variantID, productID, imageID string
}

type stubAdmin struct {
	mu           sync.Mutex
	records      []domain.VariantRecord
	nodes        map[string]domain.VariantRecord // when set, one record per requested id like nodes(ids:)
	fetchErr     error
	fetches      int
	fetchedIDs   []string
	plainDeletes []string
	imageDeletes []deleteCall
}

func (a *stubAdmin) FetchVariants(_ context.Context, ids []string) ([]domain.VariantRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
	a.fetchedIDs = append(a.fetchedIDs, ids...)
	if a.fetchErr != nil {
		return nil, a.fetchErr
	}
	if a.nodes == nil {
		return a.records, nil
	}
	var records []domain.VariantRecord
	for _, id := range ids {
		if record, ok := a.nodes[id]; ok {
			records = append(records, record)
		}
	}
	return records, nil
}

func (a *stubAdmin) DeleteVariant(_ context.Context, variantID string) (*domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plainDeletes = append(a.plainDeletes, variantID)
	return &domain.MutationResult{Success: true}, nil
}

func (a *stubAdmin) DeleteVariantWithImage(_ context.Context, variantID, productID, imageID string) (*domain.MutationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.imageDeletes = append(a.imageDeletes, deleteCall{variantID, productID, imageID})
	return &domain.MutationResult{Success: true}, nil
}

type stubAdminFactory struct {
	admin *stubAdmin
}

func (f stubAdminFactory) ForShop(context.Context, string, string) (ports.VariantAdmin, error) {
	return f.admin, nil
}

func (f stubAdminFactory) Evict(string) {}

type countingMetrics struct {
	mu       sync.Mutex
	failures map[string]int
}

func (m *countingMetrics) WebhookReceived(string, string) {}

func (m *countingMetrics) PipelineFailed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[stage]++
}

func (m *countingMetrics) VariantDeletion(domain.DeletionKind, bool) {}

type fixture struct {
	repo     *memoryShopRepo
	registry *application.ActiveShopRegistry
	admin    *stubAdmin
	metrics  *countingMetrics
	shops    *application.ShopService
}

func newFixture(installed bool) *fixture {
	f := &fixture{
		repo:     &memoryShopRepo{shops: map[string]*domain.Shop{}},
		registry: application.NewActiveShopRegistry(),
		admin:    &stubAdmin{},
		metrics:  &countingMetrics{},
	}
	f.shops = application.NewShopService(f.repo, plainEncryption{}, nil, stubAdminFactory{admin: f.admin}, f.registry, nil, zerolog.Nop())
	if installed {
		if _, err := f.shops.Install(context.Background(), application.InstallInput{Shop: testShop, AccessToken: "shpat_test"}); err != nil {
			panic(err)
		}
	}
	return f
}

func (f *fixture) orderHandler() *OrderHandler {
	return NewOrderHandler(
		zerolog.Nop(),
		f.shops,
		application.NewVariantResolver(zerolog.Nop()),
		application.NewVariantDeleter(zerolog.Nop(), f.metrics, nil, 0),
		f.metrics,
	)
}

func strPtr(s string) *string { return &s }
