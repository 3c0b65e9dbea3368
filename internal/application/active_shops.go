package application

import (
	"context"
	"fmt"
	"sync"

	"shopify-variant-cleanup/internal/domain"
	"shopify-variant-cleanup/internal/ports"
)

// ActiveShopRegistry tracks shops with a live installation.
// It is shared by the webhook handlers and the request-routing middleware.
type ActiveShopRegistry struct {
	mu    sync.RWMutex
	shops map[string]domain.ShopSettings
}

// NewActiveShopRegistry creates an empty registry
func NewActiveShopRegistry() *ActiveShopRegistry {
	return &ActiveShopRegistry{
		shops: make(map[string]domain.ShopSettings),
	}
}

// Load populates the registry from persisted active shops
func (r *ActiveShopRegistry) Load(ctx context.Context, repo ports.ShopRepository) (int, error) {
	shops, err := repo.ListActiveShops(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active shops: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shop := range shops {
		r.shops[shop.Domain] = shop.Settings
	}
	return len(shops), nil
}

// Add marks a shop active, replacing any settings held for it
func (r *ActiveShopRegistry) Add(shop string, settings domain.ShopSettings) {
	r.mu.Lock()
	r.shops[shop] = settings
	r.mu.Unlock()
}

// Remove evicts a shop. Removing an unknown shop is a no-op.
func (r *ActiveShopRegistry) Remove(shop string) {
	r.mu.Lock()
	delete(r.shops, shop)
	r.mu.Unlock()
}

// Has reports whether the shop is active
func (r *ActiveShopRegistry) Has(shop string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shops[shop]
	return ok
}

// Settings returns the settings held for an active shop
func (r *ActiveShopRegistry) Settings(shop string) (domain.ShopSettings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	settings, ok := r.shops[shop]
	return settings, ok
}

// Len returns the number of active shops
func (r *ActiveShopRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shops)
}
