package shopify

import (
	"context"
	"sync"

	"shopify-variant-cleanup/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

type pooledAdmin struct {
	token string
	admin *VariantAdmin
}

// ClientPool caches one admin client per shop, keyed on the token it was built with
type ClientPool struct {
	mu        sync.Mutex
	app       goshopify.App
	config    ClientConfig
	metafield MetafieldRef
	logger    zerolog.Logger
	clients   map[string]pooledAdmin
}

// NewClientPool creates an empty client pool
func NewClientPool(config ClientConfig, metafield MetafieldRef, logger zerolog.Logger) *ClientPool {
	return &ClientPool{
		app:       NewApp(config),
		config:    config,
		metafield: metafield,
		logger:    logger,
		clients:   make(map[string]pooledAdmin),
	}
}

// ForShop returns the cached client for the shop, rebuilding it when the token changed
func (p *ClientPool) ForShop(ctx context.Context, shop string, accessToken string) (ports.VariantAdmin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.clients[shop]; ok && cached.token == accessToken {
		return cached.admin, nil
	}

	client, err := newShopClient(p.app, p.config, p.logger, shop, accessToken)
	if err != nil {
		return nil, err
	}
	admin := NewVariantAdmin(client, shop, p.metafield)
	p.clients[shop] = pooledAdmin{token: accessToken, admin: admin}

	p.logger.Debug().Str("shop", shop).Msg("Created admin client")
	return admin, nil
}

// Evict drops the cached client for the shop
func (p *ClientPool) Evict(shop string) {
	p.mu.Lock()
	delete(p.clients, shop)
	p.mu.Unlock()
}

// Len returns the number of cached clients
func (p *ClientPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
