package catalog

import (
	"context"
	"sync"

	"motoverse/internal/models"
	"motoverse/internal/util"

	"go.uber.org/zap"
)

// Fetcher loads the full product list from the remote gateway.
type Fetcher interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// Cache is the client-side copy of the catalog. Refreshes are full-list
// replacements, never merges; the most recent completed fetch wins. The
// loaded flag distinguishes an empty catalog from one that has not been
// fetched yet.
type Cache struct {
	mu       sync.RWMutex
	products []models.Product
	loaded   bool

	fetcher Fetcher
	logger  *zap.Logger
}

// NewCache creates an unloaded catalog cache.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  util.GetLogger(),
	}
}

// Refresh refetches the full product list and replaces the cached copy.
// trigger labels the refresh source for metrics ("startup", "change-feed",
// "admin").
func (c *Cache) Refresh(ctx context.Context, trigger string) error {
	products, err := c.fetcher.GetProducts(ctx)
	if err != nil {
		c.logger.Error("Catalog refresh failed", zap.String("trigger", trigger), zap.Error(err))
		return err
	}

	c.Replace(products)
	util.CatalogRefreshTotal.WithLabelValues(trigger).Inc()
	c.logger.Info("Catalog refreshed",
		zap.String("trigger", trigger),
		zap.Int("products", len(products)))
	return nil
}

// Replace swaps in a new full product list and marks the cache loaded.
func (c *Cache) Replace(products []models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.loaded = true
}

// Products returns a copy of the cached list and whether it has been loaded.
func (c *Cache) Products() ([]models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out, c.loaded
}

// Filtered applies a filter to the cached list. The second return is false
// until the first successful refresh, so callers can tell "no matches" from
// "not yet loaded".
func (c *Cache) Filtered(f Filter) ([]models.Product, bool) {
	products, loaded := c.Products()
	if !loaded {
		return nil, false
	}
	return Apply(products, f), true
}

// Lookup finds a cached product by id.
func (c *Cache) Lookup(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}
