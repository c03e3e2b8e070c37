package orders

import (
	"context"
	"sync"

	"motoverse/internal/models"
	"motoverse/internal/util"

	"go.uber.org/zap"
)

// Fetcher loads the order history from the remote gateway, newest first.
type Fetcher interface {
	GetOrders(ctx context.Context) ([]models.Order, error)
}

// Cache is the client-side copy of the order history feeding the dashboard
// orders tab and the analytics aggregator. Like the catalog cache, refreshes
// replace the whole list; last completed fetch wins.
type Cache struct {
	mu     sync.RWMutex
	orders []models.Order
	loaded bool

	fetcher Fetcher
	logger  *zap.Logger
}

// NewCache creates an unloaded order cache.
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  util.GetLogger(),
	}
}

// Refresh refetches the order history and replaces the cached copy.
func (c *Cache) Refresh(ctx context.Context, trigger string) error {
	orders, err := c.fetcher.GetOrders(ctx)
	if err != nil {
		c.logger.Error("Order refresh failed", zap.String("trigger", trigger), zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.orders = orders
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("Orders refreshed",
		zap.String("trigger", trigger),
		zap.Int("orders", len(orders)))
	return nil
}

// Orders returns a copy of the cached history and whether it has been loaded.
func (c *Cache) Orders() ([]models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, len(c.orders))
	copy(out, c.orders)
	return out, c.loaded
}
