package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"motoverse/internal/models"
	"motoverse/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Persister is the durable key-value slot backing a cart across restarts.
type Persister interface {
	SaveCart(ctx context.Context, cartID string, payload []byte) error
	LoadCart(ctx context.Context, cartID string) ([]byte, error)
	DeleteCart(ctx context.Context, cartID string) error
}

// Engine maintains a quantity-indexed selection of products. At most one
// item exists per product id and quantities never drop below 1; removal is a
// separate explicit action. Every mutation re-serializes the cart to its
// persistence slot, best-effort.
type Engine struct {
	mu    sync.Mutex
	id    string
	items []models.CartItem

	persister Persister
	logger    *zap.Logger
}

const persistTimeout = 2 * time.Second

// NewEngine creates a cart engine bound to a persistence slot. persister may
// be nil for an in-memory-only cart.
func NewEngine(id string, persister Persister) *Engine {
	return &Engine{
		id:        id,
		persister: persister,
		logger:    util.GetLogger(),
	}
}

// Load restores the cart from its slot. A missing or corrupt snapshot is
// treated as an empty cart, never as an error.
func (e *Engine) Load(ctx context.Context) {
	if e.persister == nil {
		return
	}

	payload, err := e.persister.LoadCart(ctx, e.id)
	if err != nil {
		e.logger.Warn("Failed to load cart snapshot, starting empty",
			zap.String("cart_id", e.id), zap.Error(err))
		return
	}
	if len(payload) == 0 {
		return
	}

	var items []models.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		e.logger.Warn("Corrupt cart snapshot discarded",
			zap.String("cart_id", e.id), zap.Error(err))
		return
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
}

// Add inserts the product with quantity 1, or increments the existing item's
// quantity by 1. Existing item order is preserved; new items append.
func (e *Engine) Add(p models.Product) {
	e.mu.Lock()
	found := false
	for i := range e.items {
		if e.items[i].ID == p.ID {
			e.items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		e.items = append(e.items, models.CartItem{Product: p, Quantity: 1})
	}
	e.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	e.persist()
}

// UpdateQuantity adjusts an item's quantity by delta, clamping at 1. Unknown
// ids are a no-op.
func (e *Engine) UpdateQuantity(id string, delta int) {
	e.mu.Lock()
	changed := false
	for i := range e.items {
		if e.items[i].ID == id {
			q := e.items[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			e.items[i].Quantity = q
			changed = true
			break
		}
	}
	e.mu.Unlock()

	if changed {
		util.CartMutationsTotal.WithLabelValues("update").Inc()
		e.persist()
	}
}

// Remove deletes the item with the given product id. Unknown ids are a no-op.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	changed := false
	for i := range e.items {
		if e.items[i].ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			changed = true
			break
		}
	}
	e.mu.Unlock()

	if changed {
		util.CartMutationsTotal.WithLabelValues("remove").Inc()
		e.persist()
	}
}

// Clear empties the cart; called when checkout completes.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.items = nil
	e.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()

	if e.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.persister.DeleteCart(ctx, e.id); err != nil {
		util.CartPersistFailedTotal.Inc()
		e.logger.Warn("Failed to clear cart slot", zap.String("cart_id", e.id), zap.Error(err))
	}
}

// Items returns a copy of the cart contents in insertion order.
func (e *Engine) Items() []models.CartItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.CartItem, len(e.items))
	copy(out, e.items)
	return out
}

// Total returns the sum of price times quantity over all items.
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, item := range e.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count returns the sum of quantities, distinct from the number of items;
// this feeds the cart badge.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, item := range e.items {
		count += item.Quantity
	}
	return count
}

// persist writes the current snapshot to the slot. Failures are logged and
// counted but never surfaced; the cart keeps working in memory.
func (e *Engine) persist() {
	if e.persister == nil {
		return
	}

	e.mu.Lock()
	payload, err := json.Marshal(e.items)
	e.mu.Unlock()
	if err != nil {
		e.logger.Warn("Failed to serialize cart", zap.String("cart_id", e.id), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := e.persister.SaveCart(ctx, e.id, payload); err != nil {
		util.CartPersistFailedTotal.Inc()
		e.logger.Warn("Failed to persist cart snapshot",
			zap.String("cart_id", e.id), zap.Error(err))
	}
}
