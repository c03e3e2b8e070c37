package analytics

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"motoverse/internal/models"
)

// Reporter memoizes aggregations for the dashboard. Results are cached per
// input snapshot: any change to the order or product lists, or crossing a
// calendar day, invalidates everything. Aggregations themselves stay pure;
// the reporter only avoids recomputing them on every dashboard poll.
type Reporter struct {
	mu sync.Mutex

	key        string
	trend      map[int][]RevenuePoint
	categories []CategorySales
	top        map[int][]TopProduct
	summary    *Summary
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// snapshotKey fingerprints the inputs by folding every field an aggregation
// reads into an FNV hash: order id, status and total; product id, category
// and stock. In-place edits that keep list lengths unchanged, such as a
// status move on one order or a stock correction on one product, must
// produce a new key. The calendar day is included because trend and growth
// bucket relative to now.
func snapshotKey(orders []models.Order, products []models.Product, now time.Time) string {
	h := fnv.New64a()
	for _, o := range orders {
		fmt.Fprintf(h, "o:%s|%s|%s;", o.ID, o.Status, o.Total.String())
	}
	for _, p := range products {
		fmt.Fprintf(h, "p:%s|%s|%d;", p.ID, p.Category, p.Stock)
	}
	return fmt.Sprintf("%d|%d|%x|%s", len(orders), len(products), h.Sum64(), now.Format("2006-01-02"))
}

func (r *Reporter) refresh(orders []models.Order, products []models.Product, now time.Time) {
	key := snapshotKey(orders, products, now)
	if key == r.key {
		return
	}
	r.key = key
	r.trend = make(map[int][]RevenuePoint)
	r.categories = nil
	r.top = make(map[int][]TopProduct)
	r.summary = nil
}

// Trend returns the memoized revenue trend for the trailing days window.
func (r *Reporter) Trend(orders []models.Order, products []models.Product, days int, now time.Time) []RevenuePoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh(orders, products, now)

	if cached, ok := r.trend[days]; ok {
		return cached
	}
	trend := RevenueTrend(orders, days, now)
	r.trend[days] = trend
	return trend
}

// Categories returns the memoized category split.
func (r *Reporter) Categories(orders []models.Order, products []models.Product, now time.Time) []CategorySales {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh(orders, products, now)

	if r.categories == nil {
		r.categories = SalesByCategory(orders, products)
	}
	return r.categories
}

// Top returns the memoized top-product ranking.
func (r *Reporter) Top(orders []models.Order, products []models.Product, limit int, now time.Time) []TopProduct {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh(orders, products, now)

	if cached, ok := r.top[limit]; ok {
		return cached
	}
	top := TopProducts(orders, limit)
	r.top[limit] = top
	return top
}

// Metrics returns the memoized dashboard summary.
func (r *Reporter) Metrics(orders []models.Order, products []models.Product, lowStockThreshold int, now time.Time) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh(orders, products, now)

	if r.summary == nil {
		s := Summarize(orders, products, lowStockThreshold, now)
		r.summary = &s
	}
	return *r.summary
}
