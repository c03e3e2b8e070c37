// Package analytics derives dashboard figures from the order history and the
// product list. Every function is a pure aggregation over its inputs; the
// reference time is always passed in explicitly so results are reproducible
// for a given snapshot.
package analytics

import (
	"sort"
	"time"

	"motoverse/internal/models"

	"github.com/shopspring/decimal"
)

// RevenuePoint is one daily bucket of the revenue trend.
type RevenuePoint struct {
	Label   string          `json:"date"`
	Day     time.Time       `json:"-"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// CategorySales is one slice of the category revenue split.
type CategorySales struct {
	Category   string          `json:"category"`
	Value      decimal.Decimal `json:"value"`
	Percentage float64         `json:"percentage"`
}

// TopProduct is one row of the top-sellers ranking.
type TopProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

// Summary is the dashboard's headline metric block.
type Summary struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int             `json:"totalOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	UnitsInStock      int             `json:"unitsInStock"`
	LowStockCount     int             `json:"lowStockCount"`
	PendingOrders     int             `json:"pendingOrders"`
	RevenueGrowth     float64         `json:"revenueGrowth"`
	OrdersGrowth      float64         `json:"ordersGrowth"`
}

// TotalRevenue sums order totals.
func TotalRevenue(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Total)
	}
	return total
}

// RevenueTrend buckets orders into the trailing days daily buckets ending at
// now's calendar day, boundaries at local midnight. Days with no orders
// report zero, not absent: the result always has exactly days entries in
// chronological order.
func RevenueTrend(orders []models.Order, days int, now time.Time) []RevenuePoint {
	if days <= 0 {
		return []RevenuePoint{}
	}

	today := startOfDay(now)
	trend := make([]RevenuePoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		trend = append(trend, RevenuePoint{
			Label:   day.Format("Jan 2"),
			Day:     day,
			Revenue: decimal.Zero,
		})
	}

	first := trend[0].Day
	end := today.AddDate(0, 0, 1)
	for _, o := range orders {
		t := o.Date.In(now.Location())
		if t.Before(first) || !t.Before(end) {
			continue
		}
		idx := daysBetween(first, startOfDay(t))
		if idx < 0 || idx >= len(trend) {
			continue
		}
		trend[idx].Revenue = trend[idx].Revenue.Add(o.Total)
		trend[idx].Orders++
	}

	return trend
}

// SalesByCategory joins each order line item to its product's category and
// expresses per-category revenue as a percentage of the total. Items whose
// product has since been deleted fall back to Accessories. Percentages are
// all 0 when there is no revenue. Slices are sorted by revenue descending,
// ties broken by category name.
func SalesByCategory(orders []models.Order, products []models.Product) []CategorySales {
	categories := make(map[string]string, len(products))
	for _, p := range products {
		categories[p.ID] = p.Category
	}

	revenue := make(map[string]decimal.Decimal)
	for _, o := range orders {
		for _, item := range o.Items {
			category, ok := categories[item.ID]
			if !ok || category == "" {
				category = models.CategoryAccessories
			}
			revenue[category] = revenue[category].Add(item.Subtotal())
		}
	}

	total := decimal.Zero
	for _, v := range revenue {
		total = total.Add(v)
	}

	out := make([]CategorySales, 0, len(revenue))
	for category, value := range revenue {
		pct := 0.0
		if total.IsPositive() {
			pct, _ = value.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, CategorySales{Category: category, Value: value, Percentage: pct})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopProducts aggregates revenue and quantity per product id across all order
// line items and returns the top limit rows by revenue. Names come from the
// item snapshots, so deleted products still rank.
func TopProducts(orders []models.Order, limit int) []TopProduct {
	if limit <= 0 {
		return []TopProduct{}
	}

	stats := make(map[string]*TopProduct)
	for _, o := range orders {
		for _, item := range o.Items {
			tp, ok := stats[item.ID]
			if !ok {
				tp = &TopProduct{ID: item.ID, Name: item.Name, Revenue: decimal.Zero}
				stats[item.ID] = tp
			}
			tp.Revenue = tp.Revenue.Add(item.Subtotal())
			tp.Quantity += item.Quantity
		}
	}

	out := make([]TopProduct, 0, len(stats))
	for _, tp := range stats {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Growth returns the percentage change between current and previous. Defined
// as 0 when both are zero and 100 when only previous is zero.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// Summarize computes the dashboard metric block. Growth compares the last 30
// days against the 30 days before that. lowStockThreshold bounds the
// low-stock alert: stock strictly between 0 and the threshold counts.
func Summarize(orders []models.Order, products []models.Product, lowStockThreshold int, now time.Time) Summary {
	cutoff30 := now.AddDate(0, 0, -30)
	cutoff60 := now.AddDate(0, 0, -60)

	var currentRevenue, previousRevenue decimal.Decimal
	var currentOrders, previousOrders int
	for _, o := range orders {
		switch {
		case !o.Date.Before(cutoff30):
			currentRevenue = currentRevenue.Add(o.Total)
			currentOrders++
		case !o.Date.Before(cutoff60):
			previousRevenue = previousRevenue.Add(o.Total)
			previousOrders++
		}
	}

	s := Summary{
		TotalRevenue:      TotalRevenue(orders),
		TotalOrders:       len(orders),
		AverageOrderValue: decimal.Zero,
		RevenueGrowth:     Growth(currentRevenue, previousRevenue),
		OrdersGrowth: Growth(
			decimal.NewFromInt(int64(currentOrders)),
			decimal.NewFromInt(int64(previousOrders)),
		),
	}
	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalOrders)))
	}

	for _, p := range products {
		s.UnitsInStock += p.Stock
		if p.Stock > 0 && p.Stock < lowStockThreshold {
			s.LowStockCount++
		}
	}
	for _, o := range orders {
		if o.Status == models.OrderStatusPending {
			s.PendingOrders++
		}
	}

	return s
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b; both must be midnights in the
// same location. AddDate instead of division keeps DST days honest.
func daysBetween(a, b time.Time) int {
	days := 0
	for cur := a; cur.Before(b); cur = cur.AddDate(0, 0, 1) {
		days++
	}
	return days
}
