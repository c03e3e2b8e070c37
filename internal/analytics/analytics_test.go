package analytics

import (
	"fmt"
	"testing"
	"time"

	"motoverse/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.Local)

func orderOn(day time.Time, total int64, items ...models.CartItem) models.Order {
	o := models.Order{
		ID:     fmt.Sprintf("o-%d-%d", day.Unix(), total),
		Date:   day,
		Total:  decimal.NewFromInt(total),
		Status: models.OrderStatusPending,
		Items:  items,
	}
	return o
}

func item(productID, name string, price int64, qty int) models.CartItem {
	return models.CartItem{
		Product:  models.Product{ID: productID, Name: name, Price: decimal.NewFromInt(price)},
		Quantity: qty,
	}
}

func TestRevenueTrendBucketCountAndOrder(t *testing.T) {
	for _, days := range []int{7, 30, 90} {
		trend := RevenueTrend(nil, days, testNow)
		require.Len(t, trend, days)

		for i := 1; i < len(trend); i++ {
			assert.True(t, trend[i].Day.After(trend[i-1].Day), "buckets are chronological")
		}
		for _, point := range trend {
			assert.False(t, point.Revenue.IsNegative())
			assert.Equal(t, 0, point.Orders, "empty days report zero, not absent")
		}
	}
}

func TestRevenueTrendDayScenario(t *testing.T) {
	day := time.Date(2024, 6, 15, 9, 0, 0, 0, time.Local)
	orders := []models.Order{
		orderOn(day, 1000),
		orderOn(day.Add(2*time.Hour), 2000),
		orderOn(day.Add(5*time.Hour), 500),
	}

	trend := RevenueTrend(orders, 7, testNow)
	require.Len(t, trend, 7)

	today := trend[6]
	assert.True(t, today.Revenue.Equal(decimal.NewFromInt(3500)), "got %s", today.Revenue)
	assert.Equal(t, 3, today.Orders)

	yesterday := trend[5]
	assert.True(t, yesterday.Revenue.IsZero())
	assert.Equal(t, 0, yesterday.Orders)
}

func TestRevenueTrendSumMatchesWindowTotal(t *testing.T) {
	orders := []models.Order{
		orderOn(testNow.AddDate(0, 0, -1), 100),
		orderOn(testNow.AddDate(0, 0, -3), 250),
		orderOn(testNow.AddDate(0, 0, -6), 400),
		// Outside a 7-day window, must not be counted.
		orderOn(testNow.AddDate(0, 0, -10), 9999),
	}

	trend := RevenueTrend(orders, 7, testNow)
	sum := decimal.Zero
	for _, point := range trend {
		sum = sum.Add(point.Revenue)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(750)), "got %s", sum)
}

func TestRevenueTrendDayBoundariesAtMidnight(t *testing.T) {
	midnight := time.Date(2024, 6, 15, 0, 0, 0, 0, time.Local)
	justBefore := midnight.Add(-time.Second)

	orders := []models.Order{
		orderOn(midnight, 100),
		orderOn(justBefore, 200),
	}

	trend := RevenueTrend(orders, 2, testNow)
	require.Len(t, trend, 2)
	assert.True(t, trend[0].Revenue.Equal(decimal.NewFromInt(200)))
	assert.True(t, trend[1].Revenue.Equal(decimal.NewFromInt(100)))
}

func TestSalesByCategoryPercentagesSumTo100(t *testing.T) {
	products := []models.Product{
		{ID: "bike", Category: models.CategoryBikes},
		{ID: "part", Category: models.CategoryParts},
	}
	orders := []models.Order{
		orderOn(testNow, 0, item("bike", "Bike", 30000, 1), item("part", "Part", 5000, 2)),
		orderOn(testNow, 0, item("part", "Part", 5000, 1)),
	}

	split := SalesByCategory(orders, products)
	require.Len(t, split, 2)

	total := 0.0
	for _, s := range split {
		total += s.Percentage
	}
	assert.InDelta(t, 100.0, total, 1e-6)

	// Sorted by revenue descending.
	assert.Equal(t, models.CategoryBikes, split[0].Category)
	assert.True(t, split[0].Value.Equal(decimal.NewFromInt(30000)))
	assert.True(t, split[1].Value.Equal(decimal.NewFromInt(15000)))
}

func TestSalesByCategoryNoOrders(t *testing.T) {
	split := SalesByCategory(nil, []models.Product{{ID: "bike", Category: models.CategoryBikes}})
	assert.Empty(t, split)
}

func TestSalesByCategoryDeletedProductFallsBack(t *testing.T) {
	orders := []models.Order{
		orderOn(testNow, 0, item("ghost", "Deleted Product", 1000, 2)),
	}

	split := SalesByCategory(orders, nil)
	require.Len(t, split, 1)
	assert.Equal(t, models.CategoryAccessories, split[0].Category)
	assert.True(t, split[0].Value.Equal(decimal.NewFromInt(2000)))
	assert.InDelta(t, 100.0, split[0].Percentage, 1e-6)
}

func TestTopProductsRankingAndTruncation(t *testing.T) {
	orders := []models.Order{
		orderOn(testNow, 0, item("a", "A", 100, 1), item("b", "B", 300, 2)),
		orderOn(testNow, 0, item("a", "A", 100, 4), item("c", "C", 50, 1)),
	}

	top := TopProducts(orders, 2)
	require.Len(t, top, 2)

	assert.Equal(t, "b", top[0].ID)
	assert.True(t, top[0].Revenue.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, 2, top[0].Quantity)

	assert.Equal(t, "a", top[1].ID)
	assert.True(t, top[1].Revenue.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 5, top[1].Quantity, "quantity aggregates across orders")
}

func TestTopProductsEmptyHistory(t *testing.T) {
	assert.Empty(t, TopProducts(nil, 5))
	assert.Empty(t, TopProducts([]models.Order{orderOn(testNow, 100)}, 0))
}

func TestGrowth(t *testing.T) {
	zero := decimal.Zero
	assert.Equal(t, 0.0, Growth(zero, zero), "zero when both periods are zero")
	assert.Equal(t, 100.0, Growth(decimal.NewFromInt(500), zero), "100 when only previous is zero")
	assert.InDelta(t, 50.0, Growth(decimal.NewFromInt(150), decimal.NewFromInt(100)), 1e-9)
	assert.InDelta(t, -25.0, Growth(decimal.NewFromInt(75), decimal.NewFromInt(100)), 1e-9)
}

func TestSummarize(t *testing.T) {
	products := []models.Product{
		{ID: "a", Category: models.CategoryBikes, Stock: 10},
		{ID: "b", Category: models.CategoryParts, Stock: 3},
		{ID: "c", Category: models.CategoryAccessories, Stock: 0},
	}
	current := orderOn(testNow.AddDate(0, 0, -5), 2000)
	previous := orderOn(testNow.AddDate(0, 0, -45), 1000)
	completed := orderOn(testNow.AddDate(0, 0, -2), 1000)
	completed.Status = models.OrderStatusCompleted

	orders := []models.Order{current, previous, completed}

	s := Summarize(orders, products, 5, testNow)

	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, 3, s.TotalOrders)
	expectedAOV := decimal.NewFromInt(4000).Div(decimal.NewFromInt(3))
	assert.True(t, s.AverageOrderValue.Equal(expectedAOV))
	assert.Equal(t, 13, s.UnitsInStock)
	assert.Equal(t, 1, s.LowStockCount, "only 0 < stock < threshold counts")
	assert.Equal(t, 2, s.PendingOrders)

	// Current window revenue 3000 vs previous 1000.
	assert.InDelta(t, 200.0, s.RevenueGrowth, 1e-9)
	assert.InDelta(t, 100.0, s.OrdersGrowth, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, nil, 5, testNow)

	assert.True(t, s.TotalRevenue.IsZero())
	assert.Equal(t, 0, s.TotalOrders)
	assert.True(t, s.AverageOrderValue.IsZero(), "average order value defined as 0 with no orders")
	assert.Equal(t, 0.0, s.RevenueGrowth)
	assert.Equal(t, 0.0, s.OrdersGrowth)
}

func TestReporterMemoizesPerSnapshot(t *testing.T) {
	r := NewReporter()
	orders := []models.Order{orderOn(testNow, 1000)}

	first := r.Trend(orders, nil, 7, testNow)
	second := r.Trend(orders, nil, 7, testNow)
	require.Len(t, second, 7)
	assert.Equal(t, first, second)

	// A new order list invalidates the cache and the result reflects it.
	grown := append([]models.Order{orderOn(testNow, 500)}, orders...)
	third := r.Trend(grown, nil, 7, testNow)
	assert.True(t, third[6].Revenue.Equal(decimal.NewFromInt(1500)), "got %s", third[6].Revenue)
}

func TestReporterInvalidatesOnStatusEdit(t *testing.T) {
	r := NewReporter()
	orders := []models.Order{
		orderOn(testNow, 1000),
		orderOn(testNow.Add(-time.Hour), 2000),
	}

	first := r.Metrics(orders, nil, 5, testNow)
	require.Equal(t, 2, first.PendingOrders)

	// Same length, same head order; only a non-head status changes.
	edited := append([]models.Order(nil), orders...)
	edited[1].Status = models.OrderStatusProcessing

	second := r.Metrics(edited, nil, 5, testNow)
	assert.Equal(t, 1, second.PendingOrders)
}

func TestReporterInvalidatesOnProductEdit(t *testing.T) {
	r := NewReporter()
	orders := []models.Order{orderOn(testNow, 500)}
	products := []models.Product{{ID: "a", Category: models.CategoryBikes, Stock: 10}}

	first := r.Metrics(orders, products, 5, testNow)
	require.Equal(t, 0, first.LowStockCount)
	require.Equal(t, 10, first.UnitsInStock)

	// In-place stock correction, list length unchanged.
	edited := append([]models.Product(nil), products...)
	edited[0].Stock = 2

	second := r.Metrics(orders, edited, 5, testNow)
	assert.Equal(t, 1, second.LowStockCount)
	assert.Equal(t, 2, second.UnitsInStock)
}

func TestReporterInvalidatesOnCategoryEdit(t *testing.T) {
	r := NewReporter()
	orders := []models.Order{
		orderOn(testNow, 0, item("a", "A", 100, 1)),
	}
	products := []models.Product{{ID: "a", Category: models.CategoryBikes, Stock: 1}}

	first := r.Categories(orders, products, testNow)
	require.Len(t, first, 1)
	require.Equal(t, models.CategoryBikes, first[0].Category)

	edited := append([]models.Product(nil), products...)
	edited[0].Category = models.CategoryParts

	second := r.Categories(orders, edited, testNow)
	require.Len(t, second, 1)
	assert.Equal(t, models.CategoryParts, second[0].Category)
}

func TestReporterDeterministicForSnapshot(t *testing.T) {
	r := NewReporter()
	products := []models.Product{{ID: "a", Category: models.CategoryBikes}}
	orders := []models.Order{
		orderOn(testNow, 0, item("a", "A", 100, 2)),
	}

	a := r.Categories(orders, products, testNow)
	b := r.Categories(orders, products, testNow)
	assert.Equal(t, a, b)

	m1 := r.Metrics(orders, products, 5, testNow)
	m2 := r.Metrics(orders, products, 5, testNow)
	assert.Equal(t, m1, m2)
}
