package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"motoverse/internal/cart"
	"motoverse/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	orders []models.Order
	err    error
}

func (f *fakePersister) CreateOrder(_ context.Context, o *models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, *o)
	return nil
}

type fakePublisher struct {
	events []models.OrderPlacedEvent
	err    error
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *e)
	return nil
}

func loadedCart(t *testing.T) *cart.Engine {
	t.Helper()
	e := cart.NewEngine("test", nil)

	a := models.Product{ID: "a", Name: "CBR 600RR", Brand: "Honda", Category: models.CategoryBikes, Price: decimal.NewFromInt(10000)}
	b := models.Product{ID: "b", Name: "Racing Gloves", Brand: "Generic", Category: models.CategoryAccessories, Price: decimal.NewFromInt(5000)}
	e.Add(a)
	e.Add(a)
	e.Add(b)
	return e
}

func newTestMaterializer(c *cart.Engine, p OrderPersister, pub EventPublisher) *Materializer {
	m := NewMaterializer(c, p, pub, "1234567890", "MAD")
	m.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) }
	return m
}

func TestCheckoutMaterializesOrder(t *testing.T) {
	c := loadedCart(t)
	persister := &fakePersister{}
	publisher := &fakePublisher{}
	m := newTestMaterializer(c, persister, publisher)

	result, err := m.Checkout(context.Background(), CheckoutRequest{
		Name:    "Amine",
		Phone:   "0600000000",
		Address: "12 Rue des Motards, Casablanca",
	})
	require.NoError(t, err)

	order := result.Order
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(25000)), "got %s", order.Total)
	assert.True(t, result.Persisted)

	require.Len(t, persister.orders, 1)
	assert.Equal(t, order.ID, persister.orders[0].ID)

	assert.Empty(t, c.Items(), "cart is cleared after checkout")
	assert.Equal(t, 0, c.Count())
}

func TestCheckoutTotalRecomputedFromSnapshots(t *testing.T) {
	c := loadedCart(t)
	m := newTestMaterializer(c, &fakePersister{}, &fakePublisher{})

	result, err := m.Checkout(context.Background(), CheckoutRequest{Name: "A", Phone: "1", Address: "X"})
	require.NoError(t, err)

	// The order's total must equal the sum over its own items, regardless of
	// what happens to catalog prices afterwards.
	sum := decimal.Zero
	for _, item := range result.Order.Items {
		sum = sum.Add(item.Subtotal())
	}
	assert.True(t, result.Order.Total.Equal(sum))
}

func TestCheckoutValidatesCustomerFields(t *testing.T) {
	cases := []CheckoutRequest{
		{Name: "", Phone: "1", Address: "X"},
		{Name: "A", Phone: "   ", Address: "X"},
		{Name: "A", Phone: "1", Address: ""},
	}

	for _, req := range cases {
		c := loadedCart(t)
		m := newTestMaterializer(c, &fakePersister{}, &fakePublisher{})

		_, err := m.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.NotEmpty(t, c.Items(), "a rejected checkout leaves the cart alone")
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	m := newTestMaterializer(cart.NewEngine("test", nil), &fakePersister{}, &fakePublisher{})

	_, err := m.Checkout(context.Background(), CheckoutRequest{Name: "A", Phone: "1", Address: "X"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutProceedsWhenPersistenceFails(t *testing.T) {
	c := loadedCart(t)
	persister := &fakePersister{err: errors.New("database unreachable")}
	publisher := &fakePublisher{}
	m := newTestMaterializer(c, persister, publisher)

	result, err := m.Checkout(context.Background(), CheckoutRequest{Name: "A", Phone: "1", Address: "X"})
	require.NoError(t, err, "persistence failure must not abort checkout")

	assert.False(t, result.Persisted)
	assert.Contains(t, result.PersistError, "database unreachable")
	assert.NotEmpty(t, result.WhatsAppLink, "the messaging handoff is the record of last resort")

	require.Len(t, publisher.events, 1)
	assert.False(t, publisher.events[0].Persisted)
	assert.Empty(t, c.Items(), "cart still clears")
}

func TestCheckoutDoubleSubmitProducesDistinctOrders(t *testing.T) {
	persister := &fakePersister{}
	publisher := &fakePublisher{}

	c1 := loadedCart(t)
	m1 := newTestMaterializer(c1, persister, publisher)
	r1, err := m1.Checkout(context.Background(), CheckoutRequest{Name: "A", Phone: "1", Address: "X"})
	require.NoError(t, err)

	c2 := loadedCart(t)
	m2 := newTestMaterializer(c2, persister, publisher)
	r2, err := m2.Checkout(context.Background(), CheckoutRequest{Name: "A", Phone: "1", Address: "X"})
	require.NoError(t, err)

	assert.NotEqual(t, r1.Order.ID, r2.Order.ID)
	assert.Len(t, persister.orders, 2)
}

func TestOrderMessageContents(t *testing.T) {
	order := models.Order{
		CustomerName:    "Amine",
		CustomerPhone:   "0600000000",
		CustomerAddress: "Casablanca",
		Items: []models.CartItem{
			{Product: models.Product{ID: "a", Name: "CBR 600RR", Price: decimal.NewFromInt(10000)}, Quantity: 2},
			{Product: models.Product{ID: "b", Name: "Racing Gloves", Price: decimal.NewFromInt(5000)}, Quantity: 1},
		},
		Total: decimal.NewFromInt(25000),
	}

	msg := OrderMessage(order, "MAD")

	assert.Contains(t, msg, "*Customer:* Amine")
	assert.Contains(t, msg, "*Phone:* 0600000000")
	assert.Contains(t, msg, "*Address:* Casablanca")
	assert.Contains(t, msg, "- 2x CBR 600RR")
	assert.Contains(t, msg, "- 1x Racing Gloves")
	assert.Contains(t, msg, "*Total:* 25000 MAD")
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("212600000000", "hello world\nline two")

	require.True(t, strings.HasPrefix(link, "https://wa.me/212600000000?text="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "hello world\nline two", parsed.Query().Get("text"))
}
