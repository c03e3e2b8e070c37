package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"motoverse/internal/analytics"
	"motoverse/internal/cart"
	"motoverse/internal/catalog"
	"motoverse/internal/checkout"
	"motoverse/internal/models"
	"motoverse/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderGateway struct {
	created []models.Order
}

func (s *stubOrderGateway) CreateOrder(_ context.Context, o *models.Order) error {
	s.created = append(s.created, *o)
	return nil
}

func (s *stubOrderGateway) GetOrders(_ context.Context) ([]models.Order, error) {
	out := make([]models.Order, len(s.created))
	copy(out, s.created)
	return out, nil
}

type stubPublisher struct {
	placed []models.OrderPlacedEvent
}

func (s *stubPublisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	s.placed = append(s.placed, *e)
	return nil
}

func testProducts() []models.Product {
	products := []models.Product{
		{ID: "p1", Name: "Yamaha R1", Brand: "Yamaha", Category: models.CategoryBikes, Price: decimal.NewFromInt(10000), Description: "Supersport"},
		{ID: "p2", Name: "Chain Kit", Brand: "Generic", Category: models.CategoryParts, Price: decimal.NewFromInt(5000), Description: "Drive chain"},
	}
	for i := range products {
		products[i].Normalize()
	}
	return products
}

func newTestRouter(t *testing.T) (*gin.Engine, *Handler, *stubOrderGateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gateway := &stubOrderGateway{}
	publisher := &stubPublisher{}

	catalogCache := catalog.NewCache(nil)
	catalogCache.Replace(testProducts())

	orderCache := orders.NewCache(gateway)
	cartEngine := cart.NewEngine("test", nil)
	materializer := checkout.NewMaterializer(cartEngine, gateway, publisher, "1234567890", "MAD")

	h := NewHandler(
		catalogCache, orderCache, cartEngine, materializer,
		nil, nil, nil, analytics.NewReporter(), nil, nil, 5,
	)

	router := gin.New()
	h.SetupRoutes(router)
	return router, h, gateway
}

func do(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListProductsFiltered(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/products?category=Bikes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total    int              `json:"total"`
		Products []models.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "p1", resp.Products[0].ID)
}

func TestListProductsEmptyResultIsOK(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/products?brand=Ducati", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Total)
}

func TestListProductsBeforeCatalogLoads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewHandler(
		catalog.NewCache(nil), orders.NewCache(nil), cart.NewEngine("test", nil),
		nil, nil, nil, nil, analytics.NewReporter(), nil, nil, 5,
	)
	router := gin.New()
	h.SetupRoutes(router)

	w := do(router, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "unloaded catalog is not the same as an empty one")
}

func TestCartFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []models.CartItem `json:"items"`
		Total decimal.Decimal   `json:"total"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(25000)), "got %s", resp.Total)

	w = do(router, http.MethodPatch, "/api/v1/cart/items/p1", gin.H{"delta": -5})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count, "quantity clamps at 1")

	w = do(router, http.MethodDelete, "/api/v1/cart/items/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutEndToEnd(t *testing.T) {
	router, h, gateway := newTestRouter(t)

	do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p1"})
	do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p1"})
	do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p2"})

	w := do(router, http.MethodPost, "/api/v1/checkout", gin.H{
		"name":    "Amine",
		"phone":   "0600000000",
		"address": "Casablanca",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var result checkout.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.OrderStatusPending, result.Order.Status)
	assert.Len(t, result.Order.Items, 2)
	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(25000)))
	assert.Contains(t, result.WhatsAppLink, "https://wa.me/1234567890?text=")

	require.Len(t, gateway.created, 1)
	assert.Equal(t, 0, h.cart.Count(), "cart is cleared after checkout")
}

func TestCheckoutValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	do(router, http.MethodPost, "/api/v1/cart/items", gin.H{"productId": "p1"})

	w := do(router, http.MethodPost, "/api/v1/checkout", gin.H{"name": "Amine"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing fields never reach the materializer")
}

func TestBrandsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/brands", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Brands []string `json:"brands"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Brands, "Yamaha")
	assert.Contains(t, resp.Brands, "Ducati")
}
