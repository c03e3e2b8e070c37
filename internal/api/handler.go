package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"motoverse/internal/analytics"
	"motoverse/internal/auth"
	"motoverse/internal/cart"
	"motoverse/internal/catalog"
	"motoverse/internal/checkout"
	"motoverse/internal/diag"
	"motoverse/internal/orders"
	"motoverse/internal/storage"
	"motoverse/internal/store"
	"motoverse/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers for the storefront and the admin dashboard.
type Handler struct {
	catalog      *catalog.Cache
	orders       *orders.Cache
	cart         *cart.Engine
	materializer *checkout.Materializer
	store        *store.Store
	auth         *auth.Manager
	uploader     *storage.Uploader
	reporter     *analytics.Reporter
	diagnostics  *diag.Runner
	notifier     ChangeNotifier
	lowStock     int
}

// ChangeNotifier publishes change-feed events after admin mutations.
type ChangeNotifier interface {
	NotifyProductChanged(ctx context.Context, change, productID string)
	NotifyOrderChanged(ctx context.Context, change, orderID string)
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	catalogCache *catalog.Cache,
	orderCache *orders.Cache,
	cartEngine *cart.Engine,
	materializer *checkout.Materializer,
	st *store.Store,
	authMgr *auth.Manager,
	uploader *storage.Uploader,
	reporter *analytics.Reporter,
	diagnostics *diag.Runner,
	notifier ChangeNotifier,
	lowStock int,
) *Handler {
	return &Handler{
		catalog:      catalogCache,
		orders:       orderCache,
		cart:         cartEngine,
		materializer: materializer,
		store:        st,
		auth:         authMgr,
		uploader:     uploader,
		reporter:     reporter,
		diagnostics:  diagnostics,
		notifier:     notifier,
		lowStock:     lowStock,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/brands", h.listBrands)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addToCart)
		v1.PATCH("/cart/items/:id", h.updateCartQuantity)
		v1.DELETE("/cart/items/:id", h.removeFromCart)

		v1.POST("/checkout", h.checkout)

		v1.POST("/admin/login", h.login)
	}

	admin := v1.Group("/admin", h.requireSession())
	{
		admin.POST("/logout", h.logout)
		admin.GET("/summary", h.summary)
		admin.GET("/trend", h.trend)
		admin.GET("/categories", h.categories)
		admin.GET("/top-products", h.topProducts)
		admin.GET("/orders", h.listOrders)
		admin.PATCH("/orders/:id/status", h.updateOrderStatus)
		admin.DELETE("/orders/:id", h.deleteOrder)
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
		admin.POST("/uploads", h.upload)
		admin.GET("/diagnostics", h.runDiagnostics)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready once the catalog has been loaded at least once.
func (h *Handler) readinessCheck(c *gin.Context) {
	_, loaded := h.catalog.Products()
	if !loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listProducts applies the filter panel's query parameters to the cached
// catalog. An empty result is a valid 200; only an unloaded catalog is a 503.
func (h *Handler) listProducts(c *gin.Context) {
	filter := catalog.Filter{
		Category:  c.DefaultQuery("category", catalog.All),
		Brand:     c.DefaultQuery("brand", catalog.All),
		Condition: c.DefaultQuery("condition", catalog.All),
		FuelType:  c.DefaultQuery("fuel", catalog.All),
		Query:     c.Query("q"),
	}
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MinPrice = &d
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			filter.MaxPrice = &d
		}
	}

	products, loaded := h.catalog.Filtered(filter)
	if !loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog not loaded yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(products),
		"products": products,
	})
}

// getProduct returns one cached product.
func (h *Handler) getProduct(c *gin.Context) {
	p, ok := h.catalog.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// listBrands returns the merged brand list for the filter panel.
func (h *Handler) listBrands(c *gin.Context) {
	products, _ := h.catalog.Products()
	c.JSON(http.StatusOK, gin.H{"brands": catalog.Brands(products)})
}

// getCart returns the cart contents with its derived totals.
func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items": h.cart.Items(),
		"total": h.cart.Total(),
		"count": h.cart.Count(),
	})
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// addToCart adds one unit of a cataloged product.
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	p, ok := h.catalog.Lookup(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	h.cart.Add(p)
	h.getCart(c)
}

type updateQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// updateCartQuantity applies a quantity delta; the engine clamps at 1.
func (h *Handler) updateCartQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	h.cart.UpdateQuantity(c.Param("id"), req.Delta)
	h.getCart(c)
}

// removeFromCart deletes an item outright.
func (h *Handler) removeFromCart(c *gin.Context) {
	h.cart.Remove(c.Param("id"))
	h.getCart(c)
}

// checkout materializes the cart into an order. The response always carries
// the messaging deep link; persisted=false tells the storefront to show the
// database warning while still sending the customer on.
func (h *Handler) checkout(c *gin.Context) {
	var req checkout.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Name, phone and address are required",
			"details": err.Error(),
		})
		return
	}

	result, err := h.materializer.Checkout(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.orders.Refresh(c.Request.Context(), "checkout")
	c.JSON(http.StatusCreated, result)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
