package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"motoverse/internal/auth"
	"motoverse/internal/models"
	"motoverse/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("price must be non-negative")
	}
	return d, nil
}

// requireSession gates the admin surface on a live session, refreshing an
// expiring token on the way through.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.auth.EnsureFresh(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not signed in"})
			return
		}
		c.Next()
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login signs the admin in. Bad credentials keep the user on the login view
// with a credential error; anything else is a gateway failure.
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Email and password are required",
			"details": err.Error(),
		})
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sign-in failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":     session.Email,
		"expiresAt": session.ExpiresAt,
	})
}

// logout tears the session down.
func (h *Handler) logout(c *gin.Context) {
	h.auth.SignOut(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// dashboardInputs loads the snapshot every analytics endpoint aggregates
// over, falling back to the gateway when a cache is cold.
func (h *Handler) dashboardInputs(c *gin.Context) ([]models.Order, []models.Product, bool) {
	orderList, loaded := h.orders.Orders()
	if !loaded {
		if err := h.orders.Refresh(c.Request.Context(), "dashboard"); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load orders", "details": err.Error()})
			return nil, nil, false
		}
		orderList, _ = h.orders.Orders()
	}
	products, _ := h.catalog.Products()
	return orderList, products, true
}

// summary returns the dashboard metric block.
func (h *Handler) summary(c *gin.Context) {
	orderList, products, ok := h.dashboardInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.reporter.Metrics(orderList, products, h.lowStock, time.Now()))
}

// trend returns the revenue trend; days is capped to the supported windows.
func (h *Handler) trend(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || (days != 7 && days != 30 && days != 90) {
		days = 30
	}

	orderList, products, ok := h.dashboardInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"days":  days,
		"trend": h.reporter.Trend(orderList, products, days, time.Now()),
	})
}

// categories returns the category revenue split.
func (h *Handler) categories(c *gin.Context) {
	orderList, products, ok := h.dashboardInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": h.reporter.Categories(orderList, products, time.Now()),
	})
}

// topProducts returns the top-K sellers by revenue.
func (h *Handler) topProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 || limit > 50 {
		limit = 5
	}

	orderList, products, ok := h.dashboardInputs(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": h.reporter.Top(orderList, products, limit, time.Now()),
	})
}

// listOrders returns the order history, newest first.
func (h *Handler) listOrders(c *gin.Context) {
	orderList, loaded := h.orders.Orders()
	if !loaded {
		if err := h.orders.Refresh(c.Request.Context(), "dashboard"); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load orders", "details": err.Error()})
			return
		}
		orderList, _ = h.orders.Orders()
	}
	c.JSON(http.StatusOK, gin.H{"orders": orderList})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateOrderStatus moves an order along the pending, processing, shipped,
// completed chain, or to cancelled.
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Status is required",
			"details": err.Error(),
		})
		return
	}

	id := c.Param("id")
	order, err := h.store.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "details": err.Error()})
		return
	}

	if !models.ValidStatusTransition(order.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  order.Status,
			"to":    req.Status,
		})
		return
	}

	if err := h.store.UpdateOrderStatus(c.Request.Context(), id, req.Status); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update order", "details": err.Error()})
		return
	}

	h.notifier.NotifyOrderChanged(c.Request.Context(), models.ChangeUpdate, id)
	h.orders.Refresh(c.Request.Context(), "admin")
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// deleteOrder removes an order from history.
func (h *Handler) deleteOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteOrder(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete order", "details": err.Error()})
		return
	}

	h.notifier.NotifyOrderChanged(c.Request.Context(), models.ChangeDelete, id)
	h.orders.Refresh(c.Request.Context(), "admin")
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

type productRequest struct {
	Name        string       `json:"name" binding:"required"`
	Brand       string       `json:"brand"`
	Category    string       `json:"category" binding:"required"`
	Price       string       `json:"price" binding:"required"`
	Image       string       `json:"image" binding:"required"`
	Description string       `json:"description"`
	Stock       int          `json:"stock"`
	Specs       models.Specs `json:"specs"`
	Condition   string       `json:"condition"`
	FuelType    string       `json:"fuelType"`
}

func (r *productRequest) toModel(id string) (*models.Product, error) {
	price, err := parsePrice(r.Price)
	if err != nil {
		return nil, err
	}
	if r.Stock < 0 {
		return nil, errors.New("stock must be non-negative")
	}
	brand := r.Brand
	if brand == "" {
		brand = "Generic"
	}

	p := &models.Product{
		ID:          id,
		Name:        r.Name,
		Brand:       brand,
		Category:    r.Category,
		Price:       price,
		Image:       r.Image,
		Description: r.Description,
		Stock:       r.Stock,
		Specs:       r.Specs,
		Condition:   r.Condition,
		FuelType:    r.FuelType,
	}
	p.Normalize()
	return p, nil
}

// createProduct adds a catalog entry and nudges every client to refetch.
func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Name, category, price and image are required",
			"details": err.Error(),
		})
		return
	}

	p, err := req.toModel(uuid.New().String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateProduct(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create product", "details": err.Error()})
		return
	}

	h.notifier.NotifyProductChanged(c.Request.Context(), models.ChangeInsert, p.ID)
	h.catalog.Refresh(c.Request.Context(), "admin")
	c.JSON(http.StatusCreated, p)
}

// updateProduct replaces a catalog entry.
func (h *Handler) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Name, category, price and image are required",
			"details": err.Error(),
		})
		return
	}

	p, err := req.toModel(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateProduct(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to update product", "details": err.Error()})
		return
	}

	h.notifier.NotifyProductChanged(c.Request.Context(), models.ChangeUpdate, p.ID)
	h.catalog.Refresh(c.Request.Context(), "admin")
	c.JSON(http.StatusOK, p)
}

// deleteProduct removes a catalog entry. Past orders keep their snapshots.
func (h *Handler) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete product", "details": err.Error()})
		return
	}

	h.notifier.NotifyProductChanged(c.Request.Context(), models.ChangeDelete, id)
	h.catalog.Refresh(c.Request.Context(), "admin")
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// upload pushes a product image to object storage and returns its public URL.
// Oversized files never reach the storage service.
func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file field is required", "details": err.Error()})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload", "details": err.Error()})
		return
	}
	defer src.Close()

	url, err := h.uploader.Upload(c.Request.Context(), file.Filename, file.Size, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upload failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// runDiagnostics returns the reachability self-test report.
func (h *Handler) runDiagnostics(c *gin.Context) {
	c.String(http.StatusOK, h.diagnostics.Run(c.Request.Context()))
}
