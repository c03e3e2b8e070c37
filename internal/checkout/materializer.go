package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motoverse/internal/cart"
	"motoverse/internal/models"
	"motoverse/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Validation errors reported back to the customer form.
var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrMissingFields = errors.New("name, phone and address are required")
)

// OrderPersister is the durable write half of the remote gateway.
type OrderPersister interface {
	CreateOrder(ctx context.Context, o *models.Order) error
}

// EventPublisher is the external messaging handoff.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// CheckoutRequest carries the customer contact fields.
type CheckoutRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// CheckoutResult reports what happened to a confirmed order. Persisted is
// false when the durable write failed; the order still went out through the
// messaging handoff and WhatsAppLink is always set.
type CheckoutResult struct {
	Order        models.Order `json:"order"`
	Persisted    bool         `json:"persisted"`
	PersistError string       `json:"persistError,omitempty"`
	WhatsAppLink string       `json:"whatsappLink"`
}

// Materializer converts a cart plus customer fields into an immutable order:
// a durable write attempt followed by an unconditional messaging handoff.
// Persistence failure is an accepted availability trade-off, not a checkout
// failure.
type Materializer struct {
	cart      *cart.Engine
	persister OrderPersister
	publisher EventPublisher
	waNumber  string
	currency  string
	logger    *zap.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewMaterializer creates a checkout materializer.
func NewMaterializer(c *cart.Engine, persister OrderPersister, publisher EventPublisher, waNumber, currency string) *Materializer {
	return &Materializer{
		cart:      c,
		persister: persister,
		publisher: publisher,
		waNumber:  waNumber,
		currency:  currency,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// Checkout materializes the current cart into an order. Line items are deep
// copies of the cart state and the total is recomputed from those copies, so
// later catalog or cart mutation cannot alter the record. A double submit
// produces two distinct orders; there is no dedup key.
func (m *Materializer) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "Materializer.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	address := strings.TrimSpace(req.Address)
	if name == "" || phone == "" || address == "" {
		util.CheckoutRejectedTotal.WithLabelValues("missing_fields").Inc()
		return nil, ErrMissingFields
	}

	items := m.cart.Items()
	if len(items) == 0 {
		util.CheckoutRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	order := models.Order{
		ID:              uuid.New().String(),
		CustomerName:    name,
		CustomerPhone:   phone,
		CustomerAddress: address,
		Items:           items,
		Date:            m.now(),
		Status:          models.OrderStatusPending,
	}
	for _, item := range order.Items {
		order.Total = order.Total.Add(item.Subtotal())
	}

	result := &CheckoutResult{Order: order, Persisted: true}

	if err := m.persister.CreateOrder(ctx, &order); err != nil {
		util.OrdersPersistFailedTotal.Inc()
		m.logger.Error("Order persistence failed, proceeding with messaging handoff",
			zap.String("order_id", order.ID), zap.Error(err))
		result.Persisted = false
		result.PersistError = err.Error()
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: m.now(),
		},
		Order:     order,
		Persisted: result.Persisted,
		Message:   OrderMessage(order, m.currency),
	}
	if err := m.publisher.PublishOrderPlaced(ctx, event); err != nil {
		m.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_id", order.ID), zap.Error(err))
	}

	result.WhatsAppLink = WhatsAppLink(m.waNumber, event.Message)

	m.cart.Clear()
	util.OrdersPlacedTotal.Inc()
	m.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.String()),
		zap.Bool("persisted", result.Persisted))

	return result, nil
}

// itemLine renders a single order line for the handoff message.
func itemLine(item models.CartItem) string {
	return fmt.Sprintf("- %dx %s", item.Quantity, item.Name)
}
