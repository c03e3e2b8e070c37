package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"motoverse/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing storefront events
type EventPublisher struct {
	orders  *Producer
	changes *Producer
}

// NewEventPublisher creates a new event publisher. Order handoff events and
// change-feed events go to separate topics.
func NewEventPublisher(orders, changes *Producer) *EventPublisher {
	return &EventPublisher{orders: orders, changes: changes}
}

// PublishOrderPlaced publishes the checkout handoff event. When the durable
// write failed this event is the record of last resort, so publish errors are
// returned rather than swallowed.
func (ep *EventPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	key := fmt.Sprintf("order-%s", event.Order.ID)
	return ep.orders.PublishEvent(ctx, key, event)
}

// PublishProductChanged publishes a product change notification
func (ep *EventPublisher) PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error {
	key := fmt.Sprintf("product-%s", event.ProductID)
	return ep.changes.PublishEvent(ctx, key, event)
}

// PublishOrderChanged publishes an order change notification
func (ep *EventPublisher) PublishOrderChanged(ctx context.Context, event *models.OrderChangedEvent) error {
	key := fmt.Sprintf("order-%s", event.OrderID)
	return ep.changes.PublishEvent(ctx, key, event)
}

// NotifyProductChanged builds and publishes a product change notification.
// Failures are logged only: change events are a refresh hint, not state.
func (ep *EventPublisher) NotifyProductChanged(ctx context.Context, change, productID string) {
	event := &models.ProductChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeProductChanged,
			Timestamp: time.Now(),
		},
		Change:    change,
		ProductID: productID,
	}
	if err := ep.PublishProductChanged(ctx, event); err != nil {
		log.Printf("Failed to publish ProductChanged event: %v", err)
	}
}

// NotifyOrderChanged builds and publishes an order change notification.
func (ep *EventPublisher) NotifyOrderChanged(ctx context.Context, change, orderID string) {
	event := &models.OrderChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderChanged,
			Timestamp: time.Now(),
		},
		Change:  change,
		OrderID: orderID,
	}
	if err := ep.PublishOrderChanged(ctx, event); err != nil {
		log.Printf("Failed to publish OrderChanged event: %v", err)
	}
}

// EventHandler routes incoming change-feed events
type EventHandler struct {
	onProductChanged func(context.Context, *models.ProductChangedEvent) error
	onOrderChanged   func(context.Context, *models.OrderChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnProductChanged registers a handler for ProductChanged events
func (eh *EventHandler) OnProductChanged(handler func(context.Context, *models.ProductChangedEvent) error) {
	eh.onProductChanged = handler
}

// OnOrderChanged registers a handler for OrderChanged events
func (eh *EventHandler) OnOrderChanged(handler func(context.Context, *models.OrderChangedEvent) error) {
	eh.onOrderChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeProductChanged:
		if eh.onProductChanged != nil {
			var event models.ProductChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductChanged event: %w", err)
			}
			return eh.onProductChanged(ctx, &event)
		}

	case models.EventTypeOrderChanged:
		if eh.onOrderChanged != nil {
			var event models.OrderChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderChanged event: %w", err)
			}
			return eh.onOrderChanged(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
