package models

import "time"

// Event types
const (
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeProductChanged = "PRODUCT_CHANGED"
	EventTypeOrderChanged   = "ORDER_CHANGED"
)

// Change kinds carried by change-feed events
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published at checkout. It carries the full order so the
// messaging channel can serve as the record of last resort when the durable
// write fails.
type OrderPlacedEvent struct {
	BaseEvent
	Order     Order  `json:"order"`
	Persisted bool   `json:"persisted"`
	Message   string `json:"message"`
}

// ProductChangedEvent signals a remote mutation of the products table. The
// consumer treats it as a cache-invalidation signal and refetches the full
// list rather than merging.
type ProductChangedEvent struct {
	BaseEvent
	Change    string `json:"change"`
	ProductID string `json:"product_id"`
}

// OrderChangedEvent signals a remote mutation of the orders table.
type OrderChangedEvent struct {
	BaseEvent
	Change  string `json:"change"`
	OrderID string `json:"order_id"`
}
