package worker

import (
	"context"
	"log"

	"motoverse/internal/broker"
	"motoverse/internal/catalog"
	"motoverse/internal/models"
	"motoverse/internal/orders"
)

// ChangeWorker consumes remote change notifications and refreshes the local
// caches. Each event is treated purely as a cache-invalidation signal: the
// worker refetches and replaces the full list rather than merging, accepting
// last-write-wins for in-flight local edits.
type ChangeWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewChangeWorker creates a worker bound to the change-feed topic.
func NewChangeWorker(consumer *broker.Consumer, catalogCache *catalog.Cache, orderCache *orders.Cache) *ChangeWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnProductChanged(func(ctx context.Context, _ *models.ProductChangedEvent) error {
		return catalogCache.Refresh(ctx, "change-feed")
	})
	eventHandler.OnOrderChanged(func(ctx context.Context, _ *models.OrderChangedEvent) error {
		return orderCache.Refresh(ctx, "change-feed")
	})

	return &ChangeWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *ChangeWorker) Start(ctx context.Context) error {
	log.Println("Starting change-feed worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ChangeWorker) Stop() error {
	log.Println("Stopping change-feed worker...")
	return w.consumer.Close()
}
