package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motoverse/config"
	"motoverse/internal/analytics"
	"motoverse/internal/api"
	"motoverse/internal/auth"
	"motoverse/internal/broker"
	"motoverse/internal/cart"
	"motoverse/internal/catalog"
	"motoverse/internal/checkout"
	"motoverse/internal/diag"
	"motoverse/internal/orders"
	"motoverse/internal/redisclient"
	"motoverse/internal/storage"
	"motoverse/internal/store"
	"motoverse/internal/util"
	"motoverse/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("motoverse", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders)
	defer orderProducer.Close()
	changeProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges)
	defer changeProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(orderProducer, changeProducer)

	catalogCache := catalog.NewCache(db)
	orderCache := orders.NewCache(db)

	ctx := context.Background()
	if err := catalogCache.Refresh(ctx, "startup"); err != nil {
		log.Printf("Initial catalog load failed, will retry on change events: %v", err)
	}
	if err := orderCache.Refresh(ctx, "startup"); err != nil {
		log.Printf("Initial order load failed, will retry on demand: %v", err)
	}

	cartEngine := cart.NewEngine("storefront", redisClient)
	cartEngine.Load(ctx)

	materializer := checkout.NewMaterializer(
		cartEngine, db, eventPublisher,
		cfg.Shop.WhatsAppNumber, cfg.Shop.Currency,
	)

	sessionManager := auth.NewManager(cfg.Auth.BaseURL, cfg.Auth.APIKey, redisClient)
	sessionManager.Restore(ctx)

	uploader := storage.NewUploader(
		cfg.Storage.BaseURL, cfg.Storage.Bucket, cfg.Auth.APIKey,
		cfg.Storage.MaxUploadSize,
	)

	diagnostics := diag.NewRunner(sessionManager, db, uploader, redisClient)
	reporter := analytics.NewReporter()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	changeConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges, cfg.Kafka.ConsumerGroup)
	changeWorker := worker.NewChangeWorker(changeConsumer, catalogCache, orderCache)
	go func() {
		if err := changeWorker.Start(workerCtx); err != nil {
			log.Printf("Change worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(
		catalogCache, orderCache, cartEngine, materializer,
		db, sessionManager, uploader, reporter, diagnostics,
		eventPublisher, cfg.Shop.LowStockThreshold,
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	changeWorker.Stop()

	log.Println("Server exited")
}
