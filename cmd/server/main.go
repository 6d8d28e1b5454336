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

	"tracer-store/config"
	"tracer-store/internal/api"
	"tracer-store/internal/broker"
	"tracer-store/internal/genai"
	"tracer-store/internal/redisclient"
	"tracer-store/internal/service"
	"tracer-store/internal/store"
	"tracer-store/internal/util"
	"tracer-store/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// notificationBus carries notification events between sessions and sockets
type notificationBus interface {
	service.NotificationSink
	api.NotificationSubscriber
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting tracer store")

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
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

	catalog := store.DefaultCatalog()

	var bus notificationBus = service.NewLocalHub()
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		bus = redisClient
		logger.Info("Redis connected, notifications fan out over pub/sub")
	} else {
		logger.Info("REDIS_ADDR not set, notifications stay in process")
	}

	var publisher service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		logger.Info("KAFKA_BROKERS not set, store events are not published")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var receiptReader api.ReceiptReader
	var receiptWorker *worker.ReceiptWorker
	if cfg.Database.URL != "" {
		receipts, err := store.NewReceiptStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer receipts.Close()
		receiptReader = receipts
		logger.Info("Database connected")

		if len(cfg.Kafka.Brokers) > 0 {
			consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStore, cfg.Kafka.ConsumerGroup)
			receiptWorker = worker.NewReceiptWorker(consumer, receipts)
			go func() {
				if err := receiptWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
					logger.Error("Receipt worker error", zap.Error(err))
				}
			}()
		} else {
			logger.Info("KAFKA_BROKERS not set, receipts are not archived")
		}
	} else {
		logger.Info("DATABASE_URL not set, receipt archive disabled")
	}

	if cfg.Gemini.APIKey == "" {
		logger.Warn("No Gemini API key configured, product cards will show fallback copy")
	}
	textClient := genai.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.Gemini.Timeout)
	generator := service.NewCopyGenerator(textClient, cfg.Gemini.Timeout)
	logger.Info("Copy generator configured", zap.String("model", textClient.Model()))

	sessions := service.NewSessionManager(service.SessionDeps{
		Catalog:         catalog,
		Generator:       generator,
		Publisher:       publisher,
		Sink:            bus,
		NotificationTTL: cfg.Business.NotificationTTL,
	}, cfg.Business.SessionIdleTimeout)

	janitor := worker.NewSessionJanitor(sessions, cfg.Business.JanitorInterval)
	go func() {
		_ = janitor.Start(workerCtx)
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(catalog, sessions, bus, receiptReader)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	sessions.Shutdown()

	workerCancel()
	if receiptWorker != nil {
		if err := receiptWorker.Stop(); err != nil {
			logger.Error("Error stopping receipt worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
