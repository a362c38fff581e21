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

	"inventory-service/config"
	"inventory-service/internal/api"
	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/redisclient"
	"inventory-service/internal/service"
	"inventory-service/internal/store"
	"inventory-service/internal/store/memstore"
	"inventory-service/internal/util"
	"inventory-service/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const seedLock = "inventory-seed"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory service")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Auth.SessionTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	var gateway store.Gateway
	var db *store.Store
	switch cfg.Database.Driver {
	case "memory":
		gateway = memstore.New()
		logger.Warn("Using in-memory store, data is lost on restart")
	default:
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		gateway = db
		logger.Info("Database connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicLedger))

	state := service.NewState(gateway, models.DefaultCatalog)
	inventoryService := service.NewInventoryService(state, eventPublisher, cfg.Business.AmazonLowStock)
	orderService := service.NewOrderService(state, eventPublisher, redisClient, cfg.Auth.DeletePassword)
	authService := service.NewAuthService(redisClient, cfg.Auth)

	if cfg.Auth.DeletePassword == "" {
		logger.Warn("DELETE_PASSWORD is not set, order deletion is disabled")
	}
	if cfg.Auth.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set, login is disabled")
	}

	if err := loadState(context.Background(), state, redisClient, logger); err != nil {
		logger.Error("Initial load failed, retry with POST /api/v1/reload", zap.Error(err))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	alertConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger, cfg.Kafka.ConsumerGroup)
	alertWorker := worker.NewStockAlertWorker(alertConsumer, cfg.Business.AmazonLowStock)
	go func() {
		if err := alertWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Stock alert worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(state, inventoryService, orderService, authService, cfg.Business.Location())
	handler.AddReadinessCheck("redis", redisClient.Ping)
	if db != nil {
		handler.AddReadinessCheck("database", db.Ping)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if port := cfg.Observ.PrometheusPort; port != "" && port != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%s", port), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	workerCancel()
	if err := alertWorker.Stop(); err != nil {
		logger.Warn("Error stopping stock alert worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loadState seeds and loads the mirror while holding a Redis lock, so replicas
// starting together do not seed the catalog twice
func loadState(ctx context.Context, state *service.State, redisClient *redisclient.Client, logger *zap.Logger) error {
	for attempt := 0; attempt < 10; attempt++ {
		acquired, err := redisClient.AcquireLock(ctx, seedLock, 30*time.Second)
		if err != nil {
			logger.Warn("Failed to acquire seed lock, loading without it", zap.Error(err))
			return state.Load(ctx)
		}
		if acquired {
			defer func() {
				if err := redisClient.ReleaseLock(ctx, seedLock); err != nil {
					logger.Warn("Failed to release seed lock", zap.Error(err))
				}
			}()
			return state.Load(ctx)
		}
		time.Sleep(time.Second)
	}

	logger.Warn("Seed lock still held, loading anyway")
	return state.Load(ctx)
}
