package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	ws "github.com/ikkim/storefront-backend/internal/websocket"
	"github.com/ikkim/storefront-backend/pkg/kafka"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
	"github.com/ikkim/storefront-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting storefront backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if cfg.Database.Seed {
		if err := db.Seed(); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Featured products are cached only when redis is configured
	var productCache service.ProductCache
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, featured products will not be cached", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			productCache = redis.NewCache(redis.GetClient(), "catalog")
			defer redis.Close()
		}
	}
	featured := service.NewFeaturedCache(productCache, cfg.Catalog.FeaturedCacheTTL)

	// Order feed hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	sinks := []service.OrderNotifier{service.LogNotifier{}, service.NewFeedOrderNotifier(hub)}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(&cfg.Kafka)
		if err != nil {
			logger.Warn("Kafka producer disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			sinks = append(sinks, service.NewKafkaOrderNotifier(producer))
			defer producer.Close()
		}
	}
	notifications := service.NewNotificationService(cfg.Notification.Timeout, sinks...)

	// Initialize repositories
	database := db.GetDB()
	productRepo := repository.NewProductRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	customerRepo := repository.NewCustomerRepository(database)
	newsletterRepo := repository.NewNewsletterRepository(database)

	// Cart and checkout share the per-owner lock
	ownerLocks := util.NewKeyedMutex()

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, reviewRepo, featured)
	cartService := service.NewCartService(cartRepo, productRepo, ownerLocks)
	orderService := service.NewOrderService(database, orderRepo, cartRepo, customerRepo, ownerLocks, notifications, featured)
	reviewService := service.NewReviewService(database, reviewRepo, featured)
	customerService := service.NewCustomerService(customerRepo)
	newsletterService := service.NewNewsletterService(newsletterRepo)
	statsService := service.NewStatsService(orderRepo)

	// Setup router
	r := router.NewRouter(
		controller.NewProductController(productService, reviewService),
		controller.NewCartController(cartService),
		controller.NewOrderController(orderService),
		controller.NewReviewController(reviewService),
		controller.NewCustomerController(customerService, orderService),
		controller.NewNewsletterController(newsletterService),
		controller.NewStatsController(statsService),
		controller.NewFeedController(hub, cfg.CORS.AllowedOrigins),
		cfg,
	)

	cleanup := scheduler.NewCartCleanupScheduler(cartService, cfg.Cart.CleanupSchedule, cfg.Cart.StaleAfter)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start cart cleanup scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	cleanup.Stop()
	// deliver events of orders placed before shutdown
	notifications.Wait()
	stopHub()
	<-hub.Done()

	logger.Info("Server stopped successfully")
}
