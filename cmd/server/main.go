package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plotline-gh/marketplace/backend-go/internal/api"
	"github.com/plotline-gh/marketplace/backend-go/internal/config"
	"github.com/plotline-gh/marketplace/backend-go/internal/database"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/repository"
	"github.com/plotline-gh/marketplace/backend-go/internal/database/service"
	"github.com/plotline-gh/marketplace/backend-go/internal/events"
	"github.com/plotline-gh/marketplace/backend-go/internal/handler"
	"github.com/plotline-gh/marketplace/backend-go/internal/logger"
	"github.com/plotline-gh/marketplace/backend-go/internal/middleware"
	"github.com/plotline-gh/marketplace/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting marketplace API...",
		"environment", cfg.AppEnv,
		"port", cfg.ApiServicePort,
	)

	// 3. Plan catalog sanity check
	if err := config.ValidateCatalog(); err != nil {
		appLogger.Error("❌ Plan catalog is invalid", "error", err)
		os.Exit(1)
	}

	// 4. Connect to Database
	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := database.GetDatabase()

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	listingRepo := repository.NewListingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	crmRepo := repository.NewCRMRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// 6. Initialize Daily Message Quota
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		appLogger.Info("💡 Daily message quota will be enforced from Postgres counts only")
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 7. Initialize Event Publisher
	var publisher events.Publisher
	amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to RabbitMQ, events will be dropped", "error", err)
		publisher = events.NewNoopPublisher(appLogger)
	} else {
		publisher = amqpPublisher
	}
	defer publisher.Close()

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg, appLogger)
	subscriptionService := service.NewSubscriptionService(userRepo, listingRepo, crmRepo, messageRepo, rateLimiter, publisher, appLogger)
	listingService := service.NewListingService(listingRepo, userRepo, publisher, appLogger)
	transactionService := service.NewTransactionService(transactionRepo, listingRepo, userRepo, publisher, appLogger)
	crmService := service.NewCRMService(crmRepo, userRepo, publisher, appLogger)
	messageService := service.NewMessageService(messageRepo, userRepo, rateLimiter, publisher, appLogger)

	// 9. Initialize Handlers & Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)
	handlers := api.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.DefaultPhoneRegion, appLogger),
		Plan:         handler.NewPlanHandler(subscriptionService, appLogger),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, appLogger),
		Listing:      handler.NewListingHandler(listingService, appLogger),
		Transaction:  handler.NewTransactionHandler(transactionService, appLogger),
		CRM:          handler.NewCRMHandler(crmService, appLogger),
		Message:      handler.NewMessageHandler(messageService, appLogger),
		Admin:        handler.NewAdminHandler(subscriptionService, transactionService, appLogger),
	}

	r := api.SetupRouter(handlers, authMiddleware)

	// 10. Start Background Jobs
	scheduler := worker.NewScheduler(appLogger)
	scheduler.Every("subscription-sweep", cfg.SweepInterval(), worker.NewExpirySweep(subscriptionService, refreshTokenRepo, appLogger))

	// 11. Start HTTP Server
	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// 12. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	appLogger.Info("🛑 [Go] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("❌ HTTP Server shutdown error", "error", err)
	}
	scheduler.Shutdown(10 * time.Second)

	appLogger.Info("👋 [Go] Server stopped gracefully")
}
