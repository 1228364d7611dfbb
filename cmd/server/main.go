package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickchat/internal/ai"
	"quickchat/internal/cache"
	"quickchat/internal/config"
	"quickchat/internal/database"
	"quickchat/internal/handler"
	"quickchat/internal/logger"
	"quickchat/internal/payment"
	"quickchat/internal/queue"
	"quickchat/internal/repository"
	"quickchat/internal/router"
	"quickchat/internal/service"
	"quickchat/internal/storage"
	"quickchat/internal/sweeper"
	"quickchat/internal/validator"
	"quickchat/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fulfillmentQueueSize bounds the backlog of fulfilment retries.
const fulfillmentQueueSize = 100

// @title           QuickChat API
// @version         1.0
// @description     Credit-metered AI chat backend: users, chats, text and image replies, Stripe credit purchases.

// @contact.name    API Support
// @contact.email   support@example.com

// @host            localhost:8080
// @BasePath        /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your token, optionally prefixed with Bearer

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// Register custom validators
	validator.RegisterCustomValidators()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, zlog)
	if err != nil {
		return err
	}
	defer mongoDB.Close()

	// Redis Cache
	redisCache, err := cache.NewRedis(ctx, cfg.RedisURI, zlog)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// S3 Storage
	s3Client, err := storage.NewS3Client(ctx, storage.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
		PublicURL: cfg.S3PublicURL,
	}, zlog)
	if err != nil {
		return err
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return err
	}

	// AI providers
	completer, closeCompleter, err := newCompleter(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeCompleter()
	images := ai.NewImageKitGenerator(cfg.ImageKitURLEndpoint, zlog)

	// Payments
	gateway := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.AppID)

	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Repository layer
	userRepo := repository.NewUserRepository(mongoDB.Database)
	chatRepo := repository.NewChatRepository(mongoDB.Database)
	txnRepo := repository.NewTransactionRepository(mongoDB.Database)

	// Fulfilment queue and processor
	fulfillmentQueue := queue.NewMemoryQueue(fulfillmentQueueSize)
	fulfillmentProcessor := queue.NewProcessor(fulfillmentQueue, txnRepo, userRepo, cfg.FulfillmentWorkers, zlog)
	checkoutReconciler := queue.NewReconciler(txnRepo, gateway, fulfillmentQueue, cfg.ReconcileInterval, zlog)

	// Empty chat cleanup
	chatSweeper := sweeper.New(chatRepo, cfg.EmptyChatTTL, cfg.SweepInterval, zlog)

	// Service layer
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       userRepo,
		ChatRepo:       chatRepo,
		JWTManager:     jwtManager,
		DefaultCredits: cfg.DefaultCredits,
	})
	userService := service.NewUserService(userRepo, chatRepo, redisCache)
	chatService := service.NewChatService(chatRepo, userRepo)
	messageService := service.NewMessageService(service.MessageServiceConfig{
		ChatRepo:  chatRepo,
		UserRepo:  userRepo,
		Completer: completer,
		Images:    images,
		Storage:   s3Client,
		Cache:     redisCache,
		Log:       zlog,
	})
	creditService := service.NewCreditService(service.CreditServiceConfig{
		TransactionRepo: txnRepo,
		Gateway:         gateway,
		Fulfiller:       fulfillmentProcessor,
		Queue:           fulfillmentQueue,
		AppID:           cfg.AppID,
		FrontendURL:     cfg.FrontendURL,
		Log:             zlog,
	})
	suggestionService := service.NewSuggestionService(service.DefaultPromptTemplates)

	// Router
	r := router.Setup(&router.Config{
		AuthHandler:    handler.NewAuthHandler(authService),
		UserHandler:    handler.NewUserHandler(userService),
		ChatHandler:    handler.NewChatHandler(chatService),
		MessageHandler: handler.NewMessageHandler(messageService, suggestionService),
		CreditHandler:  handler.NewCreditHandler(creditService),
		TokenManager:   jwtManager,
		Logger:         zlog,
	})

	// Start background workers
	fulfillmentProcessor.Start(ctx)
	checkoutReconciler.Start(ctx)
	chatSweeper.Start(ctx)

	// Create HTTP server for graceful shutdown support
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		zlog.Info("shutdown signal received")
	case err := <-serverErr:
		zlog.Error("server failed", zap.Error(err))
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first (drain connections)
	zlog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Stop workers; the processor drains jobs already queued
	zlog.Info("stopping background workers")
	chatSweeper.Stop()
	checkoutReconciler.Stop()
	fulfillmentProcessor.Stop()
	cancel()

	zlog.Info("server shutdown complete")
	return nil
}

// newCompleter builds the configured completion provider and a func that
// releases it.
func newCompleter(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (ai.Completer, func(), error) {
	switch cfg.AIProvider {
	case "gemini":
		c, err := ai.NewGeminiCompleter(ctx, cfg.AIAPIKey, cfg.AIModel, zlog)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		c, err := ai.NewOpenAICompleter(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, zlog)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
}
