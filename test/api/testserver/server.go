//go:build api

// Package testserver provides a fully wired test server for API integration tests.
package testserver

import (
	"context"
	"time"

	"quickchat/internal/cache"
	"quickchat/internal/handler"
	"quickchat/internal/queue"
	"quickchat/internal/repository"
	"quickchat/internal/router"
	"quickchat/internal/service"
	"quickchat/internal/storage"
	"quickchat/pkg/auth"
	"quickchat/test/api/testdb"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// TestTokenSecret is the JWT secret used in tests.
	TestTokenSecret = "test-secret-key-for-api-tests"
	// TestTokenExpiry is the token expiry time used in tests.
	TestTokenExpiry = 15 * time.Minute
	// TestWebhookSecret signs the Stripe webhooks sent by tests.
	TestWebhookSecret = "whsec_test_api_secret"
	// TestAppID is stamped on checkout sessions created in tests.
	TestAppID = "quickgpt"
	// TestDefaultCredits is the balance of a freshly registered user.
	TestDefaultCredits = 20
	// TestDBName is the database name used in tests.
	TestDBName = "test_api"
)

// TestServer holds all dependencies for API integration tests.
type TestServer struct {
	// Router is the Gin engine for making HTTP requests.
	Router *gin.Engine

	// Containers
	MongoDB *testdb.MongoContainer
	Redis   *testdb.RedisContainer
	MinIO   *testdb.MinIOContainer

	// Repositories (for direct database access in tests)
	UserRepo        repository.UserRepository
	ChatRepo        repository.ChatRepository
	TransactionRepo repository.TransactionRepository

	// External collaborators replaced with fakes
	Completer *FakeCompleter
	Images    *FakeImageGenerator
	Gateway   *FakeGateway

	// Auth
	JWTManager *auth.JWTManager

	// Fulfilment
	FulfillmentQueue     *queue.MemoryQueue
	FulfillmentProcessor *queue.Processor
	// Fulfiller wraps the processor on the webhook path to inject failures.
	Fulfiller *FaultyFulfiller
	// Reconciler is not started; tests call Reconcile directly.
	Reconciler *queue.Reconciler

	cache *cache.Redis
}

// New creates a new test server with all dependencies wired up.
func New(ctx context.Context) (*TestServer, error) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	// Start containers
	mongoDB, err := testdb.SetupMongoDB(ctx, TestDBName)
	if err != nil {
		return nil, err
	}

	redisContainer, err := testdb.SetupRedis(ctx)
	if err != nil {
		_ = mongoDB.Cleanup(ctx)
		return nil, err
	}

	minioContainer, err := testdb.SetupMinIO(ctx)
	if err != nil {
		_ = mongoDB.Cleanup(ctx)
		_ = redisContainer.Cleanup(ctx)
		return nil, err
	}

	cleanupContainers := func() {
		_ = minioContainer.Cleanup(ctx)
		_ = redisContainer.Cleanup(ctx)
		_ = mongoDB.Cleanup(ctx)
	}

	// Create cache (uses real Redis)
	redisCache, err := cache.NewRedis(ctx, redisContainer.URI, log)
	if err != nil {
		cleanupContainers()
		return nil, err
	}

	// Create storage (uses real MinIO)
	s3Client, err := storage.NewS3Client(ctx, storage.Options{
		Endpoint:  minioContainer.Endpoint,
		AccessKey: minioContainer.AccessKey,
		SecretKey: minioContainer.SecretKey,
		Bucket:    minioContainer.Bucket,
	}, log)
	if err != nil {
		redisCache.Close()
		cleanupContainers()
		return nil, err
	}

	// JWT Manager
	jwtManager := auth.NewJWTManager(TestTokenSecret, TestTokenExpiry)

	// Repository layer
	userRepo := repository.NewUserRepository(mongoDB.Database)
	chatRepo := repository.NewChatRepository(mongoDB.Database)
	txnRepo := repository.NewTransactionRepository(mongoDB.Database)

	// Fakes for the AI providers and Stripe Checkout
	completer := NewFakeCompleter()
	images := NewFakeImageGenerator()
	gateway := NewFakeGateway(TestWebhookSecret, TestAppID)

	// Fulfilment queue and processor
	fulfillmentQueue := queue.NewMemoryQueue(100)
	fulfillmentProcessor := queue.NewProcessor(fulfillmentQueue, txnRepo, userRepo, 2, log)
	fulfiller := NewFaultyFulfiller(fulfillmentProcessor)
	reconciler := queue.NewReconciler(txnRepo, gateway, fulfillmentQueue, time.Hour, log)

	// Service layer
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:       userRepo,
		ChatRepo:       chatRepo,
		JWTManager:     jwtManager,
		DefaultCredits: TestDefaultCredits,
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
		Log:       log,
	})
	creditService := service.NewCreditService(service.CreditServiceConfig{
		TransactionRepo: txnRepo,
		Gateway:         gateway,
		Fulfiller:       fulfiller,
		Queue:           fulfillmentQueue,
		AppID:           TestAppID,
		FrontendURL:     "http://localhost:5173",
		Log:             log,
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
	})

	fulfillmentProcessor.Start(ctx)

	return &TestServer{
		Router:               r,
		MongoDB:              mongoDB,
		Redis:                redisContainer,
		MinIO:                minioContainer,
		UserRepo:             userRepo,
		ChatRepo:             chatRepo,
		TransactionRepo:      txnRepo,
		Completer:            completer,
		Images:               images,
		Gateway:              gateway,
		JWTManager:           jwtManager,
		FulfillmentQueue:     fulfillmentQueue,
		FulfillmentProcessor: fulfillmentProcessor,
		Fulfiller:            fulfiller,
		Reconciler:           reconciler,
		cache:                redisCache,
	}, nil
}

// Cleanup stops the fulfilment processor and terminates all containers.
func (ts *TestServer) Cleanup(ctx context.Context) {
	if ts.FulfillmentProcessor != nil {
		ts.FulfillmentProcessor.Stop()
	}
	if ts.cache != nil {
		ts.cache.Close()
	}
	if ts.MinIO != nil {
		_ = ts.MinIO.Cleanup(ctx)
	}
	if ts.Redis != nil {
		_ = ts.Redis.Cleanup(ctx)
	}
	if ts.MongoDB != nil {
		_ = ts.MongoDB.Cleanup(ctx)
	}
}
