package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log"
	"time"

	"quickchat/internal/config"
	"quickchat/internal/database"
	"quickchat/internal/logger"
	"quickchat/internal/models"
	"quickchat/internal/storage"
	"quickchat/pkg/auth"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedUser describes a demo account.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Credits  int
}

var seedUsers = []SeedUser{
	{Name: "Alice Johnson", Email: "alice@example.com", Password: "password123", Credits: 20},
	{Name: "Bob Smith", Email: "bob@example.com", Password: "password456", Credits: 3},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("starting seed")

	ctx := context.Background()

	// Connect to MongoDB
	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, zlog)
	if err != nil {
		zlog.Fatal("failed to connect", zap.Error(err))
	}
	defer mongoDB.Close()

	// Connect to S3/MinIO
	s3Client, err := storage.NewS3Client(ctx, storage.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
		PublicURL: cfg.S3PublicURL,
	}, zlog)
	if err != nil {
		zlog.Fatal("failed to create s3 client", zap.Error(err))
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		zlog.Fatal("failed to ensure bucket", zap.Error(err))
	}

	users := seedAccounts(ctx, zlog, mongoDB.Database)
	seedChats(ctx, zlog, mongoDB.Database, s3Client, users)
	seedTransactions(ctx, zlog, mongoDB.Database, users)

	zlog.Info("seed completed")
}

func seedAccounts(ctx context.Context, zlog *zap.Logger, db *mongo.Database) []models.User {
	collection := db.Collection(database.UsersCollection)

	// Clear existing users
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		zlog.Fatal("failed to clear users", zap.Error(err))
	}

	now := time.Now()
	users := make([]models.User, 0, len(seedUsers))
	docs := make([]interface{}, 0, len(seedUsers))
	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			zlog.Fatal("failed to hash password", zap.Error(err))
		}
		user := models.User{
			ID:        primitive.NewObjectID(),
			Name:      su.Name,
			Email:     su.Email,
			Password:  hash,
			Credits:   su.Credits,
			CreatedAt: now,
			UpdatedAt: now,
		}
		users = append(users, user)
		docs = append(docs, user)
	}

	if _, err := collection.InsertMany(ctx, docs); err != nil {
		zlog.Fatal("failed to seed users", zap.Error(err))
	}

	zlog.Info("seeded users", zap.Int("count", len(users)))
	return users
}

func seedChats(ctx context.Context, zlog *zap.Logger, db *mongo.Database, s3Client *storage.S3Client, users []models.User) {
	collection := db.Collection(database.ChatsCollection)

	// Clear existing chats
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		zlog.Fatal("failed to clear chats", zap.Error(err))
	}

	alice, bob := users[0], users[1]

	// One published image so the community feed is not empty
	key := storage.ImageKey(alice.ID.Hex(), "seed-lighthouse")
	if err := s3Client.PutObject(ctx, key, placeholderPNG(), "image/png"); err != nil {
		zlog.Fatal("failed to upload seed image", zap.Error(err))
	}

	now := time.Now()
	at := func(ago time.Duration) int64 { return now.Add(-ago).UnixMilli() }

	chats := []interface{}{
		models.Chat{
			ID:       primitive.NewObjectID(),
			UserID:   alice.ID,
			UserName: alice.Name,
			Name:     "Goroutines",
			Messages: []models.Message{
				{Role: models.RoleUser, Content: "Explain goroutines in one paragraph", Timestamp: at(2 * time.Hour)},
				{Role: models.RoleAssistant, Content: "Goroutines are lightweight threads managed by the Go runtime. They start with a small stack that grows as needed, are multiplexed onto OS threads by the scheduler, and usually communicate through channels.", Timestamp: at(2*time.Hour - time.Second)},
			},
			CreatedAt: now.Add(-2 * time.Hour),
			UpdatedAt: now.Add(-2 * time.Hour),
		},
		models.Chat{
			ID:       primitive.NewObjectID(),
			UserID:   alice.ID,
			UserName: alice.Name,
			Name:     "Lighthouse",
			Messages: []models.Message{
				{Role: models.RoleUser, Content: "A lighthouse at dusk, watercolor", Timestamp: at(time.Hour)},
				{Role: models.RoleAssistant, Content: s3Client.PublicURL(key), Timestamp: at(time.Hour - time.Second), IsImage: true, IsPublished: true},
			},
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now.Add(-time.Hour),
		},
		models.Chat{
			ID:        primitive.NewObjectID(),
			UserID:    bob.ID,
			UserName:  bob.Name,
			Name:      models.DefaultChatName,
			Messages:  []models.Message{},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if _, err := collection.InsertMany(ctx, chats); err != nil {
		zlog.Fatal("failed to seed chats", zap.Error(err))
	}

	zlog.Info("seeded chats", zap.Int("count", len(chats)))
}

func seedTransactions(ctx context.Context, zlog *zap.Logger, db *mongo.Database, users []models.User) {
	collection := db.Collection(database.TransactionsCollection)

	// Clear existing transactions
	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		zlog.Fatal("failed to clear transactions", zap.Error(err))
	}

	plan, _ := models.FindPlan("basic")
	now := time.Now()
	paidAt := now.Add(-24 * time.Hour)

	txns := []interface{}{
		models.Transaction{
			ID:        primitive.NewObjectID(),
			UserID:    users[0].ID,
			PlanID:    plan.ID,
			Amount:    plan.Price,
			Credits:   plan.Credits,
			IsPaid:    true,
			CreatedAt: paidAt,
			UpdatedAt: paidAt,
			PaidAt:    &paidAt,
		},
		models.Transaction{
			ID:        primitive.NewObjectID(),
			UserID:    users[1].ID,
			PlanID:    plan.ID,
			Amount:    plan.Price,
			Credits:   plan.Credits,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if _, err := collection.InsertMany(ctx, txns); err != nil {
		zlog.Fatal("failed to seed transactions", zap.Error(err))
	}

	zlog.Info("seeded transactions", zap.Int("count", len(txns)))
}

// placeholderPNG renders a small gradient so the seeded image URL resolves.
func placeholderPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 2), B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
