package main

import (
	"context"
	"log"
	"time"

	"quickchat/internal/config"
	"quickchat/internal/database"
	"quickchat/internal/logger"

	"go.uber.org/zap"
)

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

	zlog.Info("starting migration")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, zlog)
	if err != nil {
		zlog.Fatal("failed to connect", zap.Error(err))
	}
	defer mongoDB.Close()

	created, err := database.EnsureIndexes(ctx, mongoDB.Database)
	for collection, names := range created {
		for _, name := range names {
			zlog.Info("created index", zap.String("collection", collection), zap.String("index", name))
		}
	}
	if err != nil {
		zlog.Fatal("failed to create indexes", zap.Error(err))
	}

	zlog.Info("migration completed")
}
