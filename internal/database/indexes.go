package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the indexes every collection needs.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ChatsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
			// Published image feed
			{Keys: bson.D{{Key: "messages.isImage", Value: 1}, {Key: "messages.isPublished", Value: 1}}},
			// Empty-chat sweeper
			{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
		},
		TransactionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "stripeSessionId", Value: 1}}, Options: options.Index().SetSparse(true)},
			// Checkout reconciliation
			{Keys: bson.D{{Key: "isPaid", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
}

// EnsureIndexes creates all indexes, returning the created index names per collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) (map[string][]string, error) {
	created := make(map[string][]string)
	for collection, models := range Indexes() {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return created, fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		created[collection] = names
	}
	return created, nil
}
