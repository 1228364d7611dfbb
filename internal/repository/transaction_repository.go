package repository

import (
	"context"
	"errors"
	"time"

	"quickchat/internal/database"
	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransactionRepository defines the interface for credit purchase records.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error)
	SetSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error
	// MarkPaid flips isPaid from false to true. It returns
	// ErrTransactionAlreadyPaid when another caller got there first.
	MarkPaid(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error)
	// FindPendingCheckouts returns unpaid transactions with a checkout
	// session created since the given time, oldest first.
	FindPendingCheckouts(ctx context.Context, since time.Time) ([]models.Transaction, error)
}

// pendingCheckoutsLimit caps one reconciliation batch.
const pendingCheckoutsLimit = 100

// transactionRepository implements TransactionRepository using MongoDB.
type transactionRepository struct {
	collection *mongo.Collection
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *mongo.Database) TransactionRepository {
	return &transactionRepository{
		collection: db.Collection(database.TransactionsCollection),
	}
}

// Create inserts an unpaid transaction.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	txn.ID = primitive.NewObjectID()
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	txn.IsPaid = false
	txn.PaidAt = nil

	_, err := r.collection.InsertOne(ctx, txn)
	return err
}

// FindByID retrieves a transaction by ID.
func (r *transactionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	var txn models.Transaction

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, err
	}

	return &txn, nil
}

// FindByUser returns the user's transactions, newest first.
func (r *transactionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, err
	}

	if txns == nil {
		txns = []models.Transaction{}
	}

	return txns, nil
}

// SetSessionID records the checkout session created for the transaction.
func (r *transactionRepository) SetSessionID(ctx context.Context, id primitive.ObjectID, sessionID string) error {
	update := bson.M{"$set": bson.M{
		"stripeSessionId": sessionID,
		"updatedAt":       time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// MarkPaid sets isPaid only on an unpaid transaction.
func (r *transactionRepository) MarkPaid(ctx context.Context, id primitive.ObjectID) (*models.Transaction, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"isPaid":    true,
		"paidAt":    now,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var txn models.Transaction
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "isPaid": false}, update, opts).Decode(&txn)
	if err == nil {
		return &txn, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, apperrors.ErrTransactionAlreadyPaid
}

// FindPendingCheckouts lists checkouts that may have been paid without the
// transaction being fulfilled.
func (r *transactionRepository) FindPendingCheckouts(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	filter := bson.M{
		"isPaid":          false,
		"stripeSessionId": bson.M{"$exists": true, "$ne": ""},
		"createdAt":       bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(pendingCheckoutsLimit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, err
	}

	if txns == nil {
		txns = []models.Transaction{}
	}

	return txns, nil
}
