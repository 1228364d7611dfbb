// Package repository provides data access operations for the application.
package repository

//go:generate mockgen -destination=mocks/mock_repositories.go -package=mocks quickchat/internal/repository UserRepository,ChatRepository,TransactionRepository

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

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// DeductCredits removes amount credits only if the balance covers it and
	// returns the remaining balance.
	DeductCredits(ctx context.Context, id primitive.ObjectID, amount int) (int, error)
	AddCredits(ctx context.Context, id primitive.ObjectID, amount int) (int, error)
	// GrantPurchase adds a purchase's credits once per transaction and
	// returns ErrPurchaseAlreadyGranted on a repeat.
	GrantPurchase(ctx context.Context, id, transactionID primitive.ObjectID, amount int) (int, error)
}

// userRepository implements UserRepository using MongoDB
type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		collection: db.Collection(database.UsersCollection),
	}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	existing, _ := r.FindByEmail(ctx, user.Email)
	if existing != nil {
		return apperrors.ErrUserAlreadyExists
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrUserAlreadyExists
		}
		return err
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail finds a user by their email
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User

	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// DeductCredits atomically debits the balance. The filter carries the
// balance check so two concurrent debits can never overdraw.
func (r *userRepository) DeductCredits(ctx context.Context, id primitive.ObjectID, amount int) (int, error) {
	filter := bson.M{"_id": id, "credits": bson.M{"$gte": amount}}

	user, err := r.incCredits(ctx, filter, -amount)
	if err == nil {
		return user.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	// Tell a missing user apart from an empty wallet
	if _, err := r.FindByID(ctx, id); err != nil {
		return 0, err
	}
	return 0, apperrors.ErrInsufficientCredits
}

// AddCredits atomically credits the balance.
func (r *userRepository) AddCredits(ctx context.Context, id primitive.ObjectID, amount int) (int, error) {
	user, err := r.incCredits(ctx, bson.M{"_id": id}, amount)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, err
	}
	return user.Credits, nil
}

// GrantPurchase credits the balance and records transactionID in the same
// update, so retried fulfilment cannot grant a purchase twice.
func (r *userRepository) GrantPurchase(ctx context.Context, id, transactionID primitive.ObjectID, amount int) (int, error) {
	filter := bson.M{"_id": id, "grantedPurchases": bson.M{"$ne": transactionID}}
	update := bson.M{
		"$inc":  bson.M{"credits": amount},
		"$push": bson.M{"grantedPurchases": transactionID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == nil {
		return user.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, err
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return existing.Credits, apperrors.ErrPurchaseAlreadyGranted
}

func (r *userRepository) incCredits(ctx context.Context, filter bson.M, delta int) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"credits": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
