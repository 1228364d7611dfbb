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

// publishedImagesLimit caps the community feed.
const publishedImagesLimit = 100

// ChatRepository defines the interface for chat data operations.
// Every lookup is scoped to the owning user.
type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	FindEmptyByUser(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error)
	AppendMessages(ctx context.Context, id, userID primitive.ObjectID, messages ...models.Message) error
	Touch(ctx context.Context, id, userID primitive.ObjectID) (time.Time, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FindPublishedImages(ctx context.Context) ([]models.PublishedImage, error)
}

// chatRepository implements ChatRepository using MongoDB.
type chatRepository struct {
	collection *mongo.Collection
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{
		collection: db.Collection(database.ChatsCollection),
	}
}

// Create inserts a new chat.
func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	chat.ID = primitive.NewObjectID()
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	if chat.Name == "" {
		chat.Name = models.DefaultChatName
	}
	if chat.Messages == nil {
		chat.Messages = []models.Message{}
	}

	_, err := r.collection.InsertOne(ctx, chat)
	return err
}

// FindByIDAndUser retrieves a chat owned by userID.
func (r *chatRepository) FindByIDAndUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat

	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, err
	}

	return &chat, nil
}

// FindByUser returns the user's chats, most recently updated first.
func (r *chatRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil
	if chats == nil {
		chats = []models.Chat{}
	}

	return chats, nil
}

// FindEmptyByUser returns the user's newest chat without messages.
func (r *chatRepository) FindEmptyByUser(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error) {
	filter := bson.M{"userId": userID, "messages": bson.M{"$size": 0}}
	opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}})

	var chat models.Chat
	err := r.collection.FindOne(ctx, filter, opts).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, err
	}

	return &chat, nil
}

// AppendMessages pushes messages onto the end of the chat in one update, so
// concurrent sends never overwrite each other.
func (r *chatRepository) AppendMessages(ctx context.Context, id, userID primitive.ObjectID, messages ...models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrChatNotFound
	}

	return nil
}

// Touch bumps updatedAt so a reused empty chat is not swept.
func (r *chatRepository) Touch(ctx context.Context, id, userID primitive.ObjectID) (time.Time, error) {
	now := time.Now()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return time.Time{}, err
	}
	if result.MatchedCount == 0 {
		return time.Time{}, apperrors.ErrChatNotFound
	}

	return now, nil
}

// Delete removes a chat owned by userID.
func (r *chatRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return apperrors.ErrChatNotFound
	}

	return nil
}

// DeleteEmptyBefore removes chats that never received a message and were
// last touched before cutoff.
func (r *chatRepository) DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"messages":  bson.M{"$size": 0},
		"updatedAt": bson.M{"$lt": cutoff},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}

	return result.DeletedCount, nil
}

// FindPublishedImages returns published image messages across all chats,
// newest first.
func (r *chatRepository) FindPublishedImages(ctx context.Context) ([]models.PublishedImage, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$messages"}},
		{{Key: "$match", Value: bson.M{
			"messages.isImage":     true,
			"messages.isPublished": true,
		}}},
		{{Key: "$sort", Value: bson.M{"messages.timestamp": -1}}},
		{{Key: "$limit", Value: publishedImagesLimit}},
		{{Key: "$project", Value: bson.M{
			"_id":      0,
			"imageUrl": "$messages.content",
			"userName": "$userName",
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []models.PublishedImage
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}

	if images == nil {
		images = []models.PublishedImage{}
	}

	return images, nil
}
