// Package service contains business logic for the application.
package service

import (
	"context"

	"quickchat/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthServicer defines the interface for authentication operations.
type AuthServicer interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

// UserServicer defines the interface for user operations.
type UserServicer interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	PublishedImages(ctx context.Context) ([]models.PublishedImage, error)
}

// ChatServicer defines the interface for chat operations. Every operation
// is scoped to the requesting user.
type ChatServicer interface {
	CreateChat(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error)
	ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	GetChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID, userID primitive.ObjectID) error
}

// MessageServicer defines the interface for sending metered AI messages.
// idempotencyKey may be empty.
type MessageServicer interface {
	SendText(ctx context.Context, userID primitive.ObjectID, req *models.TextMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error)
	SendImage(ctx context.Context, userID primitive.ObjectID, req *models.ImageMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error)
}

// CreditServicer defines the interface for plans, purchases and fulfilment.
type CreditServicer interface {
	ListPlans() []models.Plan
	Purchase(ctx context.Context, userID primitive.ObjectID, req *models.PurchaseRequest, origin string) (*models.PurchaseResponse, error)
	ListTransactions(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// SuggestionServicer defines the interface for prompt suggestions.
type SuggestionServicer interface {
	Suggest(query string) []models.PromptTemplate
}

// Ensure concrete types implement interfaces
var (
	_ AuthServicer       = (*AuthService)(nil)
	_ UserServicer       = (*UserService)(nil)
	_ ChatServicer       = (*ChatService)(nil)
	_ MessageServicer    = (*MessageService)(nil)
	_ CreditServicer     = (*CreditService)(nil)
	_ SuggestionServicer = (*SuggestionService)(nil)
)
