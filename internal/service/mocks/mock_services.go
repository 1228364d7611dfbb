// Package mocks provides mock implementations of service interfaces for testing.
package mocks

import (
	"context"

	"quickchat/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockAuthService is a mock implementation of AuthServicer.
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error)
	LoginFunc    func(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return nil, nil
}

// MockUserService is a mock implementation of UserServicer.
type MockUserService struct {
	GetUserFunc         func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	PublishedImagesFunc func(ctx context.Context) ([]models.PublishedImage, error)
}

func (m *MockUserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserService) PublishedImages(ctx context.Context) ([]models.PublishedImage, error) {
	if m.PublishedImagesFunc != nil {
		return m.PublishedImagesFunc(ctx)
	}
	return nil, nil
}

// MockChatService is a mock implementation of ChatServicer.
type MockChatService struct {
	CreateChatFunc func(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error)
	ListChatsFunc  func(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	GetChatFunc    func(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	DeleteChatFunc func(ctx context.Context, chatID, userID primitive.ObjectID) error
}

func (m *MockChatService) CreateChat(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error) {
	if m.CreateChatFunc != nil {
		return m.CreateChatFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockChatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	if m.ListChatsFunc != nil {
		return m.ListChatsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockChatService) GetChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	if m.GetChatFunc != nil {
		return m.GetChatFunc(ctx, chatID, userID)
	}
	return nil, nil
}

func (m *MockChatService) DeleteChat(ctx context.Context, chatID, userID primitive.ObjectID) error {
	if m.DeleteChatFunc != nil {
		return m.DeleteChatFunc(ctx, chatID, userID)
	}
	return nil
}

// MockMessageService is a mock implementation of MessageServicer.
type MockMessageService struct {
	SendTextFunc  func(ctx context.Context, userID primitive.ObjectID, req *models.TextMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error)
	SendImageFunc func(ctx context.Context, userID primitive.ObjectID, req *models.ImageMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error)
}

func (m *MockMessageService) SendText(ctx context.Context, userID primitive.ObjectID, req *models.TextMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error) {
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, userID, req, idempotencyKey)
	}
	return nil, nil
}

func (m *MockMessageService) SendImage(ctx context.Context, userID primitive.ObjectID, req *models.ImageMessageRequest, idempotencyKey string) (*models.SendMessageResponse, error) {
	if m.SendImageFunc != nil {
		return m.SendImageFunc(ctx, userID, req, idempotencyKey)
	}
	return nil, nil
}

// MockCreditService is a mock implementation of CreditServicer.
type MockCreditService struct {
	ListPlansFunc        func() []models.Plan
	PurchaseFunc         func(ctx context.Context, userID primitive.ObjectID, req *models.PurchaseRequest, origin string) (*models.PurchaseResponse, error)
	ListTransactionsFunc func(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error)
	HandleWebhookFunc    func(ctx context.Context, payload []byte, signature string) error
}

func (m *MockCreditService) ListPlans() []models.Plan {
	if m.ListPlansFunc != nil {
		return m.ListPlansFunc()
	}
	return nil
}

func (m *MockCreditService) Purchase(ctx context.Context, userID primitive.ObjectID, req *models.PurchaseRequest, origin string) (*models.PurchaseResponse, error) {
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, userID, req, origin)
	}
	return nil, nil
}

func (m *MockCreditService) ListTransactions(ctx context.Context, userID primitive.ObjectID) ([]models.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockCreditService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, payload, signature)
	}
	return nil
}

// MockSuggestionService is a mock implementation of SuggestionServicer.
type MockSuggestionService struct {
	SuggestFunc func(query string) []models.PromptTemplate
}

func (m *MockSuggestionService) Suggest(query string) []models.PromptTemplate {
	if m.SuggestFunc != nil {
		return m.SuggestFunc(query)
	}
	return nil
}
