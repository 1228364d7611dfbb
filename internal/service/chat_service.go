package service

import (
	"context"

	"quickchat/internal/models"
	"quickchat/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService handles chat business logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// NewChatService creates a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

// CreateChat creates an empty chat named after the default.
func (s *ChatService) CreateChat(ctx context.Context, userID primitive.ObjectID) (*models.Chat, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	chat := &models.Chat{
		UserID:   user.ID,
		UserName: user.Name,
		Name:     models.DefaultChatName,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

// ListChats returns the user's chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	return s.chatRepo.FindByUser(ctx, userID)
}

// GetChat returns one of the user's chats.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	return s.chatRepo.FindByIDAndUser(ctx, chatID, userID)
}

// DeleteChat deletes one of the user's chats.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, userID primitive.ObjectID) error {
	return s.chatRepo.Delete(ctx, chatID, userID)
}
