package service

import (
	"context"
	"time"

	"quickchat/internal/cache"
	"quickchat/internal/models"
	"quickchat/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishedImagesTTL is how long the community feed is cached.
const PublishedImagesTTL = time.Minute

// UserService handles user business logic.
type UserService struct {
	repo     repository.UserRepository
	chatRepo repository.ChatRepository
	cache    cache.Cache
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, chatRepo repository.ChatRepository, cache cache.Cache) *UserService {
	return &UserService{
		repo:     repo,
		chatRepo: chatRepo,
		cache:    cache,
	}
}

// GetUser retrieves a user by ID. Users are not cached since the credit
// balance changes on every message.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// PublishedImages returns the community feed, served from cache when warm.
func (s *UserService) PublishedImages(ctx context.Context) ([]models.PublishedImage, error) {
	var images []models.PublishedImage
	found, err := s.cache.Get(ctx, cache.PublishedImagesKey, &images)
	if err == nil && found {
		return images, nil
	}

	images, err = s.chatRepo.FindPublishedImages(ctx)
	if err != nil {
		return nil, err
	}

	// Ignore cache errors - the feed was already read from the database
	_ = s.cache.Set(ctx, cache.PublishedImagesKey, images, PublishedImagesTTL)

	return images, nil
}
