package service

import (
	"context"
	"errors"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/repository"
	"quickchat/pkg/auth"
)

// AuthService handles authentication business logic.
type AuthService struct {
	userRepo       repository.UserRepository
	chatRepo       repository.ChatRepository
	jwtManager     auth.TokenManager
	defaultCredits int
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	UserRepo       repository.UserRepository
	ChatRepo       repository.ChatRepository
	JWTManager     auth.TokenManager
	DefaultCredits int
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:       cfg.UserRepo,
		chatRepo:       cfg.ChatRepo,
		jwtManager:     cfg.JWTManager,
		defaultCredits: cfg.DefaultCredits,
	}
}

// Register creates a new user account with the starting credit balance.
func (s *AuthService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Credits:  s.defaultCredits,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.generateAuthResponse(ctx, user)
}

// Login authenticates a user. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.PasswordMatches(req.Password, user.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.generateAuthResponse(ctx, user)
}

// generateAuthResponse issues a token and makes sure the user lands in an
// empty chat.
func (s *AuthService) generateAuthResponse(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	chat, err := s.ensureEmptyChat(ctx, user)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:  token,
		User:   *user,
		ChatID: chat.ID.Hex(),
	}, nil
}

// ensureEmptyChat reuses the user's newest empty chat or creates one.
func (s *AuthService) ensureEmptyChat(ctx context.Context, user *models.User) (*models.Chat, error) {
	chat, err := s.chatRepo.FindEmptyByUser(ctx, user.ID)
	if err == nil {
		// The sweeper cuts off on updatedAt, so a handed-out chat must look fresh.
		touched, err := s.chatRepo.Touch(ctx, chat.ID, user.ID)
		if err == nil {
			chat.UpdatedAt = touched
			return chat, nil
		}
		// Swept between the lookup and the touch: open a new one.
		if !errors.Is(err, apperrors.ErrChatNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, apperrors.ErrChatNotFound) {
		return nil, err
	}

	chat = &models.Chat{UserID: user.ID, UserName: user.Name}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}
