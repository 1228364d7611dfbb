package service

import (
	"context"
	"testing"
	"time"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	repomocks "quickchat/internal/repository/mocks"
	"quickchat/pkg/auth"
	authmocks "quickchat/pkg/auth/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

type authMocks struct {
	users *repomocks.MockUserRepository
	chats *repomocks.MockChatRepository
	jwt   *authmocks.MockTokenManager
}

func newTestAuthService(t *testing.T) (*AuthService, authMocks) {
	ctrl := gomock.NewController(t)
	m := authMocks{
		users: repomocks.NewMockUserRepository(ctrl),
		chats: repomocks.NewMockChatRepository(ctrl),
		jwt:   authmocks.NewMockTokenManager(ctrl),
	}
	svc := NewAuthService(AuthServiceConfig{
		UserRepo:       m.users,
		ChatRepo:       m.chats,
		JWTManager:     m.jwt,
		DefaultCredits: 20,
	})
	return svc, m
}

func TestAuthService_Register(t *testing.T) {
	req := &models.CreateUserRequest{Name: "Jane", Email: "jane@example.com", Password: "secret123"}

	t.Run("creates user with default credits and a fresh chat", func(t *testing.T) {
		svc, m := newTestAuthService(t)
		userID := primitive.NewObjectID()

		m.users.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, u *models.User) error {
				assert.Equal(t, 20, u.Credits)
				assert.NotEqual(t, "secret123", u.Password)
				assert.True(t, auth.PasswordMatches("secret123", u.Password))
				u.ID = userID
				return nil
			})
		m.jwt.EXPECT().GenerateToken(userID.Hex()).Return("token", nil)
		m.chats.EXPECT().FindEmptyByUser(gomock.Any(), userID).Return(nil, apperrors.ErrChatNotFound)
		m.chats.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Chat) error {
				assert.Equal(t, userID, c.UserID)
				assert.Equal(t, "Jane", c.UserName)
				c.ID = primitive.NewObjectID()
				return nil
			})

		resp, err := svc.Register(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, "token", resp.Token)
		assert.Equal(t, "jane@example.com", resp.User.Email)
		assert.NotEmpty(t, resp.ChatID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, m := newTestAuthService(t)

		m.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(apperrors.ErrUserAlreadyExists)

		_, err := svc.Register(context.Background(), req)

		assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	user := &models.User{ID: primitive.NewObjectID(), Name: "Jane", Email: "jane@example.com", Password: hash, Credits: 5}

	t.Run("reuses an existing empty chat", func(t *testing.T) {
		svc, m := newTestAuthService(t)
		chatID := primitive.NewObjectID()

		m.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(user, nil)
		m.jwt.EXPECT().GenerateToken(user.ID.Hex()).Return("token", nil)
		m.chats.EXPECT().FindEmptyByUser(gomock.Any(), user.ID).Return(&models.Chat{ID: chatID}, nil)
		m.chats.EXPECT().Touch(gomock.Any(), chatID, user.ID).Return(time.Now(), nil)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, chatID.Hex(), resp.ChatID)
		assert.Equal(t, 5, resp.User.Credits)
	})

	t.Run("refreshes a stale empty chat before handing it out", func(t *testing.T) {
		svc, m := newTestAuthService(t)
		stale := &models.Chat{ID: primitive.NewObjectID(), UserID: user.ID, UpdatedAt: time.Now().Add(-31 * time.Minute)}
		touchedAt := time.Now()

		m.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(user, nil)
		m.jwt.EXPECT().GenerateToken(user.ID.Hex()).Return("token", nil)
		m.chats.EXPECT().FindEmptyByUser(gomock.Any(), user.ID).Return(stale, nil)
		m.chats.EXPECT().Touch(gomock.Any(), stale.ID, user.ID).Return(touchedAt, nil)

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, stale.ID.Hex(), resp.ChatID)
		assert.Equal(t, touchedAt, stale.UpdatedAt)
	})

	t.Run("opens a new chat when the empty one was swept meanwhile", func(t *testing.T) {
		svc, m := newTestAuthService(t)
		swept := &models.Chat{ID: primitive.NewObjectID(), UserID: user.ID}
		freshID := primitive.NewObjectID()

		m.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(user, nil)
		m.jwt.EXPECT().GenerateToken(user.ID.Hex()).Return("token", nil)
		m.chats.EXPECT().FindEmptyByUser(gomock.Any(), user.ID).Return(swept, nil)
		m.chats.EXPECT().Touch(gomock.Any(), swept.ID, user.ID).Return(time.Time{}, apperrors.ErrChatNotFound)
		m.chats.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Chat) error {
				c.ID = freshID
				return nil
			})

		resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, freshID.Hex(), resp.ChatID)
	})

	t.Run("touch failure is returned", func(t *testing.T) {
		svc, m := newTestAuthService(t)
		chatID := primitive.NewObjectID()

		m.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(user, nil)
		m.jwt.EXPECT().GenerateToken(user.ID.Hex()).Return("token", nil)
		m.chats.EXPECT().FindEmptyByUser(gomock.Any(), user.ID).Return(&models.Chat{ID: chatID}, nil)
		m.chats.EXPECT().Touch(gomock.Any(), chatID, user.ID).Return(time.Time{}, assert.AnError)

		_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "secret123"})

		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, m := newTestAuthService(t)

		m.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(user, nil)

		_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "wrong"})

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, m := newTestAuthService(t)

		m.users.EXPECT().FindByEmail(gomock.Any(), "nobody@example.com").Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@example.com", Password: "x"})

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("database error is not masked", func(t *testing.T) {
		svc, m := newTestAuthService(t)

		m.users.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, assert.AnError)

		_, err := svc.Login(context.Background(), &models.LoginRequest{Email: "jane@example.com", Password: "x"})

		assert.ErrorIs(t, err, assert.AnError)
	})
}
