package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewAuthHandler(t *testing.T) {
	mockService := &mocks.MockAuthService{}
	handler := NewAuthHandler(mockService)

	assert.NotNil(t, handler)
	assert.Equal(t, mockService, handler.service)
}

func TestAuthHandler_Register(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	validBody := models.CreateUserRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	}

	tests := []struct {
		name           string
		body           interface{}
		mockSetup      func(*mocks.MockAuthService)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful registration",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.RegisterFunc = func(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
					return &models.AuthResponse{
						Token:  "jwt-token",
						User:   models.User{ID: userID, Name: req.Name, Email: req.Email, Credits: 20},
						ChatID: chatID.Hex(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := decodeResponse(t, w)
				assert.Equal(t, true, resp["success"])
				data := resp["data"].(map[string]interface{})
				assert.Equal(t, "jwt-token", data["token"])
				assert.Equal(t, chatID.Hex(), data["chatId"])
				user := data["user"].(map[string]interface{})
				assert.Equal(t, float64(20), user["credits"])
				assert.NotContains(t, user, "password")
			},
		},
		{
			name:           "invalid JSON body",
			body:           "invalid json",
			mockSetup:      func(m *mocks.MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "password too short",
			body:           models.CreateUserRequest{Name: "Test User", Email: "test@example.com", Password: "12345"},
			mockSetup:      func(m *mocks.MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing required fields",
			body:           map[string]string{"email": "test@example.com"},
			mockSetup:      func(m *mocks.MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "user already exists",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.RegisterFunc = func(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
					return nil, apperrors.ErrUserAlreadyExists
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "internal server error",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.RegisterFunc = func(ctx context.Context, req *models.CreateUserRequest) (*models.AuthResponse, error) {
					return nil, errors.New("database error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mocks.MockAuthService{}
			tt.mockSetup(mockService)

			handler := NewAuthHandler(mockService)
			router := gin.New()
			router.POST("/user/register", handler.Register)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/user/register", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	validBody := models.LoginRequest{Email: "test@example.com", Password: "password123"}

	tests := []struct {
		name           string
		body           interface{}
		mockSetup      func(*mocks.MockAuthService)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "successful login",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.LoginFunc = func(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
					return &models.AuthResponse{Token: "jwt-token", User: models.User{Email: req.Email}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decodeResponse(t, w)["data"].(map[string]interface{})
				assert.Equal(t, "jwt-token", data["token"])
			},
		},
		{
			name:           "invalid email format",
			body:           models.LoginRequest{Email: "not-an-email", Password: "password123"},
			mockSetup:      func(m *mocks.MockAuthService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid credentials",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.LoginFunc = func(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
					return nil, apperrors.ErrInvalidCredentials
				}
			},
			expectedStatus: http.StatusUnauthorized,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				resp := decodeResponse(t, w)
				assert.Equal(t, false, resp["success"])
				assert.Equal(t, "invalid email or password", resp["message"])
			},
		},
		{
			name: "internal server error",
			body: validBody,
			mockSetup: func(m *mocks.MockAuthService) {
				m.LoginFunc = func(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
					return nil, errors.New("database error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mocks.MockAuthService{}
			tt.mockSetup(mockService)

			handler := NewAuthHandler(mockService)
			router := gin.New()
			router.POST("/user/login", handler.Login)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/user/login", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}
}
