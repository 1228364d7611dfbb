package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "quickchat/internal/errors"
	"quickchat/internal/models"
	"quickchat/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMessageHandler_SendText(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()
	validBody := models.TextMessageRequest{ChatID: chatID.Hex(), Prompt: "hello"}

	tests := []struct {
		name           string
		body           interface{}
		idempotencyKey string
		serviceErr     error
		expectedStatus int
		expectCall     bool
	}{
		{name: "success", body: validBody, expectedStatus: http.StatusOK, expectCall: true},
		{name: "passes idempotency key", body: validBody, idempotencyKey: "idem-1", expectedStatus: http.StatusOK, expectCall: true},
		{name: "malformed json", body: "{", expectedStatus: http.StatusBadRequest},
		{name: "empty prompt", body: models.TextMessageRequest{ChatID: chatID.Hex()}, expectedStatus: http.StatusBadRequest},
		{name: "whitespace prompt", body: models.TextMessageRequest{ChatID: chatID.Hex(), Prompt: "   \n\t "}, expectedStatus: http.StatusBadRequest},
		{name: "invalid chat id", body: models.TextMessageRequest{ChatID: "abc", Prompt: "hi"}, expectedStatus: http.StatusBadRequest},
		{name: "idempotency key too long", body: validBody, idempotencyKey: strings.Repeat("k", 129), expectedStatus: http.StatusBadRequest},
		{name: "not enough credits", body: validBody, serviceErr: apperrors.ErrInsufficientCredits, expectedStatus: http.StatusPaymentRequired, expectCall: true},
		{name: "chat not found", body: validBody, serviceErr: apperrors.ErrChatNotFound, expectedStatus: http.StatusNotFound, expectCall: true},
		{name: "request in progress", body: validBody, serviceErr: apperrors.ErrRequestInProgress, expectedStatus: http.StatusConflict, expectCall: true},
		{
			name:           "provider failure",
			body:           validBody,
			serviceErr:     fmt.Errorf("%w: timeout", apperrors.ErrUpstreamFailure),
			expectedStatus: http.StatusBadGateway,
			expectCall:     true,
		},
		{name: "internal error", body: validBody, serviceErr: errors.New("database error"), expectedStatus: http.StatusInternalServerError, expectCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := &mocks.MockMessageService{
				SendTextFunc: func(ctx context.Context, uid primitive.ObjectID, req *models.TextMessageRequest, key string) (*models.SendMessageResponse, error) {
					called = true
					assert.Equal(t, userID, uid)
					assert.Equal(t, tt.idempotencyKey, key)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.SendMessageResponse{
						Reply:   models.Message{Role: models.RoleAssistant, Content: "hi"},
						Credits: 19,
					}, nil
				},
			}
			h := NewMessageHandler(m, &mocks.MockSuggestionService{})
			router := gin.New()
			router.POST("/message/text", setUserID(userID), h.SendText)

			req := newJSONRequest(t, http.MethodPost, "/message/text", tt.body)
			if tt.idempotencyKey != "" {
				req.Header.Set(IdempotencyKeyHeader, tt.idempotencyKey)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectCall, called)
			if tt.expectedStatus == http.StatusOK {
				data := decodeResponse(t, w)["data"].(map[string]interface{})
				assert.Equal(t, float64(19), data["credits"])
			}
		})
	}
}

func TestMessageHandler_SendImage(t *testing.T) {
	userID := primitive.NewObjectID()
	chatID := primitive.NewObjectID()

	t.Run("forwards publish flag", func(t *testing.T) {
		m := &mocks.MockMessageService{
			SendImageFunc: func(ctx context.Context, uid primitive.ObjectID, req *models.ImageMessageRequest, key string) (*models.SendMessageResponse, error) {
				assert.True(t, req.IsPublished)
				return &models.SendMessageResponse{
					Reply:   models.Message{Role: models.RoleAssistant, Content: "https://cdn/a.png", IsImage: true},
					Credits: 18,
				}, nil
			},
		}
		router := gin.New()
		router.POST("/message/image", setUserID(userID), NewMessageHandler(m, nil).SendImage)

		body := models.ImageMessageRequest{ChatID: chatID.Hex(), Prompt: "a fox", IsPublished: true}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/message/image", body))

		assert.Equal(t, http.StatusOK, w.Code)
		reply := decodeResponse(t, w)["data"].(map[string]interface{})["reply"].(map[string]interface{})
		assert.Equal(t, true, reply["isImage"])
	})

	t.Run("prompt too long", func(t *testing.T) {
		router := gin.New()
		router.POST("/message/image", setUserID(userID), NewMessageHandler(&mocks.MockMessageService{}, nil).SendImage)

		body := models.ImageMessageRequest{ChatID: chatID.Hex(), Prompt: strings.Repeat("x", 1001)}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/message/image", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("whitespace prompt", func(t *testing.T) {
		called := false
		m := &mocks.MockMessageService{
			SendImageFunc: func(ctx context.Context, uid primitive.ObjectID, req *models.ImageMessageRequest, key string) (*models.SendMessageResponse, error) {
				called = true
				return nil, nil
			},
		}
		router := gin.New()
		router.POST("/message/image", setUserID(userID), NewMessageHandler(m, nil).SendImage)

		body := models.ImageMessageRequest{ChatID: chatID.Hex(), Prompt: " \t\n "}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/message/image", body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, called)
	})

	t.Run("not enough credits", func(t *testing.T) {
		m := &mocks.MockMessageService{
			SendImageFunc: func(ctx context.Context, uid primitive.ObjectID, req *models.ImageMessageRequest, key string) (*models.SendMessageResponse, error) {
				return nil, apperrors.ErrInsufficientCredits
			},
		}
		router := gin.New()
		router.POST("/message/image", setUserID(userID), NewMessageHandler(m, nil).SendImage)

		body := models.ImageMessageRequest{ChatID: chatID.Hex(), Prompt: "a fox"}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newJSONRequest(t, http.MethodPost, "/message/image", body))

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Equal(t, apperrors.ErrInsufficientCredits.Error(), decodeResponse(t, w)["message"])
	})
}

func TestMessageHandler_Suggestions(t *testing.T) {
	m := &mocks.MockSuggestionService{
		SuggestFunc: func(query string) []models.PromptTemplate {
			assert.Equal(t, "email", query)
			return []models.PromptTemplate{{ID: "email", Title: "Draft an email"}}
		},
	}
	router := gin.New()
	router.GET("/message/suggestions", NewMessageHandler(nil, m).Suggestions)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/message/suggestions?q=email", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
}
