//go:build api

package testserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickchat/internal/database"
	"quickchat/internal/handler"
	"quickchat/internal/models"
	"quickchat/test/testutil"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHelper provides authentication helpers for API tests.
type AuthHelper struct {
	server *TestServer
}

// NewAuthHelper creates a new auth helper.
func NewAuthHelper(server *TestServer) *AuthHelper {
	return &AuthHelper{server: server}
}

// RegisterUser registers a new user and returns the auth response data.
func (ah *AuthHelper) RegisterUser(t *testing.T, name, email, password string) map[string]interface{} {
	t.Helper()

	req := models.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}

	w := testutil.MakeRequest(t, ah.server.Router, http.MethodPost, "/api/user/register", req)
	require.Equal(t, http.StatusCreated, w.Code, "register should return 201, got: %s", w.Body.String())

	resp := testutil.ParseAPIResponse(t, w)
	require.True(t, resp.Success, "register response should be successful")
	return resp.Data
}

// Login logs in a user and returns the auth response data.
func (ah *AuthHelper) Login(t *testing.T, email, password string) map[string]interface{} {
	t.Helper()

	req := models.LoginRequest{
		Email:    email,
		Password: password,
	}

	w := testutil.MakeRequest(t, ah.server.Router, http.MethodPost, "/api/user/login", req)
	require.Equal(t, http.StatusOK, w.Code, "login should return 200, got: %s", w.Body.String())

	resp := testutil.ParseAPIResponse(t, w)
	require.True(t, resp.Success, "login response should be successful")
	return resp.Data
}

// TestUser is a registered user as seen by the API.
type TestUser struct {
	ID     primitive.ObjectID
	Email  string
	Token  string
	ChatID string
}

// CreateAuthenticatedUser registers a user and returns its token and the
// empty chat opened at login.
func (ah *AuthHelper) CreateAuthenticatedUser(t *testing.T, name, email, password string) TestUser {
	t.Helper()

	ah.RegisterUser(t, name, email, password)
	data := ah.Login(t, email, password)

	token, ok := data["token"].(string)
	require.True(t, ok, "token should be a string")
	chatID, ok := data["chatId"].(string)
	require.True(t, ok, "chatId should be a string")

	return TestUser{
		ID:     GetObjectIDFromResponse(t, data),
		Email:  email,
		Token:  token,
		ChatID: chatID,
	}
}

// CreateDefaultUser creates a user with default test credentials.
func (ah *AuthHelper) CreateDefaultUser(t *testing.T) TestUser {
	t.Helper()
	return ah.CreateAuthenticatedUser(t, "Test User", "test@example.com", "password123")
}

// SeedUser directly inserts a user into the database (bypasses API).
func (ah *AuthHelper) SeedUser(t *testing.T, user *models.User) *models.User {
	t.Helper()

	err := ah.server.UserRepo.Create(context.Background(), user)
	require.NoError(t, err, "failed to seed user")

	return user
}

// TokenFor issues a token for a seeded user.
func (ah *AuthHelper) TokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := ah.server.JWTManager.GenerateToken(user.ID.Hex())
	require.NoError(t, err, "failed to issue token")
	return token
}

// Credits reads a user's balance straight from the database.
func (ah *AuthHelper) Credits(t *testing.T, userID primitive.ObjectID) int {
	t.Helper()

	user, err := ah.server.UserRepo.FindByID(context.Background(), userID)
	require.NoError(t, err, "failed to load user")
	return user.Credits
}

// ChatHelper provides chat and message helpers for API tests.
type ChatHelper struct {
	server *TestServer
}

// NewChatHelper creates a new chat helper.
func NewChatHelper(server *TestServer) *ChatHelper {
	return &ChatHelper{server: server}
}

// CreateChat creates a chat through the API and returns its id.
func (ch *ChatHelper) CreateChat(t *testing.T, token string) string {
	t.Helper()

	w := testutil.MakeAuthRequest(t, ch.server.Router, http.MethodPost, "/api/chat/create", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, "create chat should return 201, got: %s", w.Body.String())

	return GetIDFromResponse(t, testutil.ParseAPIResponse(t, w).Data)
}

// GetChat loads a chat straight from the database.
func (ch *ChatHelper) GetChat(t *testing.T, chatID string, userID primitive.ObjectID) *models.Chat {
	t.Helper()

	id, err := primitive.ObjectIDFromHex(chatID)
	require.NoError(t, err)

	chat, err := ch.server.ChatRepo.FindByIDAndUser(context.Background(), id, userID)
	require.NoError(t, err, "failed to load chat")
	return chat
}

// SeedChatRaw inserts a chat as is, keeping its id and timestamps.
func (ch *ChatHelper) SeedChatRaw(t *testing.T, chat *models.Chat) *models.Chat {
	t.Helper()

	_, err := ch.server.MongoDB.Database.Collection(database.ChatsCollection).InsertOne(context.Background(), chat)
	require.NoError(t, err, "failed to seed chat")
	return chat
}

// SendText posts a text prompt. idempotencyKey may be empty.
func (ch *ChatHelper) SendText(t *testing.T, token, chatID, prompt, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := models.TextMessageRequest{ChatID: chatID, Prompt: prompt}
	return ch.send(t, "/api/message/text", token, req, idempotencyKey)
}

// SendImage posts an image prompt. idempotencyKey may be empty.
func (ch *ChatHelper) SendImage(t *testing.T, token, chatID, prompt string, publish bool, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()

	req := models.ImageMessageRequest{ChatID: chatID, Prompt: prompt, IsPublished: publish}
	return ch.send(t, "/api/message/image", token, req, idempotencyKey)
}

func (ch *ChatHelper) send(t *testing.T, path, token string, body interface{}, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()

	headers := map[string]string{"Authorization": "Bearer " + token}
	if idempotencyKey != "" {
		headers[handler.IdempotencyKeyHeader] = idempotencyKey
	}
	return testutil.MakeRequestWithHeaders(t, ch.server.Router, http.MethodPost, path, body, headers)
}

// PaymentHelper provides purchase and webhook helpers for API tests.
type PaymentHelper struct {
	server *TestServer
}

// NewPaymentHelper creates a new payment helper.
func NewPaymentHelper(server *TestServer) *PaymentHelper {
	return &PaymentHelper{server: server}
}

// SeedTransactionRaw inserts a transaction as is, including its paid flag.
func (ph *PaymentHelper) SeedTransactionRaw(t *testing.T, txn *models.Transaction) *models.Transaction {
	t.Helper()

	_, err := ph.server.MongoDB.Database.Collection(database.TransactionsCollection).InsertOne(context.Background(), txn)
	require.NoError(t, err, "failed to seed transaction")
	return txn
}

// CheckoutCompletedEvent builds a checkout.session.completed event body.
func (ph *PaymentHelper) CheckoutCompletedEvent(t *testing.T, eventID, transactionID, appID, paymentStatus string) []byte {
	t.Helper()

	event := map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2025-01-27.acacia",
		"created":     time.Now().Unix(),
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             "cs_test_" + eventID,
				"object":         "checkout.session",
				"payment_status": paymentStatus,
				"metadata": map[string]string{
					"transactionId": transactionID,
					"appId":         appID,
				},
			},
		},
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload
}

// PostWebhook signs payload with the test webhook secret and posts it.
func (ph *PaymentHelper) PostWebhook(t *testing.T, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  TestWebhookSecret,
	})
	return testutil.MakeRequestWithHeaders(t, ph.server.Router, http.MethodPost, "/api/stripe", payload, map[string]string{
		"Stripe-Signature": signed.Header,
	})
}

// WaitForPaid polls until the transaction is marked paid or the timeout elapses.
func (ph *PaymentHelper) WaitForPaid(t *testing.T, txnID primitive.ObjectID, timeout time.Duration) *models.Transaction {
	t.Helper()

	var txn *models.Transaction
	require.Eventually(t, func() bool {
		var err error
		txn, err = ph.server.TransactionRepo.FindByID(context.Background(), txnID)
		return err == nil && txn.IsPaid
	}, timeout, 20*time.Millisecond, "transaction %s was never marked paid", txnID.Hex())
	return txn
}

// ParseResponseData is a generic helper to parse response data into a specific type.
func ParseResponseData[T any](t *testing.T, data map[string]interface{}) T {
	t.Helper()

	jsonBytes, err := json.Marshal(data)
	require.NoError(t, err, "failed to marshal response data")

	var result T
	err = json.Unmarshal(jsonBytes, &result)
	require.NoError(t, err, "failed to unmarshal response data")

	return result
}

// GetIDFromResponse extracts the ID from response data.
// It handles both direct id fields and nested user objects (for auth responses).
func GetIDFromResponse(t *testing.T, data map[string]interface{}) string {
	t.Helper()

	if id, ok := data["id"].(string); ok {
		return id
	}

	if user, ok := data["user"].(map[string]interface{}); ok {
		if id, ok := user["id"].(string); ok {
			return id
		}
	}

	t.Fatal("id should be a string in response data (checked: id, user.id)")
	return ""
}

// GetObjectIDFromResponse extracts and parses the ID as ObjectID.
func GetObjectIDFromResponse(t *testing.T, data map[string]interface{}) primitive.ObjectID {
	t.Helper()

	idStr := GetIDFromResponse(t, data)
	oid, err := primitive.ObjectIDFromHex(idStr)
	require.NoError(t, err, "failed to parse ObjectID")

	return oid
}

// AssertErrorResponse asserts the response is an error envelope with the
// expected status and message.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()

	require.Equal(t, expectedStatus, w.Code, "body: %s", w.Body.String())

	resp := testutil.ParseAPIResponse(t, w)
	require.False(t, resp.Success)
	if expectedMessage != "" {
		require.Equal(t, expectedMessage, resp.Message, fmt.Sprintf("unexpected error message for status %d", expectedStatus))
	}
}
