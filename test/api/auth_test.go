//go:build api

package api

import (
	"net/http"
	"testing"

	"quickchat/internal/models"
	"quickchat/test/api/testserver"
	"quickchat/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegister tests the POST /api/user/register endpoint.
func TestRegister(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	t.Run("success - creates user with starting credits and an empty chat", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		req := models.CreateUserRequest{
			Name:     "Test User",
			Email:    "test@example.com",
			Password: "password123",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/register", req)

		assert.Equal(t, http.StatusCreated, w.Code)

		resp := testutil.ParseAPIResponse(t, w)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Data)

		token, ok := resp.Data["token"].(string)
		assert.True(t, ok, "token should be a string")
		assert.NotEmpty(t, token)

		chatID, ok := resp.Data["chatId"].(string)
		assert.True(t, ok, "chatId should be a string")
		assert.NotEmpty(t, chatID)

		user, ok := resp.Data["user"].(map[string]interface{})
		require.True(t, ok, "user should be an object")
		assert.Equal(t, "test@example.com", user["email"])
		assert.Equal(t, "Test User", user["name"])
		assert.Equal(t, float64(testserver.TestDefaultCredits), user["credits"])
		assert.NotContains(t, user, "password")
		assert.NotEmpty(t, user["id"])
	})

	t.Run("error - missing required fields", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		req := map[string]string{
			"email": "test@example.com",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/register", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := testutil.ParseAPIResponse(t, w)
		assert.False(t, resp.Success)
	})

	t.Run("error - invalid email format", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		req := models.CreateUserRequest{
			Name:     "Test User",
			Email:    "invalid-email",
			Password: "password123",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/register", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("error - password too short", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		req := models.CreateUserRequest{
			Name:     "Test User",
			Email:    "test@example.com",
			Password: "12345", // min is 6
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/register", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("error - duplicate email", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		auth := testserver.NewAuthHelper(testServer)
		auth.RegisterUser(t, "Test User", "duplicate@example.com", "password123")

		req := models.CreateUserRequest{
			Name:     "Another User",
			Email:    "duplicate@example.com",
			Password: "password456",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/register", req)

		assert.Equal(t, http.StatusConflict, w.Code)

		resp := testutil.ParseAPIResponse(t, w)
		assert.False(t, resp.Success)
	})
}

// TestLogin tests the POST /api/user/login endpoint.
func TestLogin(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)

	t.Run("success - returns token and reuses the empty chat", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		registered := auth.RegisterUser(t, "Test User", "login@example.com", "password123")

		data := auth.Login(t, "login@example.com", "password123")

		assert.NotEmpty(t, data["token"])
		assert.Equal(t, registered["chatId"], data["chatId"], "login should reuse the chat opened at registration")
	})

	t.Run("success - opens a new chat once the previous one has messages", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateAuthenticatedUser(t, "Test User", "busy@example.com", "password123")
		chats := testserver.NewChatHelper(testServer)
		w := chats.SendText(t, user.Token, user.ChatID, "hello", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := auth.Login(t, "busy@example.com", "password123")

		assert.NotEqual(t, user.ChatID, data["chatId"])
	})

	t.Run("error - wrong password", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		auth.RegisterUser(t, "Test User", "wrongpass@example.com", "password123")

		req := models.LoginRequest{
			Email:    "wrongpass@example.com",
			Password: "wrongpassword",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/login", req)

		testserver.AssertErrorResponse(t, w, http.StatusUnauthorized, "invalid email or password")
	})

	t.Run("error - unknown email", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		req := models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "password123",
		}

		w := testutil.MakeRequest(t, testServer.Router, http.MethodPost, "/api/user/login", req)

		testserver.AssertErrorResponse(t, w, http.StatusUnauthorized, "invalid email or password")
	})
}

// TestAuthorizationHeader checks the accepted token formats.
func TestAuthorizationHeader(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	user := testserver.NewAuthHelper(testServer).CreateDefaultUser(t)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "bearer token", header: "Bearer " + user.Token, wantStatus: http.StatusOK},
		{name: "raw token", header: user.Token, wantStatus: http.StatusOK},
		{name: "missing token", header: "", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}

			w := testutil.MakeRequestWithHeaders(t, testServer.Router, http.MethodGet, "/api/user/data", nil, headers)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
