//go:build api

package api

import (
	"net/http"
	"testing"
	"time"

	"quickchat/internal/sweeper"
	"quickchat/test/api/testserver"
	"quickchat/test/fixtures"
	"quickchat/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TestChatLifecycle covers create, list, get and delete under /api/chat.
func TestChatLifecycle(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	chats := testserver.NewChatHelper(testServer)

	t.Run("create - GET and POST both open an empty chat", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		for _, method := range []string{http.MethodGet, http.MethodPost} {
			w := testutil.MakeAuthRequest(t, testServer.Router, method, "/api/chat/create", user.Token, nil)
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			resp := testutil.ParseAPIResponse(t, w)
			assert.Equal(t, "New Chat", resp.Data["name"])
			assert.Equal(t, "Test User", resp.Data["userName"])
			assert.Empty(t, resp.Data["messages"])
		}
	})

	t.Run("list - only the caller's chats, most recently updated first", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		alice := auth.CreateAuthenticatedUser(t, "Alice", "alice@example.com", "password123")
		bob := auth.CreateAuthenticatedUser(t, "Bob", "bob@example.com", "password123")

		second := chats.CreateChat(t, alice.Token)
		// Touch the login chat so it becomes the most recent
		w := chats.SendText(t, alice.Token, alice.ChatID, "hello", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/chat/get", alice.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := testutil.ParseAPIListResponse(t, w)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, alice.ChatID, resp.Data[0]["id"])
		assert.Equal(t, second, resp.Data[1]["id"])
		for _, chat := range resp.Data {
			assert.NotEqual(t, bob.ChatID, chat["id"])
		}
	})

	t.Run("get - returns one chat with its messages", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)
		w := chats.SendText(t, user.Token, user.ChatID, "hello", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/chat/"+user.ChatID, user.Token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		resp := testutil.ParseAPIResponse(t, w)
		messages, ok := resp.Data["messages"].([]interface{})
		require.True(t, ok)
		assert.Len(t, messages, 2)
	})

	t.Run("get - another user's chat is not found", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		alice := auth.CreateAuthenticatedUser(t, "Alice", "alice@example.com", "password123")
		bob := auth.CreateAuthenticatedUser(t, "Bob", "bob@example.com", "password123")

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/chat/"+alice.ChatID, bob.Token, nil)

		testserver.AssertErrorResponse(t, w, http.StatusNotFound, "chat not found")
	})

	t.Run("get - malformed id", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/chat/not-an-id", user.Token, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete - removes the chat", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodPost, "/api/chat/delete", user.Token,
			map[string]string{"chatId": user.ChatID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = testutil.MakeAuthRequest(t, testServer.Router, http.MethodGet, "/api/chat/"+user.ChatID, user.Token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete - unknown chat is not found", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodPost, "/api/chat/delete", user.Token,
			map[string]string{"chatId": primitive.NewObjectID().Hex()})

		testserver.AssertErrorResponse(t, w, http.StatusNotFound, "chat not found")
	})

	t.Run("delete - invalid chat id", func(t *testing.T) {
		testServer.CleanupBetweenTests(t)

		user := auth.CreateDefaultUser(t)

		w := testutil.MakeAuthRequest(t, testServer.Router, http.MethodPost, "/api/chat/delete", user.Token,
			map[string]string{"chatId": "123"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		w := testutil.MakeRequest(t, testServer.Router, http.MethodGet, "/api/chat/get", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// TestEmptyChatSweep runs the sweeper against the real chat collection.
func TestEmptyChatSweep(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	chats := testserver.NewChatHelper(testServer)
	owner := auth.SeedUser(t, fixtures.NewUser().BuildPtr())

	staleEmpty := fixtures.NewChat().ForUser(owner).BuildPtr()
	staleEmpty.UpdatedAt = time.Now().Add(-2 * time.Hour)
	chats.SeedChatRaw(t, staleEmpty)

	staleUsed := fixtures.NewChat().ForUser(owner).WithExchange("hi", "hello").BuildPtr()
	staleUsed.UpdatedAt = time.Now().Add(-2 * time.Hour)
	chats.SeedChatRaw(t, staleUsed)

	freshEmpty := chats.SeedChatRaw(t, fixtures.NewChat().ForUser(owner).BuildPtr())

	s := sweeper.New(testServer.ChatRepo, 30*time.Minute, time.Minute, zap.NewNop())
	deleted := s.Sweep(testutil.TestContext(t))

	assert.Equal(t, int64(1), deleted)

	remaining, err := testServer.ChatRepo.FindByUser(testutil.TestContext(t), owner.ID)
	require.NoError(t, err)
	ids := make([]primitive.ObjectID, 0, len(remaining))
	for _, chat := range remaining {
		ids = append(ids, chat.ID)
	}
	assert.ElementsMatch(t, []primitive.ObjectID{staleUsed.ID, freshEmpty.ID}, ids)
}

// TestLoginKeepsReusedChatAlive checks that the chat handed out at login
// survives the next sweep even when it had been idle past the TTL.
func TestLoginKeepsReusedChatAlive(t *testing.T) {
	testServer.CleanupBetweenTests(t)

	auth := testserver.NewAuthHelper(testServer)
	chats := testserver.NewChatHelper(testServer)
	user := auth.SeedUser(t, fixtures.NewUser().WithEmail("idle@example.com").BuildPtr())

	idle := fixtures.NewChat().ForUser(user).BuildPtr()
	idle.UpdatedAt = time.Now().Add(-31 * time.Minute)
	chats.SeedChatRaw(t, idle)

	data := auth.Login(t, "idle@example.com", fixtures.DefaultPassword)
	require.Equal(t, idle.ID.Hex(), data["chatId"])

	s := sweeper.New(testServer.ChatRepo, 30*time.Minute, time.Minute, zap.NewNop())
	assert.Equal(t, int64(0), s.Sweep(testutil.TestContext(t)))

	chat := chats.GetChat(t, idle.ID.Hex(), user.ID)
	assert.WithinDuration(t, time.Now(), chat.UpdatedAt, 5*time.Second)
}
