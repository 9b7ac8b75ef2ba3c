package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crudai-app/backend/internal/auth"
	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

const devAuthID = "dev-user-123"

func newTestServer(store *fakeStore, model *fakeLLM) http.Handler {
	users := services.NewUserService(store)
	userHandler := NewUserHandler(users)
	chatHandler := NewChatHandler(store, users)
	messageHandler := NewMessageHandler(store, users)
	aiHandler := NewAIHandler(store, users, model)

	r := chi.NewRouter()
	r.Use(auth.Middleware(auth.MockVerifier{}))
	r.Get("/users/me", userHandler.GetMe)
	r.Put("/users/me", userHandler.UpdateMe)
	r.Get("/chats", chatHandler.ListChats)
	r.Post("/chats", chatHandler.CreateChat)
	r.Get("/chats/{chatID}", chatHandler.GetChat)
	r.Put("/chats/{chatID}", chatHandler.UpdateChat)
	r.Delete("/chats/{chatID}", chatHandler.DeleteChat)
	r.Get("/messages/{chatID}", messageHandler.ListMessages)
	r.Post("/messages", messageHandler.CreateMessage)
	r.Post("/ai/generate/{chatID}", aiHandler.Generate)
	return r
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seedDevUser(store *fakeStore) *models.User {
	now := time.Now().UTC()
	u := &models.User{
		ID:          "local-dev",
		Auth0UserID: devAuthID,
		Username:    "Developer",
		Email:       "dev@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	store.users[devAuthID] = u
	return u
}

func seedChat(store *fakeStore, id, userID string, updated time.Time) *models.Chat {
	c := &models.Chat{ID: id, UserID: userID, Title: "chat " + id, CreatedAt: updated, UpdatedAt: updated}
	store.chats[id] = c
	return c
}

func seedMessage(store *fakeStore, chatID, content string, fromUser bool, at time.Time) {
	store.messages[chatID] = append(store.messages[chatID], models.Message{
		ID: content, ChatID: chatID, Content: content, IsFromUser: fromUser, CreatedAt: at,
	})
}

// Users

func TestGetMe_ProvisionsOnFirstRequest(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, devAuthID, u.Auth0UserID)
	assert.Equal(t, "Developer", u.Username)
	assert.Contains(t, store.users, devAuthID)
}

func TestUpdateMe_PartialUpdate(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	name := "Old Name"
	user.Name = &name
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodPut, "/users/me", `{"username":"neo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "neo", got.Username)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Old Name", *got.Name)
}

func TestUpdateMe_UserMissing(t *testing.T) {
	srv := newTestServer(newFakeStore(), &fakeLLM{})
	rec := doRequest(srv, http.MethodPut, "/users/me", `{"username":"neo"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Chats

func TestChatAccess_NotOwnedCollapsesToNotFound(t *testing.T) {
	store := newFakeStore()
	seedDevUser(store)
	seedChat(store, "foreign", "someone-else", time.Now())
	srv := newTestServer(store, &fakeLLM{})

	requests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/chats/foreign", ""},
		{http.MethodPut, "/chats/foreign", `{"title":"mine now"}`},
		{http.MethodDelete, "/chats/foreign", ""},
		{http.MethodGet, "/messages/foreign", ""},
		{http.MethodPost, "/ai/generate/foreign", ""},
	}
	missing := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/chats/ghost", ""},
		{http.MethodPut, "/chats/ghost", `{"title":"x"}`},
		{http.MethodDelete, "/chats/ghost", ""},
		{http.MethodGet, "/messages/ghost", ""},
		{http.MethodPost, "/ai/generate/ghost", ""},
	}

	for i := range requests {
		foreign := doRequest(srv, requests[i].method, requests[i].path, requests[i].body)
		absent := doRequest(srv, missing[i].method, missing[i].path, missing[i].body)
		assert.Equal(t, http.StatusNotFound, foreign.Code, requests[i].path)
		// Not-owned and nonexistent must be indistinguishable.
		assert.Equal(t, absent.Code, foreign.Code)
		assert.Equal(t, absent.Body.String(), foreign.Body.String())
	}

	// The foreign chat is untouched.
	assert.Contains(t, store.chats, "foreign")
	assert.Equal(t, "chat foreign", store.chats["foreign"].Title)
}

func TestListChats_NewestUpdatedFirst(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	base := time.Now()
	seedChat(store, "old", user.ID, base.Add(-time.Hour))
	seedChat(store, "new", user.ID, base)
	seedChat(store, "other", "someone-else", base.Add(time.Hour))
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var chats []models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 2)
	assert.Equal(t, "new", chats[0].ID)
	assert.Equal(t, "old", chats[1].ID)
}

func TestCreateChat(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodPost, "/chats", `{"title":"Trip planning"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, "Trip planning", chat.Title)
	assert.NotEmpty(t, chat.ID)
	assert.Contains(t, store.chats, chat.ID)
	// First-time identity was provisioned on the way.
	assert.Contains(t, store.users, devAuthID)
}

func TestCreateChat_EmptyTitle(t *testing.T) {
	store := newFakeStore()
	seedDevUser(store)
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodPost, "/chats", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.chats)
}

func TestDeleteChat_CascadesToMessages(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	for i, content := range []string{"a", "b", "c"} {
		seedMessage(store, "c1", content, i%2 == 0, time.Now().Add(time.Duration(i)*time.Second))
	}
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodDelete, "/chats/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	assert.NotContains(t, store.chats, "c1")
	assert.Empty(t, store.messages["c1"])
}

// Messages

func TestCreateMessage_RejectsUnknownFields(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	srv := newTestServer(store, &fakeLLM{})

	body := `{"chat_id":"c1","content":"hi","is_from_user":true,"admin":true}`
	rec := doRequest(srv, http.MethodPost, "/messages", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// Rejected before any storage mutation.
	assert.Zero(t, store.messageWrites)
}

func TestCreateMessage_MissingRequiredFields(t *testing.T) {
	store := newFakeStore()
	seedDevUser(store)
	srv := newTestServer(store, &fakeLLM{})

	for _, body := range []string{`{"content":"hi","is_from_user":true}`, `{"chat_id":"c1","content":"hi"}`} {
		rec := doRequest(srv, http.MethodPost, "/messages", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Zero(t, store.messageWrites)
}

func TestCreateMessage_OK(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodPost, "/messages", `{"chat_id":"c1","content":"hello there","is_from_user":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "c1", msg.ChatID)
	assert.True(t, msg.IsFromUser)
	require.Len(t, store.messages["c1"], 1)
}

func TestListMessages_ChronologicalOrder(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	base := time.Now()
	seedMessage(store, "c1", "third", false, base.Add(3*time.Second))
	seedMessage(store, "c1", "first", true, base.Add(1*time.Second))
	seedMessage(store, "c1", "second", false, base.Add(2*time.Second))
	srv := newTestServer(store, &fakeLLM{})

	rec := doRequest(srv, http.MethodGet, "/messages/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

// AI turn

func TestGenerate_Success(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	base := time.Now().Add(-time.Minute)
	seedMessage(store, "c1", "hi", true, base.Add(1*time.Second))
	seedMessage(store, "c1", "hello", false, base.Add(2*time.Second))
	seedMessage(store, "c1", "bye", true, base.Add(3*time.Second))

	model := &fakeLLM{available: true, response: "bis bald!"}
	srv := newTestServer(store, model)

	rec := doRequest(srv, http.MethodPost, "/ai/generate/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var msg models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "bis bald!", msg.Content)
	assert.False(t, msg.IsFromUser)

	// Exactly one new message, stamped after all prior ones.
	require.Len(t, store.messages["c1"], 4)
	assert.True(t, msg.CreatedAt.After(base.Add(3*time.Second)))

	// The most recent user message is the active prompt, not the oldest.
	assert.Equal(t, 1, model.generateCalls)
	assert.Equal(t, "bye", model.gotPrompt)
	assert.Contains(t, model.gotSystem, "user: hi\nassistant: hello\nuser: bye")
}

func TestGenerate_EmptyChat(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	model := &fakeLLM{available: true, response: "hi"}
	srv := newTestServer(store, model)

	rec := doRequest(srv, http.MethodPost, "/ai/generate/c1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"No messages to respond to"}`, rec.Body.String())
	assert.Zero(t, model.generateCalls)
	assert.Zero(t, store.messageWrites)
}

func TestGenerate_OnlyAssistantMessages(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	seedMessage(store, "c1", "welcome!", false, time.Now())
	model := &fakeLLM{available: true, response: "hi"}
	srv := newTestServer(store, model)

	rec := doRequest(srv, http.MethodPost, "/ai/generate/c1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"No user message found"}`, rec.Body.String())
	assert.Zero(t, model.generateCalls)
	assert.Zero(t, store.messageWrites)
}

func TestGenerate_ServiceUnavailable(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	seedMessage(store, "c1", "hi", true, time.Now())
	model := &fakeLLM{available: false}
	srv := newTestServer(store, model)

	rec := doRequest(srv, http.MethodPost, "/ai/generate/c1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, model.generateCalls)
	assert.Zero(t, store.messageWrites)
}

func TestGenerate_FailureLeavesNoMessage(t *testing.T) {
	store := newFakeStore()
	user := seedDevUser(store)
	seedChat(store, "c1", user.ID, time.Now())
	seedMessage(store, "c1", "hi", true, time.Now())

	cases := []*fakeLLM{
		{available: true, err: assert.AnError},
		{available: true, response: ""}, // 200 with empty content is still a failure
	}
	for _, model := range cases {
		srv := newTestServer(store, model)
		rec := doRequest(srv, http.MethodPost, "/ai/generate/c1", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"Failed to generate AI response"}`, rec.Body.String())
	}
	assert.Zero(t, store.messageWrites)
	require.Len(t, store.messages["c1"], 1)
}
