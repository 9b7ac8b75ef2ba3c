package handlers

import (
	"context"
	"sort"

	"github.com/crudai-app/backend/internal/models"
)

// fakeStore is an in-memory DbClient used by handler tests.
type fakeStore struct {
	users    map[string]*models.User // keyed by auth0_user_id
	chats    map[string]*models.Chat
	messages map[string][]models.Message // keyed by chat_id

	messageWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]models.Message),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	if _, exists := f.users[u.Auth0UserID]; exists {
		return models.ErrDuplicate
	}
	f.users[u.Auth0UserID] = u
	return nil
}

func (f *fakeStore) GetUserByAuthID(_ context.Context, authID string) (*models.User, error) {
	u, ok := f.users[authID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *models.User) error {
	if _, ok := f.users[u.Auth0UserID]; !ok {
		return models.ErrNotFound
	}
	f.users[u.Auth0UserID] = u
	return nil
}

func (f *fakeStore) CreateChat(_ context.Context, c *models.Chat) error {
	f.chats[c.ID] = c
	return nil
}

func (f *fakeStore) GetChatForUser(_ context.Context, chatID, userID string) (*models.Chat, error) {
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListChatsByUser(_ context.Context, userID string) ([]models.Chat, error) {
	var out []models.Chat
	for _, c := range f.chats {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateChatTitle(ctx context.Context, chatID, userID, title string) (*models.Chat, error) {
	c, err := f.GetChatForUser(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	c.Title = title
	c.UpdatedAt = c.UpdatedAt.Add(1)
	return c, nil
}

func (f *fakeStore) DeleteChat(ctx context.Context, chatID, userID string) error {
	if _, err := f.GetChatForUser(ctx, chatID, userID); err != nil {
		return err
	}
	delete(f.messages, chatID)
	delete(f.chats, chatID)
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, m *models.Message) error {
	f.messageWrites++
	f.messages[m.ChatID] = append(f.messages[m.ChatID], *m)
	return nil
}

func (f *fakeStore) ListMessagesByChat(_ context.Context, chatID string) ([]models.Message, error) {
	out := append([]models.Message(nil), f.messages[chatID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ListRecentMessages(_ context.Context, chatID string, limit int) ([]models.Message, error) {
	out := append([]models.Message(nil), f.messages[chatID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

// fakeLLM is a scripted model client.
type fakeLLM struct {
	available bool
	response  string
	err       error

	generateCalls int
	gotPrompt     string
	gotSystem     string
}

func (f *fakeLLM) IsAvailable(context.Context) bool { return f.available }

func (f *fakeLLM) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	f.generateCalls++
	f.gotPrompt = prompt
	f.gotSystem = systemPrompt
	return f.response, f.err
}
