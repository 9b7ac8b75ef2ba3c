package db

import (
	"context"

	"github.com/crudai-app/backend/internal/models"
)

// DbClient defines all persistence operations the services and handlers need.
// It abstracts Postgres so higher layers never depend on a specific DB.
//
// Lookups scoped by ownership take both the entity ID and the acting user's
// ID and filter on both in a single query; "absent" and "not owned" are both
// reported as models.ErrNotFound.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByAuthID(ctx context.Context, auth0UserID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChatForUser(ctx context.Context, chatID, userID string) (*models.Chat, error)
	ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, userID, title string) (*models.Chat, error)
	DeleteChat(ctx context.Context, chatID, userID string) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error)
	ListRecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error)

	Close() error
}
