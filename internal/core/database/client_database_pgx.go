package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/crudai-app/backend/internal/config"
	"github.com/crudai-app/backend/internal/models"
)

const pgUniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, auth0_user_id, username, email, name, picture, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Auth0UserID, user.Username, user.Email, user.Name, user.Picture, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Auth0UserID, models.ErrDuplicate)
	}
	return err
}

func (c *DatabaseClient) GetUserByAuthID(ctx context.Context, auth0UserID string) (*models.User, error) {
	const q = `
		SELECT id, auth0_user_id, username, email, name, picture, created_at, updated_at
		FROM users WHERE auth0_user_id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, auth0UserID).Scan(
		&u.ID, &u.Auth0UserID, &u.Username, &u.Email, &u.Name, &u.Picture, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) UpdateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		UPDATE users
		SET username = $2, name = $3, picture = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := c.db.QueryRowContext(ctx, q, user.ID, user.Username, user.Name, user.Picture).Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	return err
}

// Chats

func (c *DatabaseClient) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat == nil {
		return errors.New("nil chat")
	}
	const q = `
		INSERT INTO chats (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q,
		chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt)
	return err
}

// GetChatForUser fetches a chat filtered by both its ID and the owner in one
// query, so a foreign chat is indistinguishable from a missing one.
func (c *DatabaseClient) GetChatForUser(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats
		WHERE id = $1 AND user_id = $2
	`
	var ch models.Chat
	err := c.db.QueryRowContext(ctx, q, chatID, userID).Scan(
		&ch.ID, &ch.UserID, &ch.Title, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *DatabaseClient) ListChatsByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	const q = `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chat
	for rows.Next() {
		var ch models.Chat
		if err := rows.Scan(&ch.ID, &ch.UserID, &ch.Title, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateChatTitle(ctx context.Context, chatID, userID, title string) (*models.Chat, error) {
	const q = `
		UPDATE chats
		SET title = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, created_at, updated_at
	`
	var ch models.Chat
	err := c.db.QueryRowContext(ctx, q, chatID, userID, title).Scan(
		&ch.ID, &ch.UserID, &ch.Title, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// DeleteChat removes a chat and all of its messages in a single transaction.
// Either both deletes commit or neither does.
func (c *DatabaseClient) DeleteChat(ctx context.Context, chatID, userID string) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const delMessages = `
		DELETE FROM messages
		WHERE chat_id IN (SELECT id FROM chats WHERE id = $1 AND user_id = $2)
	`
	if _, err := tx.ExecContext(ctx, delMessages, chatID, userID); err != nil {
		_ = tx.Rollback()
		return err
	}

	const delChat = `DELETE FROM chats WHERE id = $1 AND user_id = $2`
	res, err := tx.ExecContext(ctx, delChat, chatID, userID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		_ = tx.Rollback()
		return models.ErrNotFound
	}
	return tx.Commit()
}

// Messages

func (c *DatabaseClient) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	const q = `
		INSERT INTO messages (id, chat_id, content, is_from_user, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q,
		msg.ID, msg.ChatID, msg.Content, msg.IsFromUser, msg.CreatedAt)
	return err
}

func (c *DatabaseClient) ListMessagesByChat(ctx context.Context, chatID string) ([]models.Message, error) {
	const q = `
		SELECT id, chat_id, content, is_from_user, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC
	`
	return c.queryMessages(ctx, q, chatID)
}

// ListRecentMessages returns up to limit messages, newest first.
func (c *DatabaseClient) ListRecentMessages(ctx context.Context, chatID string, limit int) ([]models.Message, error) {
	const q = `
		SELECT id, chat_id, content, is_from_user, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return c.queryMessages(ctx, q, chatID, limit)
}

func (c *DatabaseClient) queryMessages(ctx context.Context, q string, args ...any) ([]models.Message, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Content, &m.IsFromUser, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
