package models

import (
	"time"
)

// User represents an authenticated user of the system. Users are provisioned
// lazily from verified identity-provider claims; Auth0UserID is the stable
// subject identifier from the provider.
type User struct {
	ID          string    `db:"id" json:"id"`
	Auth0UserID string    `db:"auth0_user_id" json:"auth0_user_id"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email"`
	Name        *string   `db:"name" json:"name"`
	Picture     *string   `db:"picture" json:"picture"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Chat represents one conversation owned by a single user.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Message represents an individual chat message, either user- or
// assistant-authored. Messages are ordered by CreatedAt within their chat.
type Message struct {
	ID         string    `db:"id" json:"id"`
	ChatID     string    `db:"chat_id" json:"chat_id"`
	Content    string    `db:"content" json:"content"`
	IsFromUser bool      `db:"is_from_user" json:"is_from_user"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
