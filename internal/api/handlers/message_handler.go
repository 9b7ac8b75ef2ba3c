package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

type MessageHandler struct {
	dbclient db.DbClient
	users    *services.UserService
}

func NewMessageHandler(dbclient db.DbClient, users *services.UserService) *MessageHandler {
	return &MessageHandler{dbclient: dbclient, users: users}
}

type messageCreateRequest struct {
	ChatID     string `json:"chat_id"`
	Content    string `json:"content"`
	IsFromUser *bool  `json:"is_from_user"`
}

// ListMessages returns a chat's messages in chronological order.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	chatID := chi.URLParam(r, "chatID")
	if _, err := h.dbclient.GetChatForUser(r.Context(), chatID, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	messages, err := h.dbclient.ListMessagesByChat(r.Context(), chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// CreateMessage appends a message to a chat the user owns. Unknown request
// fields are rejected before any storage access.
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req messageCreateRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.ChatID == "" || req.IsFromUser == nil {
		writeError(w, http.StatusBadRequest, "chat_id and is_from_user are required")
		return
	}

	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	if _, err := h.dbclient.GetChatForUser(r.Context(), req.ChatID, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	msg := &models.Message{
		ID:         uuid.NewString(),
		ChatID:     req.ChatID,
		Content:    req.Content,
		IsFromUser: *req.IsFromUser,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.dbclient.CreateMessage(r.Context(), msg); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
