package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

type ChatHandler struct {
	dbclient db.DbClient
	users    *services.UserService
}

func NewChatHandler(dbclient db.DbClient, users *services.UserService) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, users: users}
}

type chatRequest struct {
	Title string `json:"title"`
}

// ListChats returns the user's chats, newest-updated first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	chats, err := h.dbclient.ListChatsByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	chat, err := h.dbclient.GetChatForUser(r.Context(), chi.URLParam(r, "chatID"), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// CreateChat opens a new chat; a first-time identity is provisioned here too.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	user, ok := currentUser(w, r, h.users, true)
	if !ok {
		return
	}

	now := time.Now().UTC()
	chat := &models.Chat{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.dbclient.CreateChat(r.Context(), chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (h *ChatHandler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	chat, err := h.dbclient.UpdateChatTitle(r.Context(), chi.URLParam(r, "chatID"), user.ID, req.Title)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// DeleteChat removes the chat and all of its messages atomically.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	err := h.dbclient.DeleteChat(r.Context(), chi.URLParam(r, "chatID"), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
