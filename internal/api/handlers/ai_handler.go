package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crudai-app/backend/internal/core"
	db "github.com/crudai-app/backend/internal/core/database"
	"github.com/crudai-app/backend/internal/core/prompt"
	"github.com/crudai-app/backend/internal/metrics"
	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

type AIHandler struct {
	dbclient db.DbClient
	users    *services.UserService
	llm      core.LLMProvider
}

func NewAIHandler(dbclient db.DbClient, users *services.UserService, llm core.LLMProvider) *AIHandler {
	return &AIHandler{dbclient: dbclient, users: users, llm: llm}
}

// Generate runs one AI turn for a chat: load the recent history, check the
// model service, build the conversation context, generate, and persist the
// assistant message. Any failure short-circuits before the write; the stored
// message is the single side effect of a successful run.
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	chatID := chi.URLParam(r, "chatID")
	if _, err := h.dbclient.GetChatForUser(ctx, chatID, user.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	recent, err := h.dbclient.ListRecentMessages(ctx, chatID, prompt.ContextWindow)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(recent) == 0 {
		metrics.GenerationsTotal.WithLabelValues("no_context").Inc()
		writeError(w, http.StatusBadRequest, "No messages to respond to")
		return
	}

	if !h.llm.IsAvailable(ctx) {
		metrics.GenerationsTotal.WithLabelValues("unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, "AI service unavailable. Make sure Ollama is running.")
		return
	}

	chatCtx, err := prompt.BuildChatContext(recent, displayName(user))
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("no_context").Inc()
		switch {
		case errors.Is(err, prompt.ErrNoMessages):
			writeError(w, http.StatusBadRequest, "No messages to respond to")
		case errors.Is(err, prompt.ErrNoUserMessage):
			writeError(w, http.StatusBadRequest, "No user message found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	answer, err := h.llm.Generate(ctx, chatCtx.Prompt, chatCtx.SystemPrompt)
	if err != nil || answer == "" {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		writeError(w, http.StatusInternalServerError, "Failed to generate AI response")
		return
	}

	msg := &models.Message{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		Content:    answer,
		IsFromUser: false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.dbclient.CreateMessage(ctx, msg); err != nil {
		metrics.GenerationsTotal.WithLabelValues("failed").Inc()
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	metrics.GenerationsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, msg)
}

// displayName picks the persona name for the system prompt.
func displayName(u *models.User) string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return "User"
}
