package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userUpdateRequest struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Picture  *string `json:"picture"`
}

// GetMe returns the authenticated user's profile, provisioning the local
// record on first sight.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update; only the provided fields change.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, ok := currentUser(w, r, h.users, false)
	if !ok {
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Name != nil {
		user.Name = req.Name
	}
	if req.Picture != nil {
		user.Picture = req.Picture
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
