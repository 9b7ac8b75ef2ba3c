package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crudai-app/backend/internal/auth"
	"github.com/crudai-app/backend/internal/models"
	"github.com/crudai-app/backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"detail": ...} error body used across the API.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// currentUser resolves the acting user from the verified claims on the
// request context. With provision set, a first-time identity is auto-created;
// otherwise a missing user is a 404. Returns false when a response has
// already been written.
func currentUser(w http.ResponseWriter, r *http.Request, users *services.UserService, provision bool) (*models.User, bool) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	var (
		user *models.User
		err  error
	)
	if provision {
		user, err = users.ResolveUser(r.Context(), claims)
	} else {
		user, err = users.CurrentUser(r.Context(), claims)
	}
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return user, true
}
