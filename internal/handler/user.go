package handler

import (
	"errors"
	"net/http"

	"github.com/hostedid/accounts/internal/model"
	"github.com/hostedid/accounts/internal/service"
)

// UserResponse is the public view of a user
type UserResponse struct {
	*model.User
	URL string `json:"url"`
}

func newUserResponse(u *model.User) UserResponse {
	return UserResponse{User: u, URL: u.AbsoluteURL()}
}

// Register handles POST /api/v1/users
// Creates the account and queues its welcome email.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user, err := h.userSvc.Register(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid_email", "A valid email address is required")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "Email is already registered")
		default:
			h.log.Error().Err(err).Msg("registration failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to register user")
		}
		return
	}

	w.Header().Set("Location", user.AbsoluteURL())
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

// GetUser handles GET /users/{id}/
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.log.Error().Err(err).Msg("failed to get user")
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}
