package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"voicemail-backend/internal/middleware"
	"voicemail-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents the request body for signup
type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" {
		respondError(w, "username is required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.CreateUser(ctx, req.Email, req.Username)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			respondError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("friend_code", user.FriendCode).
		Msg("User created")

	respondJSON(w, map[string]any{
		"user":  user,
		"token": token,
	}, http.StatusCreated)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondError(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, user, http.StatusOK)
}

// UpdateMeRequest represents the request body for profile updates. Absent
// fields are left unchanged; clear_notification_time removes the digest
// preference entirely.
type UpdateMeRequest struct {
	Username              *string `json:"username,omitempty"`
	NotificationTime      *string `json:"notification_time,omitempty"`
	ClearNotificationTime bool    `json:"clear_notification_time,omitempty"`
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != nil {
		if err := h.userService.UpdateUsername(ctx, userID, *req.Username); err != nil {
			if errors.Is(err, services.ErrUsernameTaken) {
				respondError(w, err.Error(), http.StatusConflict)
				return
			}
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to update username")
			respondError(w, "Failed to update username", http.StatusInternalServerError)
			return
		}
	}

	if req.NotificationTime != nil || req.ClearNotificationTime {
		value := req.NotificationTime
		if req.ClearNotificationTime {
			value = nil
		}
		if err := h.userService.UpdateNotificationTime(ctx, userID, value); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to update notification time")
			respondError(w, "Invalid notification time", http.StatusBadRequest)
			return
		}
	}

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondError(w, "Failed to get user", http.StatusInternalServerError)
		return
	}

	respondJSON(w, user, http.StatusOK)
}
