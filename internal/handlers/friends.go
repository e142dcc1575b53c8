package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"voicemail-backend/internal/middleware"
	"voicemail-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friendship HTTP requests
type FriendHandler struct {
	friendshipService *services.FriendshipService
	wsHub             *services.WSHub
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendshipService *services.FriendshipService, wsHub *services.WSHub) *FriendHandler {
	return &FriendHandler{
		friendshipService: friendshipService,
		wsHub:             wsHub,
	}
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	list, err := h.friendshipService.ListFriends(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondError(w, "Failed to list friends", http.StatusInternalServerError)
		return
	}

	respondJSON(w, list, http.StatusOK)
}

// Search handles GET /api/v1/friends/search?code=
func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, "code is required", http.StatusBadRequest)
		return
	}

	result, err := h.friendshipService.SearchByCode(ctx, userID, code)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, "user not found", http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, result, http.StatusOK)
}

// SendRequestBody represents the request body for sending a friend request
type SendRequestBody struct {
	TargetUserID string `json:"target_user_id"`
}

// SendRequest handles POST /api/v1/friends/requests
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TargetUserID == "" {
		respondError(w, "target_user_id is required", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.SendRequest(ctx, userID, req.TargetUserID); err != nil {
		h.respondFriendshipError(w, err, userID, req.TargetUserID, "Failed to send friend request")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("target_user_id", req.TargetUserID).
		Msg("Friend request sent")

	h.wsHub.NotifyFriendshipChanged(req.TargetUserID, "friend_request_received", map[string]any{
		"from_user_id": userID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// AcceptRequest handles POST /api/v1/friends/requests/{userID}/accept
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	requesterID := chi.URLParam(r, "userID")

	if err := h.friendshipService.AcceptRequest(ctx, userID, requesterID); err != nil {
		h.respondFriendshipError(w, err, userID, requesterID, "Failed to accept friend request")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("requester_id", requesterID).
		Msg("Friend request accepted")

	h.wsHub.NotifyFriendshipChanged(requesterID, "friend_request_accepted", map[string]any{
		"by_user_id": userID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// DeclineRequest handles POST /api/v1/friends/requests/{userID}/decline
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	requesterID := chi.URLParam(r, "userID")

	if err := h.friendshipService.DeclineRequest(ctx, userID, requesterID); err != nil {
		h.respondFriendshipError(w, err, userID, requesterID, "Failed to decline friend request")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("requester_id", requesterID).
		Msg("Friend request declined")

	w.WriteHeader(http.StatusNoContent)
}

// Unfriend handles DELETE /api/v1/friends/{userID}
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendID := chi.URLParam(r, "userID")

	if err := h.friendshipService.Unfriend(ctx, userID, friendID); err != nil {
		h.respondFriendshipError(w, err, userID, friendID, "Failed to unfriend")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friendID).
		Msg("Unfriended")

	h.wsHub.NotifyFriendshipChanged(friendID, "unfriended", map[string]any{
		"by_user_id": userID,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) respondFriendshipError(w http.ResponseWriter, err error, userID, otherID, genericMsg string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		respondError(w, "user not found", http.StatusNotFound)
	case errors.Is(err, services.ErrSelfTarget),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrRequestReceived):
		respondError(w, err.Error(), http.StatusConflict)
	default:
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("other_user_id", otherID).
			Msg(genericMsg)
		respondError(w, genericMsg, http.StatusInternalServerError)
	}
}
