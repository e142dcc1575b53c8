package handlers

import (
	"errors"
	"io"
	"net/http"

	"voicemail-backend/internal/middleware"
	"voicemail-backend/internal/models"
	"voicemail-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxComposeMemory caps in-memory multipart parsing for one compose request.
const maxComposeMemory = 32 << 20

// LetterHandler handles letter-related HTTP requests
type LetterHandler struct {
	letterService *services.LetterService
	userService   *services.UserService
	wsHub         *services.WSHub
}

// NewLetterHandler creates a new letter handler
func NewLetterHandler(letterService *services.LetterService, userService *services.UserService, wsHub *services.WSHub) *LetterHandler {
	return &LetterHandler{
		letterService: letterService,
		userService:   userService,
		wsHub:         wsHub,
	}
}

// SendLetter handles POST /api/v1/letters. The request is multipart form
// data: one "audio" file, up to three "photos" files, repeated
// "recipient_ids" values, optional "background_id" and "transcript".
func (h *LetterHandler) SendLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := r.ParseMultipartForm(maxComposeMemory); err != nil {
		respondError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	recipientIDs := r.MultipartForm.Value["recipient_ids"]
	if len(recipientIDs) == 0 {
		respondError(w, "recipient_ids is required", http.StatusBadRequest)
		return
	}

	audioFile, _, err := r.FormFile("audio")
	if err != nil {
		respondError(w, "audio is required", http.StatusBadRequest)
		return
	}
	defer audioFile.Close()
	audio, err := io.ReadAll(audioFile)
	if err != nil {
		respondError(w, "Failed to read audio", http.StatusBadRequest)
		return
	}

	var photos []services.Photo
	for _, header := range r.MultipartForm.File["photos"] {
		file, err := header.Open()
		if err != nil {
			respondError(w, "Failed to read photo", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, "Failed to read photo", http.StatusBadRequest)
			return
		}
		photos = append(photos, services.Photo{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	req := services.SendLetterRequest{
		SenderID:     userID,
		RecipientIDs: recipientIDs,
		Audio:        audio,
		Photos:       photos,
	}
	if v := r.FormValue("background_id"); v != "" {
		req.BackgroundID = &v
	}
	if v := r.FormValue("transcript"); v != "" {
		req.Transcript = &v
	}

	letters, err := h.letterService.SendLetter(ctx, req)
	if err != nil {
		var limitErr *services.DailyLimitError
		var friendErr *services.NotFriendsError
		switch {
		case errors.Is(err, services.ErrValidation):
			respondError(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &friendErr):
			respondError(w, friendErr.Error(), http.StatusForbidden)
		case errors.As(err, &limitErr):
			respondError(w, limitErr.Error(), http.StatusTooManyRequests)
		case errors.Is(err, services.ErrSenderNotFound):
			respondError(w, "sender profile not found", http.StatusNotFound)
		default:
			log.Error().
				Err(err).
				Str("user_id", userID).
				Int("recipients", len(recipientIDs)).
				Msg("Failed to send letter")
			respondError(w, "Failed to send letter. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	log.Info().
		Str("user_id", userID).
		Int("letters", len(letters)).
		Msg("Letter sent")

	senderName := "A friend"
	if sender, err := h.userService.GetUser(ctx, userID); err == nil {
		senderName = sender.Username
	}
	for i := range letters {
		h.wsHub.NotifyLetterReceived(&letters[i], senderName)
	}

	respondJSON(w, map[string]any{"letters": letters}, http.StatusCreated)
}

// GetInbox handles GET /api/v1/letters
func (h *LetterHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	letters, err := h.letterService.Inbox(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get inbox")
		respondError(w, "Failed to get inbox", http.StatusInternalServerError)
		return
	}
	if letters == nil {
		letters = []models.VoiceLetter{}
	}

	respondJSON(w, map[string]any{"letters": letters}, http.StatusOK)
}

// MarkRead handles POST /api/v1/letters/{letterID}/read. Always succeeds
// from the caller's point of view; failures are logged server-side only.
func (h *LetterHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	letterID := chi.URLParam(r, "letterID")

	h.letterService.MarkAsRead(ctx, letterID, userID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteLetter handles DELETE /api/v1/letters/{letterID}
func (h *LetterHandler) DeleteLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	letterID := chi.URLParam(r, "letterID")

	if err := h.letterService.DeleteLetter(ctx, letterID, userID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("letter_id", letterID).
			Msg("Failed to delete letter")
		respondError(w, "letter not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
