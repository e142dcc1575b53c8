package handlers

import (
	"io"
	"net/http"

	"voicemail-backend/internal/middleware"
	"voicemail-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// TranscribeHandler proxies audio to the transcription service
type TranscribeHandler struct {
	transcriber *services.Transcriber
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(transcriber *services.Transcriber) *TranscribeHandler {
	return &TranscribeHandler{
		transcriber: transcriber,
	}
}

// Transcribe handles POST /api/v1/transcribe
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if !h.transcriber.Enabled() {
		respondError(w, "Transcription is not available", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseMultipartForm(maxComposeMemory); err != nil {
		respondError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	audioFile, header, err := r.FormFile("audio")
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

	text, err := h.transcriber.Transcribe(ctx, audio, header.Filename)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Transcription failed")
		respondError(w, "Transcription failed", http.StatusBadGateway)
		return
	}

	respondJSON(w, map[string]string{"text": text}, http.StatusOK)
}
