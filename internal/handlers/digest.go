package handlers

import (
	"net/http"

	"voicemail-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// DigestHandler exposes a manual trigger for the digest run
type DigestHandler struct {
	digestService *services.DigestService
}

// NewDigestHandler creates a new digest handler
func NewDigestHandler(digestService *services.DigestService) *DigestHandler {
	return &DigestHandler{
		digestService: digestService,
	}
}

// Run handles POST /internal/digest/run
func (h *DigestHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.digestService.Run(r.Context()); err != nil {
		log.Error().Err(err).Msg("Manual digest run failed")
		respondError(w, "Digest run failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
