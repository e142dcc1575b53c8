package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"voicemail-backend/internal/models"
	"voicemail-backend/internal/repository"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type       string      `json:"type"`
	Timestamp  int64       `json:"timestamp,omitempty"`
	SenderID   string      `json:"sender_id,omitempty"`
	SenderName string      `json:"sender_name,omitempty"`
	LetterID   string      `json:"letter_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	Online     *bool       `json:"online,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	userRepo    *repository.UserRepository
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(userRepo *repository.UserRepository) *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
		userRepo:    userRepo,
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	// Close existing connection if any
	if existingConn, exists := h.connections[userID]; exists {
		existingConn.Close()
	}
	h.connections[userID] = conn
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")

	go h.notifyFriendsStatus(userID, true)
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string) {
	h.mu.Lock()
	if conn, exists := h.connections[userID]; exists {
		conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
	h.mu.Unlock()

	go h.notifyFriendsStatus(userID, false)
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// notifyFriendsStatus pushes an online/offline event to the user's online
// friends. Best effort: lookup or send failures are logged only.
func (h *WSHub) notifyFriendsStatus(userID string, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Could not load friends for status notify")
		return
	}

	message := WSMessage{
		Type:   "friend_status",
		UserID: userID,
		Online: &online,
	}
	for _, friendID := range user.Friends {
		if !h.IsOnline(friendID) {
			continue
		}
		if err := h.SendToUser(friendID, message); err != nil {
			log.Warn().
				Err(err).
				Str("friend_id", friendID).
				Msg("Failed to notify friend status")
		}
	}
}

// NotifyLetterReceived pushes a letter_received event to the recipient if
// they are online
func (h *WSHub) NotifyLetterReceived(letter *models.VoiceLetter, senderName string) {
	if !h.IsOnline(letter.RecipientID) {
		return
	}

	message := WSMessage{
		Type:       "letter_received",
		LetterID:   letter.ID,
		SenderID:   letter.SenderID,
		SenderName: senderName,
		Timestamp:  letter.SentAt.UnixMilli(),
	}
	if err := h.SendToUser(letter.RecipientID, message); err != nil {
		log.Warn().
			Err(err).
			Str("recipient_id", letter.RecipientID).
			Msg("Failed to notify recipient about new letter")
	}
}

// NotifyFriendshipChanged pushes a friendship event (request, accept,
// decline, unfriend) to the other party if they are online
func (h *WSHub) NotifyFriendshipChanged(userID, event string, data interface{}) {
	if !h.IsOnline(userID) {
		return
	}
	message := WSMessage{
		Type: event,
		Data: data,
	}
	if err := h.SendToUser(userID, message); err != nil {
		log.Warn().
			Err(err).
			Str("user_id", userID).
			Str("event", event).
			Msg("Failed to notify friendship change")
	}
}
