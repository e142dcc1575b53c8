package services

import (
	"context"
	"fmt"
	"strings"

	"voicemail-backend/internal/models"
)

// Relationship status values between two users, as seen from one side.
const (
	StatusNone     = "none"
	StatusFriends  = "friends"
	StatusSent     = "sent"
	StatusReceived = "received"
)

// relationshipStore applies the symmetric two-row transitions of the
// friendship state machine.
type relationshipStore interface {
	AddRequest(ctx context.Context, userID, targetID string) error
	AcceptRequest(ctx context.Context, userID, requesterID string) error
	DeclineRequest(ctx context.Context, userID, requesterID string) error
	Unfriend(ctx context.Context, userID, friendID string) error
}

// profileStore is the slice of the user repository friend flows need.
type profileStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByFriendCode(ctx context.Context, code string) (*models.User, error)
}

// FriendshipService handles friend discovery and the
// request/accept/decline/unfriend state machine
type FriendshipService struct {
	friendRepo relationshipStore
	userRepo   profileStore
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(friendRepo relationshipStore, userRepo profileStore) *FriendshipService {
	return &FriendshipService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// StatusBetween derives the relationship status toward another user from the
// acting user's own record
func StatusBetween(user *models.User, otherID string) string {
	if contains(user.Friends, otherID) {
		return StatusFriends
	}
	if contains(user.FriendRequestSent, otherID) {
		return StatusSent
	}
	if contains(user.FriendRequestReceived, otherID) {
		return StatusReceived
	}
	return StatusNone
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// SearchResult is a discovered user plus the relationship status toward them
type SearchResult struct {
	User   *models.User `json:"user"`
	Status string       `json:"status"`
}

// SearchByCode finds a user by exact friend code match. Codes are compared
// case-insensitively and the acting user is never returned.
func (s *FriendshipService) SearchByCode(ctx context.Context, userID, code string) (*SearchResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 6 {
		return nil, fmt.Errorf("friend code must be 6 characters")
	}

	found, err := s.userRepo.GetByFriendCode(ctx, code)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if found.ID == userID {
		return nil, ErrUserNotFound
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &SearchResult{
		User:   found,
		Status: StatusBetween(user, found.ID),
	}, nil
}

// SendRequest records a pending friend request toward the target user.
// Re-sending an existing request is a no-op.
func (s *FriendshipService) SendRequest(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return ErrSelfTarget
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return ErrUserNotFound
	}

	switch StatusBetween(user, targetID) {
	case StatusFriends:
		return ErrAlreadyFriends
	case StatusSent:
		return nil
	case StatusReceived:
		return ErrRequestReceived
	}

	return s.friendRepo.AddRequest(ctx, userID, targetID)
}

// AcceptRequest turns a pending incoming request into a friendship. Accepting
// a request that no longer exists is a no-op, which makes racing double
// accepts safe: the second application either re-runs the idempotent batch or
// sees the already-friends state and does nothing.
func (s *FriendshipService) AcceptRequest(ctx context.Context, userID, requesterID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	switch StatusBetween(user, requesterID) {
	case StatusReceived:
		return s.friendRepo.AcceptRequest(ctx, userID, requesterID)
	default:
		return nil
	}
}

// DeclineRequest removes a pending incoming request from both sides. Safe to
// call when no request exists.
func (s *FriendshipService) DeclineRequest(ctx context.Context, userID, requesterID string) error {
	return s.friendRepo.DeclineRequest(ctx, userID, requesterID)
}

// Unfriend removes an existing friendship from both sides. Safe to call when
// no friendship exists.
func (s *FriendshipService) Unfriend(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return ErrSelfTarget
	}
	return s.friendRepo.Unfriend(ctx, userID, friendID)
}

// FriendEntry is one row of the friends or pending-request listings
type FriendEntry struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FriendCode string `json:"friend_code"`
}

// FriendList holds a user's friends and pending requests in both directions
type FriendList struct {
	Friends          []FriendEntry `json:"friends"`
	RequestsReceived []FriendEntry `json:"requests_received"`
	RequestsSent     []FriendEntry `json:"requests_sent"`
}

// ListFriends resolves the user's relationship id sets into display entries.
// Ids whose profiles are missing are skipped rather than failing the listing.
func (s *FriendshipService) ListFriends(ctx context.Context, userID string) (*FriendList, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	list := &FriendList{
		Friends:          s.resolveEntries(ctx, user.Friends),
		RequestsReceived: s.resolveEntries(ctx, user.FriendRequestReceived),
		RequestsSent:     s.resolveEntries(ctx, user.FriendRequestSent),
	}
	return list, nil
}

func (s *FriendshipService) resolveEntries(ctx context.Context, ids []string) []FriendEntry {
	entries := make([]FriendEntry, 0, len(ids))
	for _, id := range ids {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		entries = append(entries, FriendEntry{
			ID:         u.ID,
			Username:   u.Username,
			FriendCode: u.FriendCode,
		})
	}
	return entries
}
