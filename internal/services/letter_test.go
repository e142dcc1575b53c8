package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"voicemail-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// fakeSenderStore serves user profiles for the dispatch path. The
// transaction methods are never reached by the cases below.
type fakeSenderStore struct {
	users map[string]*models.User
}

func (s *fakeSenderStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", pgx.ErrNoRows)
	}
	copied := *u
	return &copied, nil
}

func (s *fakeSenderStore) DailyLimitsTx(_ context.Context, _ pgx.Tx, _ string) (models.DailyLimits, error) {
	return models.DailyLimits{}, fmt.Errorf("unexpected transactional read")
}

func (s *fakeSenderStore) SetDailyLimitsTx(_ context.Context, _ pgx.Tx, _ string, _ models.DailyLimits) error {
	return fmt.Errorf("unexpected transactional write")
}

// fakeLetterStore keeps letters in memory. MarkRead mirrors the SQL update:
// it only applies when both the letter id and the recipient match.
type fakeLetterStore struct {
	letters map[string]*models.VoiceLetter
}

func (s *fakeLetterStore) CreateTx(_ context.Context, _ pgx.Tx, letter *models.VoiceLetter) error {
	s.letters[letter.ID] = letter
	return nil
}

func (s *fakeLetterStore) ListByRecipient(_ context.Context, recipientID string) ([]models.VoiceLetter, error) {
	var out []models.VoiceLetter
	for _, l := range s.letters {
		if l.RecipientID == recipientID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeLetterStore) MarkRead(_ context.Context, letterID, recipientID string) error {
	if l, ok := s.letters[letterID]; ok && l.RecipientID == recipientID {
		l.IsRead = true
	}
	return nil
}

func (s *fakeLetterStore) Delete(_ context.Context, letterID, userID string) error {
	l, ok := s.letters[letterID]
	if !ok || (l.SenderID != userID && l.RecipientID != userID) {
		return fmt.Errorf("letter not found")
	}
	delete(s.letters, letterID)
	return nil
}

func newTestLetterService(users *fakeSenderStore, letters *fakeLetterStore) *LetterService {
	if users == nil {
		users = &fakeSenderStore{users: map[string]*models.User{}}
	}
	if letters == nil {
		letters = &fakeLetterStore{letters: map[string]*models.VoiceLetter{}}
	}
	return NewLetterService(letters, users, nil, nil)
}

func TestSendLetter_Validation(t *testing.T) {
	sender := &models.User{ID: "alice", Username: "alice", Friends: []string{"bob"}}
	service := newTestLetterService(
		&fakeSenderStore{users: map[string]*models.User{"alice": sender}}, nil)

	tests := []struct {
		name string
		req  SendLetterRequest
	}{
		{
			name: "NoRecipients",
			req:  SendLetterRequest{SenderID: "alice", Audio: []byte("a")},
		},
		{
			name: "EmptyAudio",
			req:  SendLetterRequest{SenderID: "alice", RecipientIDs: []string{"bob"}},
		},
		{
			name: "TooManyPhotos",
			req: SendLetterRequest{
				SenderID:     "alice",
				RecipientIDs: []string{"bob"},
				Audio:        []byte("a"),
				Photos:       make([]Photo, maxPhotosPerLetter+1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SendLetter(context.Background(), tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSendLetter_RejectsNonFriendRecipient(t *testing.T) {
	users := &fakeSenderStore{users: map[string]*models.User{
		"alice":   {ID: "alice", Username: "alice", Friends: []string{"bob"}},
		"bob":     {ID: "bob", Username: "bob"},
		"mallory": {ID: "mallory", Username: "mallory"},
	}}
	service := newTestLetterService(users, nil)

	req := SendLetterRequest{
		SenderID:     "alice",
		RecipientIDs: []string{"bob", "mallory"},
		Audio:        []byte("a"),
	}
	_, err := service.SendLetter(context.Background(), req)

	var friendErr *NotFriendsError
	if !errors.As(err, &friendErr) {
		t.Fatalf("error = %v, want NotFriendsError", err)
	}
	if friendErr.RecipientName != "mallory" {
		t.Errorf("recipient name = %q, want %q", friendErr.RecipientName, "mallory")
	}
}

func TestSendLetter_DailyLimitPreCheck(t *testing.T) {
	today := LimitDate(time.Now())
	users := &fakeSenderStore{users: map[string]*models.User{
		"alice": {
			ID:       "alice",
			Username: "alice",
			Friends:  []string{"bob"},
			DailyLimits: models.DailyLimits{
				Date:   today,
				Counts: map[string]int{"bob": DailyLetterLimitPerFriend},
			},
		},
		"bob": {ID: "bob", Username: "bob"},
	}}
	service := newTestLetterService(users, nil)

	req := SendLetterRequest{
		SenderID:     "alice",
		RecipientIDs: []string{"bob"},
		Audio:        []byte("a"),
	}
	_, err := service.SendLetter(context.Background(), req)

	var limitErr *DailyLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("error = %v, want DailyLimitError", err)
	}
	if limitErr.RecipientName != "bob" {
		t.Errorf("recipient name = %q, want %q", limitErr.RecipientName, "bob")
	}
}

func TestSendLetter_UnknownSender(t *testing.T) {
	service := newTestLetterService(nil, nil)

	req := SendLetterRequest{
		SenderID:     "ghost",
		RecipientIDs: []string{"bob"},
		Audio:        []byte("a"),
	}
	if _, err := service.SendLetter(context.Background(), req); !errors.Is(err, ErrSenderNotFound) {
		t.Fatalf("error = %v, want ErrSenderNotFound", err)
	}
}

func TestMarkAsRead_FlagTransitions(t *testing.T) {
	ctx := context.Background()
	letters := &fakeLetterStore{letters: map[string]*models.VoiceLetter{
		"l1": {ID: "l1", SenderID: "alice", RecipientID: "bob"},
	}}
	service := newTestLetterService(nil, letters)

	service.MarkAsRead(ctx, "l1", "bob")
	if !letters.letters["l1"].IsRead {
		t.Fatal("letter not marked read after first open")
	}

	// Re-opening keeps the flag set and stays silent.
	service.MarkAsRead(ctx, "l1", "bob")
	if !letters.letters["l1"].IsRead {
		t.Fatal("read flag lost on second open")
	}

	// Wrong recipient and missing letter leave state untouched.
	service.MarkAsRead(ctx, "l1", "alice")
	service.MarkAsRead(ctx, "missing", "bob")
	if !letters.letters["l1"].IsRead {
		t.Fatal("read flag lost after unrelated calls")
	}
}
