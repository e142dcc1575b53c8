package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voicemail-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	maxPhotosPerLetter = 3
	maxSendAttempts    = 3
)

// letterStore is the slice of the letter repository the dispatch path needs.
type letterStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, letter *models.VoiceLetter) error
	ListByRecipient(ctx context.Context, recipientID string) ([]models.VoiceLetter, error)
	MarkRead(ctx context.Context, letterID, recipientID string) error
	Delete(ctx context.Context, letterID, userID string) error
}

// senderStore is the slice of the user repository the dispatch path needs.
type senderStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	DailyLimitsTx(ctx context.Context, tx pgx.Tx, userID string) (models.DailyLimits, error)
	SetDailyLimitsTx(ctx context.Context, tx pgx.Tx, userID string, limits models.DailyLimits) error
}

// LetterService handles letter dispatch, inbox reads, the read flag and
// deletion
type LetterService struct {
	letterRepo letterStore
	userRepo   senderStore
	db         *pgxpool.Pool
	storage    *Storage
}

// NewLetterService creates a new letter service
func NewLetterService(
	letterRepo letterStore,
	userRepo senderStore,
	db *pgxpool.Pool,
	storage *Storage,
) *LetterService {
	return &LetterService{
		letterRepo: letterRepo,
		userRepo:   userRepo,
		db:         db,
		storage:    storage,
	}
}

// Photo is one photo attachment of a compose request
type Photo struct {
	Name        string
	ContentType string
	Data        []byte
}

// SendLetterRequest is one compose action: one sender, up to N recipients,
// one audio blob, 0-3 photos, optional background style and transcript.
type SendLetterRequest struct {
	SenderID     string
	RecipientIDs []string
	Audio        []byte
	Photos       []Photo
	BackgroundID *string
	Transcript   *string
}

// SendLetter dispatches one compose request: it verifies the per-friend
// daily limit for every recipient, uploads the shared artifacts once, then
// creates one letter per recipient and replaces the sender's limit bucket in
// a single database transaction. If any recipient is over limit, no letters
// are created and no counter moves.
//
// Artifacts are uploaded only after the limit pre-check passes, and the
// check is repeated against fresh data inside the commit transaction, so two
// racing sends from the same sender cannot both take the last slot. On a
// limit rejection the already-uploaded artifacts are orphaned; that leak is
// accepted, matching deletion behavior.
func (s *LetterService) SendLetter(ctx context.Context, req SendLetterRequest) ([]models.VoiceLetter, error) {
	if len(req.RecipientIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrValidation)
	}
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: audio is required", ErrValidation)
	}
	if len(req.Photos) > maxPhotosPerLetter {
		return nil, fmt.Errorf("%w: at most %d photos are allowed", ErrValidation, maxPhotosPerLetter)
	}

	sender, err := s.userRepo.GetByID(ctx, req.SenderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSenderNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	// Only friends are valid recipients; the relationship sets guard the
	// dispatch boundary, not just the compose UI.
	for _, recipientID := range req.RecipientIDs {
		if !contains(sender.Friends, recipientID) {
			return nil, s.notFriendsError(ctx, recipientID)
		}
	}

	// Cheap pre-check against the sender's last known bucket, to avoid
	// uploading artifacts for a send that cannot succeed. The transaction
	// below repeats the check authoritatively.
	today := LimitDate(time.Now())
	if _, overID, ok := ApplyDailyLimits(sender.DailyLimits, today, req.RecipientIDs); !ok {
		return nil, s.dailyLimitError(ctx, overID)
	}

	audioURL, photoURLs, err := s.uploadArtifacts(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	var letters []models.VoiceLetter
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		letters, err = s.commitSend(ctx, req, audioURL, photoURLs)
		if err == nil {
			return letters, nil
		}
		if isSerializationFailure(err) {
			log.Debug().
				Str("sender_id", req.SenderID).
				Int("attempt", attempt+1).
				Msg("Send transaction conflicted, retrying")
			continue
		}
		var limitErr *DailyLimitError
		if errors.As(err, &limitErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
}

// uploadArtifacts stores the audio and photos under one freshly generated
// send id, shared by every letter of this compose action.
func (s *LetterService) uploadArtifacts(ctx context.Context, req SendLetterRequest) (string, []string, error) {
	sendID := uuid.New().String()

	audioURL, err := s.storage.Upload(ctx, req.Audio,
		fmt.Sprintf("voiceLetters/%s/voice.webm", sendID), "audio/webm")
	if err != nil {
		return "", nil, err
	}

	photoURLs := make([]string, 0, len(req.Photos))
	for i, photo := range req.Photos {
		contentType := photo.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		url, err := s.storage.Upload(ctx, photo.Data,
			fmt.Sprintf("voiceLetters/%s/photo_%d_%s", sendID, i, photo.Name), contentType)
		if err != nil {
			return "", nil, err
		}
		photoURLs = append(photoURLs, url)
	}

	return audioURL, photoURLs, nil
}

// commitSend runs the atomic part of the dispatch: re-read the sender's
// bucket, re-check every recipient, insert one letter per recipient and
// replace the bucket, all in one repeatable-read transaction. A concurrent
// writer on the sender row makes the commit fail with a serialization error,
// which the caller retries.
func (s *LetterService) commitSend(ctx context.Context, req SendLetterRequest, audioURL string, photoURLs []string) ([]models.VoiceLetter, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin send transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	bucket, err := s.userRepo.DailyLimitsTx(ctx, tx, req.SenderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSenderNotFound
		}
		return nil, err
	}

	today := LimitDate(time.Now())
	next, overID, ok := ApplyDailyLimits(bucket, today, req.RecipientIDs)
	if !ok {
		return nil, s.dailyLimitError(ctx, overID)
	}

	letters := make([]models.VoiceLetter, 0, len(req.RecipientIDs))
	for _, recipientID := range req.RecipientIDs {
		letter := models.VoiceLetter{
			ID:           uuid.New().String(),
			SenderID:     req.SenderID,
			RecipientID:  recipientID,
			AudioURL:     audioURL,
			PhotoURLs:    photoURLs,
			BackgroundID: req.BackgroundID,
			Transcript:   req.Transcript,
		}
		if err := s.letterRepo.CreateTx(ctx, tx, &letter); err != nil {
			return nil, err
		}
		letters = append(letters, letter)
	}

	if err := s.userRepo.SetDailyLimitsTx(ctx, tx, req.SenderID, next); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit send transaction: %w", err)
	}
	return letters, nil
}

// dailyLimitError resolves the over-limit recipient's display name, falling
// back to a generic label when the profile is missing.
func (s *LetterService) dailyLimitError(ctx context.Context, recipientID string) error {
	name := "this friend"
	if recipient, err := s.userRepo.GetByID(ctx, recipientID); err == nil && recipient.Username != "" {
		name = recipient.Username
	}
	return &DailyLimitError{RecipientName: name}
}

// notFriendsError resolves the rejected recipient's display name, falling
// back to a generic label when the profile is missing.
func (s *LetterService) notFriendsError(ctx context.Context, recipientID string) error {
	name := "this user"
	if recipient, err := s.userRepo.GetByID(ctx, recipientID); err == nil && recipient.Username != "" {
		name = recipient.Username
	}
	return &NotFriendsError{RecipientName: name}
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Inbox retrieves a user's received letters, newest first
func (s *LetterService) Inbox(ctx context.Context, userID string) ([]models.VoiceLetter, error) {
	return s.letterRepo.ListByRecipient(ctx, userID)
}

// MarkAsRead flips the read flag on the recipient's first open. Failures are
// absorbed here: re-opening a letter must never break the reading flow.
func (s *LetterService) MarkAsRead(ctx context.Context, letterID, userID string) {
	if err := s.letterRepo.MarkRead(ctx, letterID, userID); err != nil {
		log.Warn().
			Err(err).
			Str("letter_id", letterID).
			Str("user_id", userID).
			Msg("Could not mark letter as read")
	}
}

// DeleteLetter hard-deletes a letter the user sent or received. Artifacts
// stay in storage.
func (s *LetterService) DeleteLetter(ctx context.Context, letterID, userID string) error {
	return s.letterRepo.Delete(ctx, letterID, userID)
}
