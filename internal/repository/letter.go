package repository

import (
	"context"
	"fmt"
	"time"

	"voicemail-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LetterRepository handles database operations for voice letters
type LetterRepository struct {
	db *pgxpool.Pool
}

// NewLetterRepository creates a new letter repository
func NewLetterRepository(db *pgxpool.Pool) *LetterRepository {
	return &LetterRepository{db: db}
}

// CreateTx inserts a letter inside the caller's transaction. The sent
// timestamp is assigned by the database at commit time and written back
// into the letter.
func (r *LetterRepository) CreateTx(ctx context.Context, tx pgx.Tx, letter *models.VoiceLetter) error {
	query := `
		INSERT INTO letters (id, sender_id, recipient_id, audio_url, photo_urls,
			background_id, transcript, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING sent_at
	`
	err := tx.QueryRow(ctx, query,
		letter.ID, letter.SenderID, letter.RecipientID, letter.AudioURL,
		letter.PhotoURLs, letter.BackgroundID, letter.Transcript,
	).Scan(&letter.SentAt)
	if err != nil {
		return fmt.Errorf("failed to create letter: %w", err)
	}
	return nil
}

// GetByID retrieves a letter by ID
func (r *LetterRepository) GetByID(ctx context.Context, id string) (*models.VoiceLetter, error) {
	query := `
		SELECT id, sender_id, recipient_id, audio_url, photo_urls,
			background_id, transcript, sent_at, is_read
		FROM letters
		WHERE id = $1
	`
	var letter models.VoiceLetter
	err := r.db.QueryRow(ctx, query, id).Scan(
		&letter.ID, &letter.SenderID, &letter.RecipientID, &letter.AudioURL,
		&letter.PhotoURLs, &letter.BackgroundID, &letter.Transcript,
		&letter.SentAt, &letter.IsRead,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("letter not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get letter: %w", err)
	}
	return &letter, nil
}

// ListByRecipient retrieves a user's inbox, newest first
func (r *LetterRepository) ListByRecipient(ctx context.Context, recipientID string) ([]models.VoiceLetter, error) {
	query := `
		SELECT id, sender_id, recipient_id, audio_url, photo_urls,
			background_id, transcript, sent_at, is_read
		FROM letters
		WHERE recipient_id = $1
		ORDER BY sent_at DESC
	`
	return r.queryLetters(ctx, query, recipientID)
}

// ReceivedSince retrieves letters received by a user at or after the given
// time, used by the digest to build the trailing 24-hour window.
func (r *LetterRepository) ReceivedSince(ctx context.Context, recipientID string, since time.Time) ([]models.VoiceLetter, error) {
	query := `
		SELECT id, sender_id, recipient_id, audio_url, photo_urls,
			background_id, transcript, sent_at, is_read
		FROM letters
		WHERE recipient_id = $1 AND sent_at >= $2
		ORDER BY sent_at
	`
	return r.queryLetters(ctx, query, recipientID, since)
}

func (r *LetterRepository) queryLetters(ctx context.Context, query string, args ...any) ([]models.VoiceLetter, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get letters: %w", err)
	}
	defer rows.Close()

	var letters []models.VoiceLetter
	for rows.Next() {
		var letter models.VoiceLetter
		err := rows.Scan(
			&letter.ID, &letter.SenderID, &letter.RecipientID, &letter.AudioURL,
			&letter.PhotoURLs, &letter.BackgroundID, &letter.Transcript,
			&letter.SentAt, &letter.IsRead,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan letter: %w", err)
		}
		letters = append(letters, letter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating letters: %w", err)
	}

	return letters, nil
}

// MarkRead flips the read flag for a letter owned by the recipient.
// Re-marking an already read letter is a harmless no-op.
func (r *LetterRepository) MarkRead(ctx context.Context, letterID, recipientID string) error {
	query := `UPDATE letters SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`
	result, err := r.db.Exec(ctx, query, letterID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark letter as read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("letter not found")
	}
	return nil
}

// Delete hard-deletes a letter if the user is its sender or recipient.
// Stored artifacts are left in place.
func (r *LetterRepository) Delete(ctx context.Context, letterID, userID string) error {
	query := `DELETE FROM letters WHERE id = $1 AND (sender_id = $2 OR recipient_id = $2)`
	result, err := r.db.Exec(ctx, query, letterID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete letter: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("letter not found")
	}
	return nil
}
