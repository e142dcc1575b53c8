package repository

import (
	"context"
	"fmt"

	"voicemail-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, username, friend_code, friends,
		friend_request_sent, friend_request_received,
		notification_time, daily_limits, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.FriendCode, &user.Friends,
		&user.FriendRequestSent, &user.FriendRequestReceived,
		&user.NotificationTime, &user.DailyLimits, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, friend_code, friends,
			friend_request_sent, friend_request_received,
			notification_time, daily_limits, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.FriendCode, user.Friends,
		user.FriendRequestSent, user.FriendRequestReceived,
		user.NotificationTime, user.DailyLimits, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByFriendCode retrieves a user by friend code
func (r *UserRepository) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE friend_code = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user by friend code: %w", err)
	}
	return user, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// FriendCodeExists checks if a friend code already exists
func (r *UserRepository) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE friend_code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friend code existence: %w", err)
	}
	return exists, nil
}

// UsernameTaken checks if a username is used by anyone other than userID
func (r *UserRepository) UsernameTaken(ctx context.Context, username, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`
	var taken bool
	err := r.db.QueryRow(ctx, query, username, userID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return taken, nil
}

// UpdateUsername updates the display username for a user
func (r *UserRepository) UpdateUsername(ctx context.Context, userID, username string) error {
	query := `UPDATE users SET username = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, username, userID)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// UpdateNotificationTime updates the preferred digest hour for a user.
// A nil value clears the preference, which disables the digest entirely.
func (r *UserRepository) UpdateNotificationTime(ctx context.Context, userID string, notificationTime *string) error {
	query := `UPDATE users SET notification_time = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, notificationTime, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification time: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// DailyLimitsTx reads the sender's daily limit bucket inside a transaction
func (r *UserRepository) DailyLimitsTx(ctx context.Context, tx pgx.Tx, userID string) (models.DailyLimits, error) {
	query := `SELECT daily_limits FROM users WHERE id = $1`
	var limits models.DailyLimits
	err := tx.QueryRow(ctx, query, userID).Scan(&limits)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.DailyLimits{}, fmt.Errorf("user not found: %w", err)
		}
		return models.DailyLimits{}, fmt.Errorf("failed to get daily limits: %w", err)
	}
	return limits, nil
}

// SetDailyLimitsTx replaces the sender's daily limit bucket inside a
// transaction. The bucket is always written whole so that a date roll
// discards every stale count at once.
func (r *UserRepository) SetDailyLimitsTx(ctx context.Context, tx pgx.Tx, userID string, limits models.DailyLimits) error {
	query := `UPDATE users SET daily_limits = $1 WHERE id = $2`
	_, err := tx.Exec(ctx, query, limits, userID)
	if err != nil {
		return fmt.Errorf("failed to update daily limits: %w", err)
	}
	return nil
}
