package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InitSchema creates the tables used by the application if they do not exist
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT UNIQUE NOT NULL,
			friend_code CHAR(6) UNIQUE NOT NULL,
			friends TEXT[] NOT NULL DEFAULT '{}',
			friend_request_sent TEXT[] NOT NULL DEFAULT '{}',
			friend_request_received TEXT[] NOT NULL DEFAULT '{}',
			notification_time TEXT,
			daily_limits JSONB NOT NULL DEFAULT '{"date":"","counts":{}}',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS letters (
			id UUID PRIMARY KEY,
			sender_id TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			audio_url TEXT NOT NULL,
			photo_urls TEXT[] NOT NULL DEFAULT '{}',
			background_id TEXT,
			transcript TEXT,
			sent_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			is_read BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS letters_recipient_sent_at_idx
			ON letters (recipient_id, sent_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}
