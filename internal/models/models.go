package models

import "time"

// SystemSenderID is the reserved sender id used for letters sent by the team.
const SystemSenderID = "THE_CREATORS"

// DailyLimits tracks how many letters a user has sent to each friend today.
// Counts are only meaningful while Date equals the current calendar date;
// a stale bucket is treated as all-zero and rewritten on next use.
type DailyLimits struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

// User represents a user in the system
type User struct {
	ID                    string      `json:"id"`
	Email                 string      `json:"email"`
	Username              string      `json:"username"`
	FriendCode            string      `json:"friend_code"`
	Friends               []string    `json:"friends"`
	FriendRequestSent     []string    `json:"friend_request_sent"`
	FriendRequestReceived []string    `json:"friend_request_received"`
	NotificationTime      *string     `json:"notification_time,omitempty"` // 12-hour clock, e.g. "3:00 PM"
	DailyLimits           DailyLimits `json:"daily_limits"`
	CreatedAt             time.Time   `json:"created_at"`
}

// VoiceLetter represents a single directed voice letter. Immutable after
// creation except for the read flag.
type VoiceLetter struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	RecipientID  string    `json:"recipient_id"`
	AudioURL     string    `json:"audio_url"`
	PhotoURLs    []string  `json:"photo_urls"`
	BackgroundID *string   `json:"background_id,omitempty"`
	Transcript   *string   `json:"transcript,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	IsRead       bool      `json:"is_read"`
}
