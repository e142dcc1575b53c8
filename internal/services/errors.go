package services

import (
	"errors"
	"fmt"
)

// Errors surfaced by the letter dispatch path. The daily limit error carries
// the offending friend's display name so the UI can show it verbatim; every
// other dispatch failure collapses into ErrSendFailed for the caller.
var (
	ErrSenderNotFound = errors.New("sender profile not found")
	ErrSendFailed     = errors.New("failed to send letter")
)

// ErrValidation marks a malformed compose request. Wrapped with the concrete
// reason so handlers can map it to a 400 without string matching.
var ErrValidation = errors.New("invalid request")

// DailyLimitError reports that one of the requested recipients is over the
// per-friend daily limit. No letters are created when it is returned.
type DailyLimitError struct {
	RecipientName string
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("daily letter limit reached for %s", e.RecipientName)
}

// NotFriendsError reports that a requested recipient is not in the sender's
// friends list. Only friends are valid letter recipients.
type NotFriendsError struct {
	RecipientName string
}

func (e *NotFriendsError) Error() string {
	return fmt.Sprintf("you are not friends with %s", e.RecipientName)
}

// Errors surfaced by user and friendship operations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username is already taken")
	ErrSelfTarget      = errors.New("cannot perform this action on yourself")
	ErrAlreadyFriends  = errors.New("already friends")
	ErrRequestReceived = errors.New("this user has already sent you a friend request")
)
