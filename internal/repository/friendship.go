package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendshipRepository handles the relationship columns on user records.
// Every transition touches exactly two rows and runs in a single transaction
// so the symmetric invariants hold at rest: A.friends contains B iff
// B.friends contains A, and A.friend_request_sent contains B iff
// B.friend_request_received contains A.
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Idempotent set operations: appending an already-present id is a no-op,
// as is removing an absent one. This makes duplicate or racing transitions
// safe without row locks.
const (
	addSentSQL     = `UPDATE users SET friend_request_sent = array_append(friend_request_sent, $1) WHERE id = $2 AND NOT ($1 = ANY(friend_request_sent))`
	addReceivedSQL = `UPDATE users SET friend_request_received = array_append(friend_request_received, $1) WHERE id = $2 AND NOT ($1 = ANY(friend_request_received))`
	addFriendSQL   = `UPDATE users SET friends = array_append(friends, $1) WHERE id = $2 AND NOT ($1 = ANY(friends))`

	removeSentSQL     = `UPDATE users SET friend_request_sent = array_remove(friend_request_sent, $1) WHERE id = $2`
	removeReceivedSQL = `UPDATE users SET friend_request_received = array_remove(friend_request_received, $1) WHERE id = $2`
	removeFriendSQL   = `UPDATE users SET friends = array_remove(friends, $1) WHERE id = $2`
)

func (r *FriendshipRepository) runBatch(ctx context.Context, name string, statements [][3]string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin %s: %w", name, err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt[0], stmt[1], stmt[2]); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

// AddRequest records a pending friend request from one user to another
func (r *FriendshipRepository) AddRequest(ctx context.Context, fromID, toID string) error {
	return r.runBatch(ctx, "friend request", [][3]string{
		{addSentSQL, toID, fromID},
		{addReceivedSQL, fromID, toID},
	})
}

// AcceptRequest converts a pending request into a friendship on both sides
func (r *FriendshipRepository) AcceptRequest(ctx context.Context, acceptorID, requesterID string) error {
	return r.runBatch(ctx, "friend accept", [][3]string{
		{addFriendSQL, requesterID, acceptorID},
		{removeReceivedSQL, requesterID, acceptorID},
		{addFriendSQL, acceptorID, requesterID},
		{removeSentSQL, acceptorID, requesterID},
	})
}

// DeclineRequest removes a pending request from both sides
func (r *FriendshipRepository) DeclineRequest(ctx context.Context, declinerID, requesterID string) error {
	return r.runBatch(ctx, "friend decline", [][3]string{
		{removeReceivedSQL, requesterID, declinerID},
		{removeSentSQL, declinerID, requesterID},
	})
}

// Unfriend removes an existing friendship from both sides
func (r *FriendshipRepository) Unfriend(ctx context.Context, userID, friendID string) error {
	return r.runBatch(ctx, "unfriend", [][3]string{
		{removeFriendSQL, friendID, userID},
		{removeFriendSQL, userID, friendID},
	})
}
