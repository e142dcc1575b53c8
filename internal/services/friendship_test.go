package services

import (
	"context"
	"fmt"
	"testing"

	"voicemail-backend/internal/models"
)

func TestStatusBetween(t *testing.T) {
	user := &models.User{
		ID:                    "me",
		Friends:               []string{"f1"},
		FriendRequestSent:     []string{"s1"},
		FriendRequestReceived: []string{"r1"},
	}

	tests := []struct {
		otherID string
		want    string
	}{
		{otherID: "f1", want: StatusFriends},
		{otherID: "s1", want: StatusSent},
		{otherID: "r1", want: StatusReceived},
		{otherID: "stranger", want: StatusNone},
	}

	for _, tt := range tests {
		t.Run(tt.otherID, func(t *testing.T) {
			if got := StatusBetween(user, tt.otherID); got != tt.want {
				t.Errorf("StatusBetween(%q) = %q, want %q", tt.otherID, got, tt.want)
			}
		})
	}
}

func TestStatusBetween_FriendsTakesPrecedence(t *testing.T) {
	// A user is never simultaneously friend and pending, but if records ever
	// disagree the friends set wins.
	user := &models.User{
		ID:                "me",
		Friends:           []string{"x"},
		FriendRequestSent: []string{"x"},
	}
	if got := StatusBetween(user, "x"); got != StatusFriends {
		t.Errorf("StatusBetween = %q, want %q", got, StatusFriends)
	}
}

// fakeRelationshipStore keeps user records in memory and applies the same
// idempotent set transitions as the SQL batches: an id is never appended
// twice and removing an absent id is a no-op.
type fakeRelationshipStore struct {
	users map[string]*models.User
}

func newFakeRelationshipStore(ids ...string) *fakeRelationshipStore {
	s := &fakeRelationshipStore{users: make(map[string]*models.User)}
	for _, id := range ids {
		s.users[id] = &models.User{ID: id, Username: "user-" + id, FriendCode: "CODE" + id}
	}
	return s
}

func appendUnique(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *fakeRelationshipStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	copied := *u
	return &copied, nil
}

func (s *fakeRelationshipStore) GetByFriendCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range s.users {
		if u.FriendCode == code {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (s *fakeRelationshipStore) AddRequest(_ context.Context, userID, targetID string) error {
	s.users[userID].FriendRequestSent = appendUnique(s.users[userID].FriendRequestSent, targetID)
	s.users[targetID].FriendRequestReceived = appendUnique(s.users[targetID].FriendRequestReceived, userID)
	return nil
}

func (s *fakeRelationshipStore) AcceptRequest(_ context.Context, userID, requesterID string) error {
	s.users[userID].FriendRequestReceived = removeID(s.users[userID].FriendRequestReceived, requesterID)
	s.users[requesterID].FriendRequestSent = removeID(s.users[requesterID].FriendRequestSent, userID)
	s.users[userID].Friends = appendUnique(s.users[userID].Friends, requesterID)
	s.users[requesterID].Friends = appendUnique(s.users[requesterID].Friends, userID)
	return nil
}

func (s *fakeRelationshipStore) DeclineRequest(_ context.Context, userID, requesterID string) error {
	s.users[userID].FriendRequestReceived = removeID(s.users[userID].FriendRequestReceived, requesterID)
	s.users[requesterID].FriendRequestSent = removeID(s.users[requesterID].FriendRequestSent, userID)
	return nil
}

func (s *fakeRelationshipStore) Unfriend(_ context.Context, userID, friendID string) error {
	s.users[userID].Friends = removeID(s.users[userID].Friends, friendID)
	s.users[friendID].Friends = removeID(s.users[friendID].Friends, userID)
	return nil
}

// checkSymmetry verifies that both users see the same relationship: friend
// sets mirror each other and a sent request on one side is a received
// request on the other.
func checkSymmetry(t *testing.T, store *fakeRelationshipStore, a, b string) {
	t.Helper()
	ua, ub := store.users[a], store.users[b]
	if contains(ua.Friends, b) != contains(ub.Friends, a) {
		t.Errorf("friends asymmetric: %s has %v, %s has %v", a, ua.Friends, b, ub.Friends)
	}
	if contains(ua.FriendRequestSent, b) != contains(ub.FriendRequestReceived, a) {
		t.Errorf("sent/received asymmetric: %s sent %v, %s received %v",
			a, ua.FriendRequestSent, b, ub.FriendRequestReceived)
	}
	if contains(ub.FriendRequestSent, a) != contains(ua.FriendRequestReceived, b) {
		t.Errorf("sent/received asymmetric: %s sent %v, %s received %v",
			b, ub.FriendRequestSent, a, ua.FriendRequestReceived)
	}
}

func TestFriendship_SymmetryAcrossTransitions(t *testing.T) {
	ctx := context.Background()

	steps := []struct {
		name string
		run  func(s *FriendshipService) error
	}{
		{name: "Request", run: func(s *FriendshipService) error { return s.SendRequest(ctx, "alice", "bob") }},
		{name: "Accept", run: func(s *FriendshipService) error { return s.AcceptRequest(ctx, "bob", "alice") }},
		{name: "Unfriend", run: func(s *FriendshipService) error { return s.Unfriend(ctx, "alice", "bob") }},
		{name: "RequestAgain", run: func(s *FriendshipService) error { return s.SendRequest(ctx, "bob", "alice") }},
		{name: "Decline", run: func(s *FriendshipService) error { return s.DeclineRequest(ctx, "alice", "bob") }},
	}

	store := newFakeRelationshipStore("alice", "bob")
	service := NewFriendshipService(store, store)

	for _, step := range steps {
		if err := step.run(service); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		checkSymmetry(t, store, "alice", "bob")
	}

	alice := store.users["alice"]
	if len(alice.Friends)+len(alice.FriendRequestSent)+len(alice.FriendRequestReceived) != 0 {
		t.Errorf("expected no remaining relationship state, got %+v", alice)
	}
}

func TestFriendship_DoubleAcceptIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeRelationshipStore("alice", "bob")
	service := NewFriendshipService(store, store)

	if err := service.SendRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := service.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("first AcceptRequest: %v", err)
	}
	if err := service.AcceptRequest(ctx, "bob", "alice"); err != nil {
		t.Fatalf("second AcceptRequest: %v", err)
	}

	checkSymmetry(t, store, "alice", "bob")
	for _, id := range []string{"alice", "bob"} {
		u := store.users[id]
		if len(u.Friends) != 1 {
			t.Errorf("%s friends = %v, want exactly one entry", id, u.Friends)
		}
		if len(u.FriendRequestSent) != 0 || len(u.FriendRequestReceived) != 0 {
			t.Errorf("%s still has pending requests: %+v", id, u)
		}
	}
}

func TestFriendship_DeclineWithoutRequestIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newFakeRelationshipStore("alice", "bob")
	service := NewFriendshipService(store, store)

	if err := service.DeclineRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("DeclineRequest: %v", err)
	}
	checkSymmetry(t, store, "alice", "bob")
}
