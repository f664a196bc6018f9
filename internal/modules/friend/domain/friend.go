package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusAccepted RequestStatus = "Accepted"
	StatusRejected RequestStatus = "Rejected"
)

var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyResponded = errors.New("friend request was already responded to")
	ErrInvalidAction    = errors.New("action must be Accepted or Rejected")
)

// FriendRequest is one directed edge between two users. An Accepted edge is
// a friendship; there is at most one live edge per user pair.
type FriendRequest struct {
	ID          uuid.UUID     `db:"id"`
	Sender      uuid.UUID     `db:"sender"`
	Recipient   uuid.UUID     `db:"recipient"`
	Status      RequestStatus `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	RespondedAt *time.Time    `db:"responded_at"`
}

func NewFriendRequest(sender, recipient uuid.UUID, now time.Time) (FriendRequest, error) {
	if sender == recipient {
		return FriendRequest{}, ErrSelfRequest
	}

	return FriendRequest{
		ID:        uuid.New(),
		Sender:    sender,
		Recipient: recipient,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

type RespondOutcome struct {
	AlreadyResponded bool
}

// Respond settles a pending request. Repeating the same answer is a no-op
// success; changing a settled answer is a conflict.
func (r *FriendRequest) Respond(action RequestStatus, now time.Time) (RespondOutcome, error) {
	if action != StatusAccepted && action != StatusRejected {
		return RespondOutcome{}, ErrInvalidAction
	}

	if r.Status == action {
		return RespondOutcome{AlreadyResponded: true}, nil
	}

	if r.Status != StatusPending {
		return RespondOutcome{}, ErrAlreadyResponded
	}

	r.Status = action
	r.RespondedAt = &now

	return RespondOutcome{}, nil
}
