package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

// The closed set of ledger event types. Anything else is rejected at the
// validation boundary.
const (
	TypeFriendRequest  Type = "FRIEND_REQUEST"
	TypeFriendAccepted Type = "FRIEND_ACCEPTED"
	TypeFriendRejected Type = "FRIEND_REJECTED"
	TypeMatchInvite    Type = "MATCH_INVITE"
	TypeMatchReminder  Type = "MATCH_REMINDER"
	TypeMatchUpdated   Type = "MATCH_UPDATED"
	TypeMatchConfirmed Type = "MATCH_CONFIRMED"
	TypeMatchDeclined  Type = "MATCH_DECLINED"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFriendRequest, TypeFriendAccepted, TypeFriendRejected,
		TypeMatchInvite, TypeMatchReminder, TypeMatchUpdated,
		TypeMatchConfirmed, TypeMatchDeclined:
		return true
	}
	return false
}

// Notification is one append-only ledger entry. Only is_read ever changes
// after the insert, and only from false to true.
type Notification struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Recipient   uuid.UUID  `db:"recipient" json:"-"`
	Type        Type       `db:"type" json:"type"`
	EntityID    *uuid.UUID `db:"entity_id" json:"entityId,omitempty"`
	Sender      *uuid.UUID `db:"sender" json:"sender,omitempty"`
	SenderName  string     `db:"sender_name" json:"senderName,omitempty"`
	Title       string     `db:"title" json:"title,omitempty"`
	Description string     `db:"description" json:"description,omitempty"`
	IsRead      bool       `db:"is_read" json:"isRead"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

type Option func(*Notification)

func WithSender(senderID uuid.UUID, senderName string) Option {
	return func(n *Notification) {
		n.Sender = &senderID
		n.SenderName = senderName
	}
}

func WithEntity(entityID uuid.UUID) Option {
	return func(n *Notification) {
		n.EntityID = &entityID
	}
}

func WithText(title, description string) Option {
	return func(n *Notification) {
		n.Title = title
		n.Description = description
	}
}

func New(recipient uuid.UUID, t Type, createdAt time.Time, opts ...Option) Notification {
	n := Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Type:      t,
		CreatedAt: createdAt,
	}

	for _, opt := range opts {
		opt(&n)
	}

	return n
}

// DisplayTitle returns the stored override title, or one derived from the
// type and sender.
func (n Notification) DisplayTitle() string {
	if n.Title != "" {
		return n.Title
	}

	who := n.SenderName
	if who == "" {
		who = "Someone"
	}

	switch n.Type {
	case TypeFriendRequest:
		return fmt.Sprintf("%s sent you a friend request", who)
	case TypeFriendAccepted:
		return fmt.Sprintf("%s accepted your friend request", who)
	case TypeFriendRejected:
		return fmt.Sprintf("%s declined your friend request", who)
	case TypeMatchInvite:
		return fmt.Sprintf("%s added you to a match", who)
	case TypeMatchReminder:
		return fmt.Sprintf("%s is waiting for you to confirm a match", who)
	case TypeMatchUpdated:
		return fmt.Sprintf("%s updated a match you play in", who)
	case TypeMatchConfirmed:
		return "Everyone confirmed - match is locked in"
	case TypeMatchDeclined:
		return fmt.Sprintf("%s can't make the match", who)
	default:
		return "Notification"
	}
}

func (n Notification) DisplayDescription() string {
	if n.Description != "" {
		return n.Description
	}

	switch n.Type {
	case TypeMatchInvite, TypeMatchReminder:
		return "Open the match to confirm your spot."
	case TypeFriendRequest:
		return "Open your friend requests to respond."
	default:
		return ""
	}
}
