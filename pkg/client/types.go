package client

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "Pending"
	MatchStatusConfirmed MatchStatus = "Confirmed"
)

type UserRef struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
}

type GameRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Participant struct {
	User        *UserRef   `json:"user"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Result      string     `json:"result,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	Declined    bool       `json:"declined,omitempty"`
	DeclinedAt  *time.Time `json:"declinedAt,omitempty"`
	Invited     bool       `json:"invited,omitempty"`
}

// Session is the authoritative match document as the server returns it.
type Session struct {
	ID               uuid.UUID     `json:"id"`
	Game             GameRef       `json:"game"`
	Date             time.Time     `json:"date"`
	CreatedBy        UserRef       `json:"createdBy"`
	LastEditedBy     *UserRef      `json:"lastEditedBy,omitempty"`
	Players          []Participant `json:"players"`
	Notes            string        `json:"notes,omitempty"`
	MatchStatus      MatchStatus   `json:"matchStatus"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	LastReminderSent *time.Time    `json:"lastReminderSent,omitempty"`
}

type Notification struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	EntityID    *uuid.UUID `json:"entityId,omitempty"`
	Sender      *uuid.UUID `json:"sender,omitempty"`
	SenderName  string     `json:"senderName,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type Meta struct {
	Page        int `json:"page"`
	Limit       int `json:"limit"`
	Total       int `json:"total"`
	UnreadCount int `json:"unreadCount"`
}

type NotificationPage struct {
	Notifications []Notification
	Meta          Meta
}

type PlayerModel struct {
	User    *uuid.UUID `json:"user"`
	Name    string     `json:"name,omitempty"`
	Email   string     `json:"email,omitempty"`
	Result  string     `json:"result,omitempty"`
	Score   *int       `json:"score,omitempty"`
	Invited bool       `json:"invited,omitempty"`
}

type GameModel struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

type CreateSessionRequest struct {
	Game    GameModel     `json:"game"`
	Date    time.Time     `json:"date"`
	Players []PlayerModel `json:"players"`
	Notes   string        `json:"notes,omitempty"`
}

// EditSessionRequest is a partial patch. Nil fields are left untouched by
// the server.
type EditSessionRequest struct {
	Players *[]PlayerModel `json:"players,omitempty"`
	Notes   *string        `json:"notes,omitempty"`
	Date    *time.Time     `json:"date,omitempty"`
}

type RemindResponse struct {
	Count int `json:"count"`
}

type FriendAction string

const (
	FriendAccepted FriendAction = "Accepted"
	FriendRejected FriendAction = "Rejected"
)

type SentRequest struct {
	User   UserRef `json:"user"`
	Status string  `json:"status"`
}

type LoginResponse struct {
	User UserRef `json:"user"`
}
