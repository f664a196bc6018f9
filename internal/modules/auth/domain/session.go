package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const SessionDuration = 7 * 24 * time.Hour

// Session is a server-side login session. The cookie carries only its id.
type Session struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func NewSession(userID uuid.UUID, now time.Time) Session {
	return Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}
}

func (s Session) Validate(now time.Time) error {
	if now.After(s.ExpiresAt) {
		return fmt.Errorf("session expired")
	}

	return nil
}
