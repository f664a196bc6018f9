package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxUnsuccessfulLoginAttempts = 3

type User struct {
	ID                        uuid.UUID `db:"id"`
	SecurityStamp             uuid.UUID `db:"security_stamp"`
	FirstName                 string    `db:"first_name"`
	LastName                  string    `db:"last_name"`
	Email                     string    `db:"email"`
	PasswordHash              string    `db:"password_hash"`
	Role                      string    `db:"role"`
	Locked                    bool      `db:"locked"`
	UnsuccessfulLoginAttempts int       `db:"unsuccessful_login_attempts"`
	CreatedAt                 time.Time `db:"created_at"`
}

func RegisterUser(
	firstName string,
	lastName string,
	email string,
	password string,
	passwordHasher *PasswordHasher,
	now time.Time,
) (User, error) {
	passwordHash, err := passwordHasher.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:            uuid.New(),
		SecurityStamp: uuid.New(),
		FirstName:     firstName,
		LastName:      lastName,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          "user",
		CreatedAt:     now,
	}, nil
}

// Authenticate verifies the password and tracks failed attempts. Three
// failures in a row lock the account and rotate the security stamp, which
// invalidates outstanding sessions.
func (u *User) Authenticate(password string, passwordHasher *PasswordHasher) error {
	if u.Locked {
		return fmt.Errorf("authentication failed: account locked")
	}

	err := passwordHasher.Verify(u.PasswordHash, password)
	if err == nil {
		u.UnsuccessfulLoginAttempts = 0
		return nil
	}

	reason := err.Error()

	u.UnsuccessfulLoginAttempts++

	if u.UnsuccessfulLoginAttempts >= maxUnsuccessfulLoginAttempts {
		u.Locked = true
		u.SecurityStamp = uuid.New()
		reason = "account locked"
	}

	return fmt.Errorf("authentication failed: %s", reason)
}
