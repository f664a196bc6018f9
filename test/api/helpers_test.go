package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gamenight/tracker/pkg/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newUser registers a fresh account and returns a logged-in API client for
// it. Every test gets its own users, so tests stay independent of each
// other's data.
func newUser(t *testing.T, firstName string) (*client.Client, client.UserRef) {
	t.Helper()

	ctx := context.Background()

	api := client.New(fixture.baseURL)
	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	require.NoError(t, api.Register(ctx, firstName, "Tester", email, "password-123"))

	user, err := api.Login(ctx, email, "password-123")
	require.NoError(t, err)
	require.NotEmpty(t, api.SessionCookie())

	return api, user
}

func registeredPlayer(userID uuid.UUID) client.PlayerModel {
	id := userID
	return client.PlayerModel{User: &id}
}

func guestPlayer(name string) client.PlayerModel {
	return client.PlayerModel{Name: name}
}

func newSessionRequest(players ...client.PlayerModel) client.CreateSessionRequest {
	return client.CreateSessionRequest{
		Game:    client.GameModel{Name: "Catan"},
		Date:    time.Now().UTC().Add(24 * time.Hour),
		Players: players,
	}
}

// clearReminderCooldown backdates the last reminder so a follow-up remind
// lands outside the throttle window.
func clearReminderCooldown(t *testing.T, sessionID uuid.UUID) {
	t.Helper()

	const stmt = `
		UPDATE
			game_session
		SET
			last_reminder_sent = now() - interval '2 hours'
		WHERE
			id = $1;`

	_, err := fixture.db.Exec(stmt, sessionID)
	require.NoError(t, err)
}
