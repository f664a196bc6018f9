package main

import (
	"context"
	"testing"

	"github.com/gamenight/tracker/pkg/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func inviteFor(notifications []client.Notification, sessionID uuid.UUID) *client.Notification {
	for i, n := range notifications {
		if n.Type == "MATCH_INVITE" && n.EntityID != nil && *n.EntityID == sessionID {
			return &notifications[i]
		}
	}
	return nil
}

func Test_Session_Creation_Fans_Out_Match_Invites(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")

	// Act
	session, err := creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	// Assert
	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)

	invite := inviteFor(page.Notifications, session.ID)
	require.NotNil(t, invite)
	require.False(t, invite.IsRead)
	require.NotEmpty(t, invite.Title)

	// The creator does not get an invite for their own session.
	creatorPage, err := creatorAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Nil(t, inviteFor(creatorPage.Notifications, session.ID))
}

func Test_Unread_Count_Is_Derived_From_The_Ledger(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")

	session, err := creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Meta.UnreadCount)

	invite := inviteFor(page.Notifications, session.ID)
	require.NotNil(t, invite)

	// Act
	require.NoError(t, otherAPI.MarkNotificationRead(ctx, invite.ID))

	// Assert
	page, err = otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, page.Meta.UnreadCount)

	refreshed := inviteFor(page.Notifications, session.ID)
	require.NotNil(t, refreshed)
	require.True(t, refreshed.IsRead)
}

func Test_Mark_Read_Is_Idempotent(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")

	session, err := creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)

	invite := inviteFor(page.Notifications, session.ID)
	require.NotNil(t, invite)

	require.NoError(t, otherAPI.MarkNotificationRead(ctx, invite.ID))

	// Act - repeat is a no-op success.
	require.NoError(t, otherAPI.MarkNotificationRead(ctx, invite.ID))

	// Assert
	page, err = otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, page.Meta.UnreadCount)
}

func Test_Mark_Read_Rejects_Foreign_Notifications(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")
	strangerAPI, _ := newUser(t, "Cezar")

	session, err := creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)

	invite := inviteFor(page.Notifications, session.ID)
	require.NotNil(t, invite)

	// Act
	err = strangerAPI.MarkNotificationRead(ctx, invite.ID)

	// Assert
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.NotFound())
}

func Test_Mark_All_Read_Clears_The_Unread_Set(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")

	for i := 0; i < 3; i++ {
		_, err := creatorAPI.CreateSession(ctx, newSessionRequest(
			registeredPlayer(creator.ID),
			registeredPlayer(other.ID),
		))
		require.NoError(t, err)
	}

	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Meta.UnreadCount)

	// Act
	require.NoError(t, otherAPI.MarkAllNotificationsRead(ctx))

	// Assert
	page, err = otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)
	require.Equal(t, 0, page.Meta.UnreadCount)

	// Repeating on an empty unread set is a no-op success.
	require.NoError(t, otherAPI.MarkAllNotificationsRead(ctx))
}

func Test_Notifications_Filter_By_Status(t *testing.T) {
	// Arrange
	ctx := context.Background()

	creatorAPI, creator := newUser(t, "Ana")
	otherAPI, other := newUser(t, "Boris")

	first, err := creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	_, err = creatorAPI.CreateSession(ctx, newSessionRequest(
		registeredPlayer(creator.ID),
		registeredPlayer(other.ID),
	))
	require.NoError(t, err)

	page, err := otherAPI.Notifications(ctx, client.NotificationFilter{})
	require.NoError(t, err)

	invite := inviteFor(page.Notifications, first.ID)
	require.NotNil(t, invite)
	require.NoError(t, otherAPI.MarkNotificationRead(ctx, invite.ID))

	// Act
	unread, err := otherAPI.Notifications(ctx, client.NotificationFilter{Status: "unread"})
	require.NoError(t, err)

	read, err := otherAPI.Notifications(ctx, client.NotificationFilter{Status: "read"})
	require.NoError(t, err)

	// Assert
	require.Len(t, unread.Notifications, 1)
	require.Len(t, read.Notifications, 1)
	require.Equal(t, invite.ID, read.Notifications[0].ID)
}
