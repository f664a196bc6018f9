package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_New_Applies_Options(t *testing.T) {
	// Arrange
	recipient := uuid.New()
	sender := uuid.New()
	entity := uuid.New()
	now := time.Now().UTC()

	// Act
	notification := New(
		recipient,
		TypeMatchInvite,
		now,
		WithSender(sender, "Ana Horvat"),
		WithEntity(entity),
	)

	// Assert
	require.NotEqual(t, uuid.Nil, notification.ID)
	require.Equal(t, recipient, notification.Recipient)
	require.Equal(t, TypeMatchInvite, notification.Type)
	require.Equal(t, now, notification.CreatedAt)
	require.Equal(t, sender, *notification.Sender)
	require.Equal(t, "Ana Horvat", notification.SenderName)
	require.Equal(t, entity, *notification.EntityID)
	require.False(t, notification.IsRead)
}

func Test_DisplayTitle_Prefers_Stored_Override(t *testing.T) {
	notification := New(uuid.New(), TypeMatchInvite, time.Now().UTC(), WithText("Custom title", "Custom body"))

	require.Equal(t, "Custom title", notification.DisplayTitle())
	require.Equal(t, "Custom body", notification.DisplayDescription())
}

func Test_DisplayTitle_Derives_From_Type_And_Sender(t *testing.T) {
	notification := New(uuid.New(), TypeFriendRequest, time.Now().UTC(), WithSender(uuid.New(), "Ana Horvat"))

	require.Equal(t, "Ana Horvat sent you a friend request", notification.DisplayTitle())
}

func Test_DisplayTitle_Falls_Back_Without_Sender(t *testing.T) {
	notification := New(uuid.New(), TypeMatchDeclined, time.Now().UTC())

	require.Equal(t, "Someone can't make the match", notification.DisplayTitle())
}

func Test_Type_Valid_Rejects_Unknown_Values(t *testing.T) {
	require.True(t, TypeMatchConfirmed.Valid())
	require.False(t, Type("MATCH_EXPLODED").Valid())
}
