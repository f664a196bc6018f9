package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func userRef(first, last string) UserRef {
	return UserRef{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Email:     first + "@example.com",
	}
}

func slot(u UserRef) Participant {
	return Participant{
		User:  &u,
		Name:  u.DisplayName(),
		Email: u.Email,
	}
}

func guestSlot(name string) Participant {
	return Participant{Name: name}
}

func newTestSession(t *testing.T, creator UserRef, extra ...Participant) Session {
	t.Helper()

	players := append([]Participant{slot(creator)}, extra...)

	session, err := NewSession(
		creator,
		GameRef{ID: uuid.New(), Name: "Catan"},
		time.Now().UTC(),
		players,
		"",
		time.Now().UTC(),
	)
	require.NoError(t, err)

	return session
}

func Test_NewSession_With_Unconfirmed_Registered_Participant_Starts_Pending(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")

	// Act
	session := newTestSession(t, creator, slot(other))

	// Assert
	require.Equal(t, StatusPending, session.MatchStatus)

	creatorSlot := session.Players[0]
	require.True(t, creatorSlot.Confirmed)
	require.NotNil(t, creatorSlot.ConfirmedAt)

	otherSlot := session.Players[1]
	require.False(t, otherSlot.Confirmed)
	require.Nil(t, otherSlot.ConfirmedAt)
}

func Test_NewSession_With_Only_Guests_Starts_Confirmed(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")

	// Act
	session := newTestSession(t, creator, guestSlot("uncle Zed"))

	// Assert
	require.Equal(t, StatusConfirmed, session.MatchStatus)
	require.True(t, session.Players[1].Confirmed)
}

func Test_NewSession_Requires_Participants(t *testing.T) {
	creator := userRef("ana", "a")

	_, err := NewSession(creator, GameRef{}, time.Now(), nil, "", time.Now())

	require.ErrorIs(t, err, ErrNoParticipants)
}

func Test_NewSession_Requires_Creator_Slot(t *testing.T) {
	creator := userRef("ana", "a")
	other := userRef("bo", "b")

	_, err := NewSession(
		creator,
		GameRef{},
		time.Now(),
		[]Participant{slot(other)},
		"",
		time.Now(),
	)

	require.ErrorIs(t, err, ErrCreatorNotInRoster)
}

func Test_NewSession_Rejects_Duplicate_Registered_Users(t *testing.T) {
	creator := userRef("ana", "a")

	_, err := NewSession(
		creator,
		GameRef{},
		time.Now(),
		[]Participant{slot(creator), slot(creator)},
		"",
		time.Now(),
	)

	require.ErrorIs(t, err, ErrDuplicateUser)
}

func Test_Confirm_Last_Participant_Converges_Session(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	// Act
	outcome, err := session.Confirm(other.ID, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.True(t, outcome.Converged)
	require.False(t, outcome.AlreadyConfirmed)
	require.Equal(t, StatusConfirmed, session.MatchStatus)
}

func Test_Confirm_With_Remaining_Unconfirmed_Stays_Pending(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	second := userRef("bo", "b")
	third := userRef("cy", "c")
	session := newTestSession(t, creator, slot(second), slot(third))

	// Act
	outcome, err := session.Confirm(second.ID, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.False(t, outcome.Converged)
	require.Equal(t, StatusPending, session.MatchStatus)
}

func Test_Confirm_Twice_Is_Idempotent(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	first, err := session.Confirm(other.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, first.Converged)

	confirmedAt := session.Players[1].ConfirmedAt
	require.NotNil(t, confirmedAt)

	// Act
	second, err := session.Confirm(other.ID, time.Now().UTC().Add(time.Minute))

	// Assert
	require.NoError(t, err)
	require.True(t, second.AlreadyConfirmed)
	require.False(t, second.Converged)
	require.Equal(t, StatusConfirmed, session.MatchStatus)
	require.Equal(t, confirmedAt, session.Players[1].ConfirmedAt)
}

func Test_Confirm_By_Non_Participant_Fails(t *testing.T) {
	creator := userRef("ana", "a")
	session := newTestSession(t, creator, guestSlot("guest"))

	_, err := session.Confirm(uuid.New(), time.Now().UTC())

	require.ErrorIs(t, err, ErrNotAParticipant)
}

func Test_Confirm_After_Decline_Fails(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	_, err := session.Decline(other.ID, time.Now().UTC())
	require.NoError(t, err)

	// Act
	_, err = session.Confirm(other.ID, time.Now().UTC())

	// Assert
	require.ErrorIs(t, err, ErrDeclinedBefore)
	require.False(t, session.Players[1].Confirmed)
}

func Test_Decline_Counts_Toward_Convergence(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))
	require.Equal(t, StatusPending, session.MatchStatus)

	// Act
	outcome, err := session.Decline(other.ID, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.True(t, outcome.Converged)
	require.Equal(t, StatusConfirmed, session.MatchStatus)
	require.False(t, session.Players[1].Confirmed)
	require.True(t, session.Players[1].Declined)
	require.NotNil(t, session.Players[1].DeclinedAt)
}

func Test_Decline_Twice_Is_Idempotent(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	_, err := session.Decline(other.ID, time.Now().UTC())
	require.NoError(t, err)

	declinedAt := session.Players[1].DeclinedAt

	// Act
	outcome, err := session.Decline(other.ID, time.Now().UTC().Add(time.Minute))

	// Assert
	require.NoError(t, err)
	require.True(t, outcome.AlreadyDeclined)
	require.Equal(t, declinedAt, session.Players[1].DeclinedAt)
}

func Test_Decline_After_Confirm_Fails(t *testing.T) {
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	_, err := session.Confirm(other.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = session.Decline(other.ID, time.Now().UTC())

	require.ErrorIs(t, err, ErrConfirmedBefore)
	require.True(t, session.Players[1].Confirmed)
}

func Test_ApplyEdit_Adding_Registered_Participant_Reopens_Confirmed_Session(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	session := newTestSession(t, creator, guestSlot("guest"))
	require.Equal(t, StatusConfirmed, session.MatchStatus)

	newcomer := userRef("bo", "b")
	patch := EditPatch{
		Players: append(append([]Participant{}, session.Players...), slot(newcomer)),
	}

	// Act
	outcome, err := session.ApplyEdit(patch, creator, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusPending, session.MatchStatus)
	require.Equal(t, []uuid.UUID{newcomer.ID}, outcome.AddedUsers)
	require.NotNil(t, session.LastEditedBy)
	require.Equal(t, creator.ID, session.LastEditedBy.ID)
}

func Test_ApplyEdit_Preserves_Confirmation_State_Of_Surviving_Participants(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	confirmed := userRef("bo", "b")
	declined := userRef("cy", "c")
	session := newTestSession(t, creator, slot(confirmed), slot(declined))

	_, err := session.Confirm(confirmed.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = session.Decline(declined.ID, time.Now().UTC())
	require.NoError(t, err)

	notes := "rematch next week"
	patch := EditPatch{
		Players: append([]Participant{}, session.Players...),
		Notes:   &notes,
	}

	// Act
	_, err = session.ApplyEdit(patch, creator, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.True(t, session.Players[1].Confirmed)
	require.True(t, session.Players[2].Declined)
	require.Equal(t, StatusConfirmed, session.MatchStatus)
	require.Equal(t, notes, session.Notes)
}

func Test_ApplyEdit_Removing_Unconfirmed_Participant_Can_Converge(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))
	require.Equal(t, StatusPending, session.MatchStatus)

	patch := EditPatch{Players: []Participant{session.Players[0]}}

	// Act
	_, err := session.ApplyEdit(patch, creator, time.Now().UTC())

	// Assert
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, session.MatchStatus)
}

func Test_AuthorizeEdit_Creator_And_Admin_May_Edit_Everything(t *testing.T) {
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other), guestSlot("guest"))

	notes := "anything goes"
	patch := EditPatch{Notes: &notes}

	require.NoError(t, session.AuthorizeEdit(patch, creator.ID, false))
	require.NoError(t, session.AuthorizeEdit(patch, uuid.New(), true))
}

func Test_AuthorizeEdit_Participant_May_Set_Own_Result(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	players := append([]Participant{}, session.Players...)
	score := 42
	players[1].Result = ResultWin
	players[1].Score = &score

	// Act
	err := session.AuthorizeEdit(EditPatch{Players: players}, other.ID, false)

	// Assert
	require.NoError(t, err)
}

func Test_AuthorizeEdit_Participant_May_Not_Change_Roster_Or_Notes(t *testing.T) {
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other))

	notes := "sneaky"
	require.ErrorIs(
		t,
		session.AuthorizeEdit(EditPatch{Notes: &notes}, other.ID, false),
		ErrRosterRestricted,
	)

	shorter := []Participant{session.Players[0]}
	require.ErrorIs(
		t,
		session.AuthorizeEdit(EditPatch{Players: shorter}, other.ID, false),
		ErrRosterRestricted,
	)
}

func Test_AuthorizeEdit_Participant_May_Not_Edit_Guests(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	other := userRef("bo", "b")
	session := newTestSession(t, creator, slot(other), guestSlot("guest"))

	players := append([]Participant{}, session.Players...)
	players[2].Result = ResultLoss

	// Act
	err := session.AuthorizeEdit(EditPatch{Players: players}, other.ID, false)

	// Assert
	require.ErrorIs(t, err, ErrGuestRestricted)
}

func Test_AuthorizeEdit_Non_Participant_Fails(t *testing.T) {
	creator := userRef("ana", "a")
	session := newTestSession(t, creator)

	err := session.AuthorizeEdit(EditPatch{}, uuid.New(), false)

	require.ErrorIs(t, err, ErrNotAParticipant)
}

func Test_ReminderRecipients_Excludes_Confirmed_Declined_Guests_And_Caller(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	confirmed := userRef("bo", "b")
	declined := userRef("cy", "c")
	pending := userRef("dee", "d")
	session := newTestSession(t, creator, slot(confirmed), slot(declined), slot(pending), guestSlot("guest"))

	_, err := session.Confirm(confirmed.ID, time.Now().UTC())
	require.NoError(t, err)
	_, err = session.Decline(declined.ID, time.Now().UTC())
	require.NoError(t, err)

	// Act
	recipients := session.ReminderRecipients(creator.ID)

	// Assert
	require.Len(t, recipients, 1)
	require.Equal(t, pending.ID, recipients[0].User.ID)
}

func Test_RecomputeStatus_Matches_Confirmation_State_After_Any_Mutation(t *testing.T) {
	// Arrange
	creator := userRef("ana", "a")
	second := userRef("bo", "b")
	third := userRef("cy", "c")
	session := newTestSession(t, creator, slot(second), slot(third), guestSlot("guest"))

	assertInvariant := func() {
		t.Helper()
		expected := StatusConfirmed
		for _, p := range session.Players {
			if p.User != nil && !p.Confirmed && !p.Declined {
				expected = StatusPending
			}
		}
		require.Equal(t, expected, session.MatchStatus)
	}

	assertInvariant()

	// Act / Assert after every mutation
	_, err := session.Confirm(second.ID, time.Now().UTC())
	require.NoError(t, err)
	assertInvariant()

	_, err = session.Decline(third.ID, time.Now().UTC())
	require.NoError(t, err)
	assertInvariant()

	newcomer := userRef("dee", "d")
	patch := EditPatch{Players: append(append([]Participant{}, session.Players...), slot(newcomer))}
	_, err = session.ApplyEdit(patch, creator, time.Now().UTC())
	require.NoError(t, err)
	assertInvariant()

	_, err = session.Confirm(newcomer.ID, time.Now().UTC())
	require.NoError(t, err)
	assertInvariant()
	require.Equal(t, StatusConfirmed, session.MatchStatus)
}
