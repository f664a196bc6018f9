package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func pendingSession(creator, other uuid.UUID) Session {
	return Session{
		ID:   uuid.New(),
		Game: GameRef{ID: uuid.New(), Name: "Catan"},
		Date: time.Now().UTC(),
		CreatedBy: UserRef{
			ID:        creator,
			FirstName: "Ana",
			Email:     "ana@example.com",
		},
		Players: []Participant{
			{User: &UserRef{ID: creator, FirstName: "Ana"}, Name: "Ana", Confirmed: true},
			{User: &UserRef{ID: other, FirstName: "Boris"}, Name: "Boris"},
		},
		MatchStatus: MatchStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func Test_Snapshot_Is_Independent_Of_Stored_Document(t *testing.T) {
	// Arrange
	cache := NewSessionCache()
	session := pendingSession(uuid.New(), uuid.New())
	cache.Put(session)

	// Act
	snapshot, ok := cache.Snapshot(session.ID)
	require.True(t, ok)

	snapshot.Players[0].Confirmed = false
	snapshot.MatchStatus = MatchStatusConfirmed

	// Assert
	fresh, ok := cache.Snapshot(session.ID)
	require.True(t, ok)
	require.True(t, fresh.Players[0].Confirmed)
	require.Equal(t, MatchStatusPending, fresh.MatchStatus)
}

func Test_Confirm_Replaces_Optimistic_Guess_With_Server_Truth(t *testing.T) {
	// Arrange
	creator := uuid.New()
	other := uuid.New()
	session := pendingSession(creator, other)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/"+session.ID.String()+"/confirm", r.URL.Path)

		authoritative := cloneSession(session)
		now := time.Now().UTC()
		authoritative.Players[1].Confirmed = true
		authoritative.Players[1].ConfirmedAt = &now
		authoritative.MatchStatus = MatchStatusConfirmed
		authoritative.Notes = "set by the server"

		w.Header().Set("Content-Type", "application/json")
		writeEnvelopedSession(t, w, authoritative)
	}))
	defer server.Close()

	api := New(server.URL)
	cache := NewSessionCache()
	cache.Put(session)

	// Act
	updated, err := cache.Confirm(context.Background(), api, session.ID, other)

	// Assert
	require.NoError(t, err)
	require.Equal(t, MatchStatusConfirmed, updated.MatchStatus)

	// Server truth wins over the local guess, including fields the guess
	// never touched.
	stored, ok := cache.Snapshot(session.ID)
	require.True(t, ok)
	require.Equal(t, "set by the server", stored.Notes)
	require.True(t, stored.Players[1].Confirmed)
}

func Test_Confirm_Rolls_Back_On_Failure(t *testing.T) {
	// Arrange
	creator := uuid.New()
	other := uuid.New()
	session := pendingSession(creator, other)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"participant already declined"}`))
	}))
	defer server.Close()

	api := New(server.URL)
	cache := NewSessionCache()
	cache.Put(session)

	// Act
	_, err := cache.Confirm(context.Background(), api, session.ID, other)

	// Assert
	require.Error(t, err)

	stored, ok := cache.Snapshot(session.ID)
	require.True(t, ok)
	require.False(t, stored.Players[1].Confirmed)
	require.Equal(t, MatchStatusPending, stored.MatchStatus)
}

func Test_Confirm_Drops_Guess_When_Context_Canceled(t *testing.T) {
	// Arrange
	creator := uuid.New()
	other := uuid.New()
	session := pendingSession(creator, other)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	api := New(server.URL)
	cache := NewSessionCache()
	cache.Put(session)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := cache.Confirm(ctx, api, session.ID, other)

	// Assert
	require.Error(t, err)

	stored, _ := cache.Snapshot(session.ID)
	require.Equal(t, MatchStatusPending, stored.MatchStatus)
	require.False(t, stored.Players[1].Confirmed)
}

func Test_Projections_Converge_After_Mutation(t *testing.T) {
	// Arrange
	creator := uuid.New()
	other := uuid.New()
	session := pendingSession(creator, other)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authoritative := cloneSession(session)
		authoritative.Players[1].Confirmed = true
		authoritative.MatchStatus = MatchStatusConfirmed

		w.Header().Set("Content-Type", "application/json")
		writeEnvelopedSession(t, w, authoritative)
	}))
	defer server.Close()

	api := New(server.URL)
	cache := NewSessionCache()
	cache.Put(session)

	_, err := cache.Confirm(context.Background(), api, session.ID, other)
	require.NoError(t, err)

	// Act - two independent views re-derive from the cache.
	detailView, _ := cache.Snapshot(session.ID)
	listView := cache.Snapshots()

	// Assert
	require.Len(t, listView, 1)
	require.Equal(t, detailView.MatchStatus, listView[0].MatchStatus)
	require.Equal(t, MatchStatusConfirmed, detailView.MatchStatus)
}

func Test_Recompute_Guess_Matches_Convergence_Rule(t *testing.T) {
	registered := func(confirmed, declined bool) Participant {
		return Participant{
			User:      &UserRef{ID: uuid.New()},
			Confirmed: confirmed,
			Declined:  declined,
		}
	}
	guest := Participant{Name: "Guest", Confirmed: true}

	require.Equal(t, MatchStatusConfirmed, recompute([]Participant{registered(true, false), guest}))
	require.Equal(t, MatchStatusPending, recompute([]Participant{registered(true, false), registered(false, false)}))
	require.Equal(t, MatchStatusConfirmed, recompute([]Participant{registered(true, false), registered(false, true)}))
}

func writeEnvelopedSession(t *testing.T, w http.ResponseWriter, session Session) {
	t.Helper()

	type envelopeOut struct {
		Data Session `json:"data"`
	}

	body, err := json.Marshal(envelopeOut{Data: session})
	require.NoError(t, err)

	_, _ = w.Write(body)
}
