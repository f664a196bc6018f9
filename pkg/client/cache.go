package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCache holds the latest authoritative session documents and applies
// the optimistic-update contract: patch locally, call the server, replace
// the guess with server truth on success, roll it back on failure.
//
// Views never share a document - Snapshot returns an independent deep copy,
// so every projection re-derives from the same stored truth instead of
// patching a shared object in place.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
}

func NewSessionCache() *SessionCache {
	return &SessionCache{sessions: map[uuid.UUID]Session{}}
}

func (c *SessionCache) Put(session Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[session.ID] = cloneSession(session)
}

func (c *SessionCache) PutAll(sessions []Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range sessions {
		c.sessions[s.ID] = cloneSession(s)
	}
}

func (c *SessionCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, id)
}

// Snapshot returns a deep copy of the stored document, so callers can never
// mutate the cache through a returned value.
func (c *SessionCache) Snapshot(id uuid.UUID) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	session, ok := c.sessions[id]
	if !ok {
		return Session{}, false
	}

	return cloneSession(session), true
}

// Snapshots returns deep copies of every stored document, newest play date
// first.
func (c *SessionCache) Snapshots() []Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, cloneSession(s))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})

	return out
}

// Confirm optimistically marks the acting user's slot confirmed, issues the
// call, and reconciles: the server document wins on success, the previous
// document is restored on failure. A canceled context counts as failure -
// the optimistic guess is dropped, not kept.
func (c *SessionCache) Confirm(ctx context.Context, api *Client, id, actingUser uuid.UUID) (Session, error) {
	restore := c.applyOptimistic(id, func(s *Session) {
		now := time.Now().UTC()
		for i := range s.Players {
			p := &s.Players[i]
			if p.User != nil && p.User.ID == actingUser && !p.Confirmed {
				p.Confirmed = true
				p.ConfirmedAt = &now
			}
		}
		s.MatchStatus = recompute(s.Players)
	})

	session, err := api.ConfirmSession(ctx, id)
	if err != nil {
		restore()
		return Session{}, err
	}

	c.Put(session)
	return session, nil
}

// Decline mirrors Confirm with a decline guess.
func (c *SessionCache) Decline(ctx context.Context, api *Client, id, actingUser uuid.UUID) (Session, error) {
	restore := c.applyOptimistic(id, func(s *Session) {
		now := time.Now().UTC()
		for i := range s.Players {
			p := &s.Players[i]
			if p.User != nil && p.User.ID == actingUser && !p.Declined {
				p.Declined = true
				p.DeclinedAt = &now
			}
		}
		s.MatchStatus = recompute(s.Players)
	})

	session, err := api.DeclineSession(ctx, id)
	if err != nil {
		restore()
		return Session{}, err
	}

	c.Put(session)
	return session, nil
}

// Refresh replaces the stored document with the server's current truth.
func (c *SessionCache) Refresh(ctx context.Context, api *Client, id uuid.UUID) (Session, error) {
	session, err := api.Session(ctx, id)
	if err != nil {
		return Session{}, err
	}

	c.Put(session)
	return session, nil
}

func (c *SessionCache) applyOptimistic(id uuid.UUID, patch func(*Session)) (restore func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, ok := c.sessions[id]
	if !ok {
		return func() {}
	}

	patched := cloneSession(previous)
	patch(&patched)
	c.sessions[id] = patched

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.sessions[id] = previous
	}
}

// recompute is the client-side guess of the server's convergence fold:
// Confirmed iff every registered, undeclined slot has confirmed.
func recompute(players []Participant) MatchStatus {
	for _, p := range players {
		if p.User != nil && !p.Declined && !p.Confirmed {
			return MatchStatusPending
		}
	}

	return MatchStatusConfirmed
}

func cloneSession(s Session) Session {
	out := s

	if s.LastEditedBy != nil {
		editor := *s.LastEditedBy
		out.LastEditedBy = &editor
	}

	if s.LastReminderSent != nil {
		t := *s.LastReminderSent
		out.LastReminderSent = &t
	}

	out.Players = make([]Participant, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = cloneParticipant(p)
	}

	return out
}

func cloneParticipant(p Participant) Participant {
	out := p

	if p.User != nil {
		user := *p.User
		out.User = &user
	}

	if p.Score != nil {
		score := *p.Score
		out.Score = &score
	}

	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		out.ConfirmedAt = &t
	}

	if p.DeclinedAt != nil {
		t := *p.DeclinedAt
		out.DeclinedAt = &t
	}

	return out
}
