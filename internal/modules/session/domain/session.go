package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	StatusPending   MatchStatus = "Pending"
	StatusConfirmed MatchStatus = "Confirmed"
)

type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultDraw Result = "Draw"
)

var (
	ErrNoParticipants     = errors.New("session requires at least one participant")
	ErrCreatorNotInRoster = errors.New("creator must occupy a participant slot")
	ErrDuplicateUser      = errors.New("registered user appears in more than one slot")
	ErrNotAParticipant    = errors.New("user does not occupy a participant slot")
	ErrDeclinedBefore     = errors.New("participant has declined and can no longer confirm")
	ErrConfirmedBefore    = errors.New("participant has confirmed and can no longer decline")
	ErrRosterRestricted   = errors.New("only the creator or an admin may change the roster, date, or notes")
	ErrGuestRestricted    = errors.New("only the creator or an admin may edit guest participants")
)

// UserRef is the projection of a registered account embedded in session
// documents.
type UserRef struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
}

func (u UserRef) DisplayName() string {
	name := fmt.Sprintf("%s %s", u.FirstName, u.LastName)
	if name == " " {
		return u.Email
	}
	return name
}

type GameRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Participant is one roster slot. A nil User marks a guest - guests are
// confirmed at creation and never block convergence.
type Participant struct {
	User        *UserRef   `json:"user"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Result      Result     `json:"result,omitempty"`
	Score       *int       `json:"score,omitempty"`
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	Declined    bool       `json:"declined,omitempty"`
	DeclinedAt  *time.Time `json:"declinedAt,omitempty"`
	Invited     bool       `json:"invited,omitempty"`
}

func (p Participant) IsGuest() bool {
	return p.User == nil
}

func (p Participant) isUser(userID uuid.UUID) bool {
	return p.User != nil && p.User.ID == userID
}

// blocksConvergence reports whether this slot still stands between the
// session and Confirmed. Declined slots count as satisfied: a decline means
// "this participant will never confirm" and must not hold the rest hostage.
func (p Participant) blocksConvergence() bool {
	return !p.IsGuest() && !p.Confirmed && !p.Declined
}

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

// RecomputeStatus is the only code allowed to produce a MatchStatus. It is a
// pure fold over the roster, so concurrent confirmations resolve to the same
// answer regardless of arrival order.
func RecomputeStatus(players []Participant) MatchStatus {
	for _, p := range players {
		if p.blocksConvergence() {
			return StatusPending
		}
	}
	return StatusConfirmed
}

// NewSession builds a session from the creator's roster. The creator's slot
// is pre-confirmed, guest slots are confirmed immediately, and the status is
// derived at birth - a roster with no other registered users starts
// Confirmed.
func NewSession(
	creator UserRef,
	game GameRef,
	date time.Time,
	players []Participant,
	notes string,
	now time.Time,
) (Session, error) {
	if len(players) == 0 {
		return Session{}, ErrNoParticipants
	}

	seen := map[uuid.UUID]bool{}
	creatorSlots := 0

	for i := range players {
		p := &players[i]

		if p.User != nil {
			if seen[p.User.ID] {
				return Session{}, ErrDuplicateUser
			}
			seen[p.User.ID] = true
		}

		switch {
		case p.IsGuest():
			p.Confirmed = true
			p.ConfirmedAt = &now
		case p.User.ID == creator.ID:
			creatorSlots++
			p.Confirmed = true
			p.ConfirmedAt = &now
		default:
			p.Confirmed = false
			p.ConfirmedAt = nil
		}

		p.Declined = false
		p.DeclinedAt = nil
	}

	if creatorSlots != 1 {
		return Session{}, ErrCreatorNotInRoster
	}

	return Session{
		ID:          uuid.New(),
		Game:        game,
		Date:        date,
		CreatedBy:   creator,
		Players:     players,
		Notes:       notes,
		MatchStatus: RecomputeStatus(players),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ConfirmOutcome tells the caller what the confirmation actually did, so the
// notification fan-out can fire exactly once per transition.
type ConfirmOutcome struct {
	AlreadyConfirmed bool
	Converged        bool
}

// Confirm marks the acting user's slot confirmed. Re-confirming is a no-op
// success to tolerate double-clicks and retries.
func (s *Session) Confirm(userID uuid.UUID, now time.Time) (ConfirmOutcome, error) {
	idx := s.participantIndex(userID)
	if idx < 0 {
		return ConfirmOutcome{}, ErrNotAParticipant
	}

	p := &s.Players[idx]

	if p.Declined {
		return ConfirmOutcome{}, ErrDeclinedBefore
	}

	if p.Confirmed {
		return ConfirmOutcome{AlreadyConfirmed: true}, nil
	}

	p.Confirmed = true
	p.ConfirmedAt = &now

	previous := s.MatchStatus
	s.MatchStatus = RecomputeStatus(s.Players)
	s.UpdatedAt = now

	return ConfirmOutcome{
		Converged: previous == StatusPending && s.MatchStatus == StatusConfirmed,
	}, nil
}

type DeclineOutcome struct {
	AlreadyDeclined bool
	Converged       bool
}

// Decline marks the acting user's slot as never-confirming. The slot stops
// blocking convergence, so declining can flip the session to Confirmed when
// everyone else already confirmed. Re-declining is a no-op success.
func (s *Session) Decline(userID uuid.UUID, now time.Time) (DeclineOutcome, error) {
	idx := s.participantIndex(userID)
	if idx < 0 {
		return DeclineOutcome{}, ErrNotAParticipant
	}

	p := &s.Players[idx]

	if p.Confirmed {
		return DeclineOutcome{}, ErrConfirmedBefore
	}

	if p.Declined {
		return DeclineOutcome{AlreadyDeclined: true}, nil
	}

	p.Declined = true
	p.DeclinedAt = &now

	previous := s.MatchStatus
	s.MatchStatus = RecomputeStatus(s.Players)
	s.UpdatedAt = now

	return DeclineOutcome{
		Converged: previous == StatusPending && s.MatchStatus == StatusConfirmed,
	}, nil
}

// EditPatch replaces parts of a session. Nil fields are left untouched.
type EditPatch struct {
	Players []Participant
	Notes   *string
	Date    *time.Time
}

type EditOutcome struct {
	// AddedUsers are registered users newly present in the roster. Each one
	// gets a MATCH_INVITE.
	AddedUsers []uuid.UUID
}

// ApplyEdit replaces players/notes/date and recomputes the status.
// Confirmation and decline state survives for registered users still in the
// roster; new registered slots start unconfirmed, so editing a Confirmed
// session back to Pending is possible.
func (s *Session) ApplyEdit(patch EditPatch, editor UserRef, now time.Time) (EditOutcome, error) {
	outcome := EditOutcome{}

	if patch.Players != nil {
		if len(patch.Players) == 0 {
			return EditOutcome{}, ErrNoParticipants
		}

		existing := map[uuid.UUID]Participant{}
		for _, p := range s.Players {
			if p.User != nil {
				existing[p.User.ID] = p
			}
		}

		seen := map[uuid.UUID]bool{}
		for i := range patch.Players {
			p := &patch.Players[i]

			if p.IsGuest() {
				p.Confirmed = true
				if p.ConfirmedAt == nil {
					p.ConfirmedAt = &now
				}
				p.Declined = false
				p.DeclinedAt = nil
				continue
			}

			if seen[p.User.ID] {
				return EditOutcome{}, ErrDuplicateUser
			}
			seen[p.User.ID] = true

			prev, known := existing[p.User.ID]
			switch {
			case known:
				p.Confirmed = prev.Confirmed
				p.ConfirmedAt = prev.ConfirmedAt
				p.Declined = prev.Declined
				p.DeclinedAt = prev.DeclinedAt
			case p.User.ID == s.CreatedBy.ID:
				p.Confirmed = true
				p.ConfirmedAt = &now
			default:
				p.Confirmed = false
				p.ConfirmedAt = nil
				p.Declined = false
				p.DeclinedAt = nil
				outcome.AddedUsers = append(outcome.AddedUsers, p.User.ID)
			}
		}

		s.Players = patch.Players
	}

	if patch.Notes != nil {
		s.Notes = *patch.Notes
	}

	if patch.Date != nil {
		s.Date = *patch.Date
	}

	s.MatchStatus = RecomputeStatus(s.Players)
	s.LastEditedBy = &editor
	s.UpdatedAt = now

	return outcome, nil
}

// AuthorizeEdit enforces the edit policy: the creator and admins may change
// anything, any other participant may only touch their own result and score.
func (s *Session) AuthorizeEdit(patch EditPatch, userID uuid.UUID, isAdmin bool) error {
	if isAdmin || s.CreatedBy.ID == userID {
		return nil
	}

	if s.participantIndex(userID) < 0 {
		return ErrNotAParticipant
	}

	if patch.Notes != nil || patch.Date != nil {
		return ErrRosterRestricted
	}

	if patch.Players == nil {
		return nil
	}

	if len(patch.Players) != len(s.Players) {
		return ErrRosterRestricted
	}

	for i, p := range patch.Players {
		prev := s.Players[i]

		bothGuests := p.IsGuest() && prev.IsGuest()
		sameUser := p.User != nil && prev.User != nil && p.User.ID == prev.User.ID
		if !bothGuests && !sameUser {
			return ErrRosterRestricted
		}

		identityChanged := p.Name != prev.Name || p.Email != prev.Email
		resultChanged := p.Result != prev.Result || !scoreEqual(p.Score, prev.Score)

		if bothGuests && (identityChanged || resultChanged) {
			return ErrGuestRestricted
		}

		if identityChanged {
			return ErrRosterRestricted
		}

		if resultChanged && !p.isUser(userID) {
			return ErrRosterRestricted
		}
	}

	return nil
}

// ReminderRecipients are the registered participants still blocking
// convergence, excluding the caller.
func (s *Session) ReminderRecipients(callerID uuid.UUID) []Participant {
	recipients := make([]Participant, 0, len(s.Players))
	for _, p := range s.Players {
		if p.blocksConvergence() && !p.isUser(callerID) {
			recipients = append(recipients, p)
		}
	}
	return recipients
}

// RegisteredOthers are the registered participants other than the given
// user, regardless of confirmation state.
func (s *Session) RegisteredOthers(userID uuid.UUID) []Participant {
	others := make([]Participant, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsGuest() && !p.isUser(userID) {
			others = append(others, p)
		}
	}
	return others
}

func (s *Session) IsParticipant(userID uuid.UUID) bool {
	return s.participantIndex(userID) >= 0 || s.CreatedBy.ID == userID
}

func (s *Session) participantIndex(userID uuid.UUID) int {
	for i, p := range s.Players {
		if p.isUser(userID) {
			return i
		}
	}
	return -1
}

func scoreEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
