package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/core"
	notificationdomain "github.com/gamenight/tracker/internal/modules/notification/domain"
	"github.com/gamenight/tracker/internal/modules/session"
	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

// PlayerModel is the wire shape of one roster slot. A nil User marks a
// guest. Confirmation state is never accepted from the wire - it is always
// server-managed.
type PlayerModel struct {
	User    *uuid.UUID    `json:"user"`
	Name    string        `json:"name,omitempty"`
	Email   string        `json:"email,omitempty"`
	Result  domain.Result `json:"result,omitempty"`
	Score   *int          `json:"score,omitempty"`
	Invited bool          `json:"invited,omitempty"`
}

func (p PlayerModel) Validate() error {
	if p.User == nil && p.Name == "" {
		return fmt.Errorf("guest participant requires a name")
	}

	switch p.Result {
	case "", domain.ResultWin, domain.ResultLoss, domain.ResultDraw:
	default:
		return fmt.Errorf("invalid result - '%s'", p.Result)
	}

	return nil
}

type GameModel struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// resolveParticipants turns wire models into roster slots, resolving
// registered user references against the store. Name and email mirror the
// user's profile unless the request supplied overrides.
func resolveParticipants(
	ctx context.Context,
	q tql.Querier,
	repository *session.Repository,
	models []PlayerModel,
) ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0, len(models))

	for _, model := range models {
		participant := domain.Participant{
			Name:    model.Name,
			Email:   model.Email,
			Result:  model.Result,
			Score:   model.Score,
			Invited: model.User == nil && model.Invited,
		}

		if model.User != nil {
			ref, err := repository.LoadUserRef(ctx, q, *model.User)
			switch {
			case err != nil && errors.Is(err, sql.ErrNoRows):
				return nil, core.NewCommandError(
					http.StatusBadRequest,
					err,
					fmt.Sprintf("unknown player reference: %s", model.User),
				)
			case err != nil:
				return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to resolve player")
			}

			participant.User = &ref
			participant.Name = ref.DisplayName()
			participant.Email = ref.Email
		}

		participants = append(participants, participant)
	}

	return participants, nil
}

// commandErrorFromDomain maps state machine errors onto the error taxonomy.
// Everything here is recoverable - callers re-fetch and re-render.
func commandErrorFromDomain(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotAParticipant):
		return core.NewCommandError(http.StatusForbidden, err, "you are not a participant in this match")
	case errors.Is(err, domain.ErrRosterRestricted), errors.Is(err, domain.ErrGuestRestricted):
		return core.NewCommandError(http.StatusForbidden, err, err.Error())
	case errors.Is(err, domain.ErrDeclinedBefore), errors.Is(err, domain.ErrConfirmedBefore):
		return core.NewCommandError(http.StatusConflict, err, err.Error())
	case errors.Is(err, domain.ErrNoParticipants),
		errors.Is(err, domain.ErrCreatorNotInRoster),
		errors.Is(err, domain.ErrDuplicateUser):
		return core.NewCommandError(http.StatusBadRequest, err, err.Error())
	default:
		return core.NewCommandError(http.StatusInternalServerError, err, "failed to apply change")
	}
}

func loadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewCommandError(http.StatusNotFound, err, "match not found")
	}
	return core.NewCommandError(http.StatusInternalServerError, err, "failed to load match")
}

// matchNotifications builds one ledger entry per recipient slot for a
// session transition.
func matchNotifications(
	t notificationdomain.Type,
	sessionID uuid.UUID,
	sender domain.UserRef,
	recipients []domain.Participant,
	now time.Time,
) []notificationdomain.Notification {
	entries := make([]notificationdomain.Notification, 0, len(recipients))

	for _, p := range recipients {
		if p.User == nil {
			continue
		}

		entries = append(entries, notificationdomain.New(
			p.User.ID,
			t,
			now,
			notificationdomain.WithSender(sender.ID, sender.DisplayName()),
			notificationdomain.WithEntity(sessionID),
		))
	}

	return entries
}

func excludeUsers(participants []domain.Participant, exclude []uuid.UUID) []domain.Participant {
	excluded := map[uuid.UUID]bool{}
	for _, id := range exclude {
		excluded[id] = true
	}

	return core.Filter(participants, func(p domain.Participant) bool {
		return p.User == nil || !excluded[p.User.ID]
	})
}
