package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/notification"
	notificationdomain "github.com/gamenight/tracker/internal/modules/notification/domain"
	"github.com/gamenight/tracker/internal/modules/session"
	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type EditSessionCommand struct {
	SessionID uuid.UUID `json:"-"`
	UserID    uuid.UUID `json:"-"`
	IsAdmin   bool      `json:"-"`

	// Absent fields leave the current value untouched.
	Players *[]PlayerModel `json:"players,omitempty"`
	Notes   *string        `json:"notes,omitempty"`
	Date    *time.Time     `json:"date,omitempty"`
}

func (c EditSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.Players == nil && c.Notes == nil && c.Date == nil {
		return fmt.Errorf("empty patch - nothing to update")
	}

	if c.Players != nil {
		if len(*c.Players) == 0 {
			return fmt.Errorf("invalid Players - at least one participant is required")
		}

		for _, p := range *c.Players {
			if err := p.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

func HandleEditSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command, err := core.RequestBody[EditSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	identity := core.CurrentIdentity(ctx)
	command.SessionID = sessionID
	command.UserID = identity.UserID
	command.IsAdmin = identity.IsAdmin()

	response, err := mediator.Send[EditSessionCommand, domain.Session](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type EditSessionCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
	ledger     *notification.Ledger
}

func NewEditSessionCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
) *EditSessionCommandHandler {
	return &EditSessionCommandHandler{db, repository, ledger}
}

// Handle applies the patch under the edit policy and recomputes the status.
// Registered users newly on the roster get MATCH_INVITE; everyone else gets
// MATCH_UPDATED while the session is still pending, or MATCH_CONFIRMED when
// the edit itself converges it.
func (h *EditSessionCommandHandler) Handle(
	ctx context.Context,
	request EditSessionCommand,
) (domain.Session, error) {
	now := time.Now().UTC()

	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	if err != nil {
		return domain.Session{}, loadError(err)
	}

	patch := domain.EditPatch{
		Notes: request.Notes,
		Date:  request.Date,
	}

	if request.Players != nil {
		players, err := resolveParticipants(ctx, h.db, h.repository, *request.Players)
		if err != nil {
			return domain.Session{}, err
		}
		patch.Players = players
	}

	if err := match.AuthorizeEdit(patch, request.UserID, request.IsAdmin); err != nil {
		return domain.Session{}, commandErrorFromDomain(err)
	}

	editor, err := h.repository.LoadUserRef(ctx, h.db, request.UserID)
	if err != nil {
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load user")
	}

	previousStatus := match.MatchStatus

	outcome, err := match.ApplyEdit(patch, editor, now)
	if err != nil {
		return domain.Session{}, commandErrorFromDomain(err)
	}

	entries := matchNotifications(
		notificationdomain.TypeMatchInvite,
		match.ID,
		editor,
		invitedParticipants(match, outcome.AddedUsers),
		now,
	)

	observers := excludeUsers(match.RegisteredOthers(request.UserID), outcome.AddedUsers)

	switch {
	case previousStatus == domain.StatusPending && match.MatchStatus == domain.StatusConfirmed:
		entries = append(entries, matchNotifications(
			notificationdomain.TypeMatchConfirmed, match.ID, editor, observers, now,
		)...)
	case previousStatus == domain.StatusPending:
		entries = append(entries, matchNotifications(
			notificationdomain.TypeMatchUpdated, match.ID, editor, observers, now,
		)...)
	}

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		if err := h.repository.Update(ctx, tx, match); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, entries...)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to update match")
	}

	return match, nil
}

func invitedParticipants(match domain.Session, addedUsers []uuid.UUID) []domain.Participant {
	added := map[uuid.UUID]bool{}
	for _, id := range addedUsers {
		added[id] = true
	}

	return core.Filter(match.Players, func(p domain.Participant) bool {
		return p.User != nil && added[p.User.ID]
	})
}
