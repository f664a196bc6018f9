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

type ConfirmSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c ConfirmSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleConfirmSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := ConfirmSessionCommand{
		SessionID: sessionID,
		UserID:    core.CurrentIdentity(ctx).UserID,
	}

	response, err := mediator.Send[ConfirmSessionCommand, domain.Session](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ConfirmSessionCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
	ledger     *notification.Ledger
}

func NewConfirmSessionCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
) *ConfirmSessionCommandHandler {
	return &ConfirmSessionCommandHandler{db, repository, ledger}
}

// Handle confirms the acting user's slot and returns the authoritative
// session document. A repeated confirm is a no-op success: nothing is
// written and no second MATCH_CONFIRMED is appended, so retries and
// double-clicks are harmless.
func (h *ConfirmSessionCommandHandler) Handle(
	ctx context.Context,
	request ConfirmSessionCommand,
) (domain.Session, error) {
	now := time.Now().UTC()

	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	if err != nil {
		return domain.Session{}, loadError(err)
	}

	outcome, err := match.Confirm(request.UserID, now)
	if err != nil {
		return domain.Session{}, commandErrorFromDomain(err)
	}

	if outcome.AlreadyConfirmed {
		return match, nil
	}

	var converged []notificationdomain.Notification
	if outcome.Converged {
		converged = matchNotifications(
			notificationdomain.TypeMatchConfirmed,
			match.ID,
			userRefFor(match, request.UserID),
			match.RegisteredOthers(request.UserID),
			now,
		)
	}

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		if err := h.repository.Update(ctx, tx, match); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, converged...)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to confirm match")
	}

	return match, nil
}

// userRefFor finds the acting user's reference in the loaded document.
func userRefFor(match domain.Session, userID uuid.UUID) domain.UserRef {
	if match.CreatedBy.ID == userID {
		return match.CreatedBy
	}

	for _, p := range match.Players {
		if p.User != nil && p.User.ID == userID {
			return *p.User
		}
	}

	return domain.UserRef{ID: userID}
}
