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

type DeclineSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c DeclineSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleDeclineSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := DeclineSessionCommand{
		SessionID: sessionID,
		UserID:    core.CurrentIdentity(ctx).UserID,
	}

	response, err := mediator.Send[DeclineSessionCommand, domain.Session](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type DeclineSessionCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
	ledger     *notification.Ledger
}

func NewDeclineSessionCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
) *DeclineSessionCommandHandler {
	return &DeclineSessionCommandHandler{db, repository, ledger}
}

// Handle records that the acting user will never confirm. The creator is
// told via MATCH_DECLINED; the declined slot stops blocking convergence, so
// everyone-else-confirmed sessions converge here and fan out MATCH_CONFIRMED
// as well.
func (h *DeclineSessionCommandHandler) Handle(
	ctx context.Context,
	request DeclineSessionCommand,
) (domain.Session, error) {
	now := time.Now().UTC()

	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	if err != nil {
		return domain.Session{}, loadError(err)
	}

	outcome, err := match.Decline(request.UserID, now)
	if err != nil {
		return domain.Session{}, commandErrorFromDomain(err)
	}

	if outcome.AlreadyDeclined {
		return match, nil
	}

	actor := userRefFor(match, request.UserID)

	var entries []notificationdomain.Notification

	if match.CreatedBy.ID != request.UserID {
		entries = append(entries, notificationdomain.New(
			match.CreatedBy.ID,
			notificationdomain.TypeMatchDeclined,
			now,
			notificationdomain.WithSender(actor.ID, actor.DisplayName()),
			notificationdomain.WithEntity(match.ID),
		))
	}

	if outcome.Converged {
		entries = append(entries, matchNotifications(
			notificationdomain.TypeMatchConfirmed,
			match.ID,
			actor,
			match.RegisteredOthers(request.UserID),
			now,
		)...)
	}

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		if err := h.repository.Update(ctx, tx, match); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, entries...)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to decline match")
	}

	return match, nil
}
