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
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RemindPlayersCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
}

func (c RemindPlayersCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

type RemindPlayersResponse struct {
	Count int `json:"count"`
}

func HandleRemindPlayers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	command := RemindPlayersCommand{
		SessionID: sessionID,
		UserID:    core.CurrentIdentity(ctx).UserID,
	}

	response, err := mediator.Send[RemindPlayersCommand, RemindPlayersResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type RemindPlayersCommandHandler struct {
	db          *sql.DB
	repository  *session.Repository
	ledger      *notification.Ledger
	emailClient *core.EmailClient
	emailSender string
	cooldown    time.Duration
}

func NewRemindPlayersCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
	emailClient *core.EmailClient,
	emailSender string,
	cooldown time.Duration,
) *RemindPlayersCommandHandler {
	return &RemindPlayersCommandHandler{db, repository, ledger, emailClient, emailSender, cooldown}
}

// Handle broadcasts a reminder to every registered participant still
// blocking convergence. Creator-only, pending-only, and throttled: a second
// broadcast inside the cooldown window fails with a conflict instead of
// re-spamming the same people. Email delivery is best-effort - the ledger
// entries are the system of record.
func (h *RemindPlayersCommandHandler) Handle(
	ctx context.Context,
	request RemindPlayersCommand,
) (RemindPlayersResponse, error) {
	now := time.Now().UTC()

	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	if err != nil {
		return RemindPlayersResponse{}, loadError(err)
	}

	if match.CreatedBy.ID != request.UserID {
		return RemindPlayersResponse{}, core.NewCommandError(
			http.StatusForbidden,
			nil,
			"only the match creator may send reminders",
		)
	}

	if match.MatchStatus != domain.StatusPending {
		return RemindPlayersResponse{}, core.NewCommandError(
			http.StatusConflict,
			nil,
			"match is already confirmed",
		)
	}

	recipients := match.ReminderRecipients(request.UserID)
	if len(recipients) == 0 {
		return RemindPlayersResponse{}, core.NewCommandError(
			http.StatusConflict,
			nil,
			"no unconfirmed players to remind",
		)
	}

	if match.LastReminderSent != nil && now.Sub(*match.LastReminderSent) < h.cooldown {
		return RemindPlayersResponse{}, core.NewCommandError(
			http.StatusConflict,
			nil,
			"a reminder was already sent recently",
		)
	}

	entries := matchNotifications(
		notificationdomain.TypeMatchReminder,
		match.ID,
		match.CreatedBy,
		recipients,
		now,
	)

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			UPDATE
				game_session
			SET
				last_reminder_sent = $1,
				updated_at = $1
			WHERE
				id = $2;`

		if _, err := tql.Exec(ctx, tx, stmt, now, match.ID); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, entries...)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return RemindPlayersResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to send reminders")
	}

	h.sendReminderEmails(ctx, match, recipients)

	return RemindPlayersResponse{Count: len(entries)}, nil
}

func (h *RemindPlayersCommandHandler) sendReminderEmails(
	ctx context.Context,
	match domain.Session,
	recipients []domain.Participant,
) {
	if h.emailClient == nil {
		return
	}

	for _, p := range recipients {
		if p.Email == "" {
			continue
		}

		message := core.MailMessage{
			Subject: fmt.Sprintf("Reminder: confirm your game of %s", match.Game.Name),
			From:    h.emailSender,
			To:      []string{p.Email},
			BodyString: fmt.Sprintf(
				"%s is waiting for you to confirm the game of %s played on %s.",
				match.CreatedBy.DisplayName(),
				match.Game.Name,
				match.Date.Format("Jan 2, 2006"),
			),
		}

		if err := h.emailClient.Send(message); err != nil {
			core.LogError(ctx, "failed to send reminder email", zap.Error(err))
		}
	}
}
