package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/notification"
	notificationdomain "github.com/gamenight/tracker/internal/modules/notification/domain"
	"github.com/gamenight/tracker/internal/modules/session"
	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateSessionCommand struct {
	UserID  uuid.UUID     `json:"-"`
	Game    GameModel     `json:"game"`
	Date    time.Time     `json:"date"`
	Players []PlayerModel `json:"players"`
	Notes   string        `json:"notes,omitempty"`
}

func (c CreateSessionCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.Game.Name == "" {
		return fmt.Errorf("invalid Game - name is required")
	}

	if c.Date.IsZero() {
		return fmt.Errorf("invalid Date - date is required")
	}

	if len(c.Players) == 0 {
		return fmt.Errorf("invalid Players - at least one participant is required")
	}

	for _, p := range c.Players {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[CreateSessionCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.CurrentIdentity(r.Context()).UserID

	response, err := mediator.Send[CreateSessionCommand, domain.Session](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "sessions", response.ID.String())
	core.WriteCreated(w, r, location, response)
}

type CreateSessionCommandHandler struct {
	db          *sql.DB
	repository  *session.Repository
	ledger      *notification.Ledger
	emailClient *core.EmailClient
	emailSender string
}

func NewCreateSessionCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
	emailClient *core.EmailClient,
	emailSender string,
) *CreateSessionCommandHandler {
	return &CreateSessionCommandHandler{db, repository, ledger, emailClient, emailSender}
}

// Handle creates the session and fans out MATCH_INVITE to every registered
// participant other than the creator. Guest invite emails go out after the
// commit, best-effort.
func (h *CreateSessionCommandHandler) Handle(
	ctx context.Context,
	request CreateSessionCommand,
) (domain.Session, error) {
	now := time.Now().UTC()

	creator, err := h.repository.LoadUserRef(ctx, h.db, request.UserID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Session{}, core.NewCommandError(http.StatusUnauthorized, err, "unknown user")
	case err != nil:
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load user")
	}

	players, err := resolveParticipants(ctx, h.db, h.repository, request.Players)
	if err != nil {
		return domain.Session{}, err
	}

	game := domain.GameRef{Name: request.Game.Name}
	if request.Game.ID != nil {
		game.ID = *request.Game.ID
	} else {
		game.ID = uuid.New()
	}

	created, err := domain.NewSession(creator, game, request.Date, players, request.Notes, now)
	if err != nil {
		return domain.Session{}, commandErrorFromDomain(err)
	}

	invites := matchNotifications(
		notificationdomain.TypeMatchInvite,
		created.ID,
		creator,
		created.RegisteredOthers(creator.ID),
		now,
	)

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		if err := h.repository.Insert(ctx, tx, created); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, invites...)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to create match")
	}

	h.sendGuestInvites(ctx, created)

	return created, nil
}

func (h *CreateSessionCommandHandler) sendGuestInvites(ctx context.Context, created domain.Session) {
	if h.emailClient == nil {
		return
	}

	for _, p := range created.Players {
		if !p.IsGuest() || !p.Invited || p.Email == "" {
			continue
		}

		message := core.MailMessage{
			Subject: fmt.Sprintf("You're invited to a game of %s", created.Game.Name),
			From:    h.emailSender,
			To:      []string{p.Email},
			BodyString: fmt.Sprintf(
				"%s logged a game of %s on %s and put you on the roster.",
				created.CreatedBy.DisplayName(),
				created.Game.Name,
				created.Date.Format("Jan 2, 2006"),
			),
		}

		if err := h.emailClient.Send(message); err != nil {
			core.LogError(ctx, "failed to send guest invite email", zap.Error(err))
		}
	}
}
