package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/core"
	frienddomain "github.com/gamenight/tracker/internal/modules/friend/domain"
	"github.com/gamenight/tracker/internal/modules/notification"
	notificationdomain "github.com/gamenight/tracker/internal/modules/notification/domain"
	"github.com/gamenight/tracker/internal/modules/session"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type SendFriendRequestCommand struct {
	UserID uuid.UUID `json:"-"`
	Email  string    `json:"email"`
}

func (c SendFriendRequestCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.Email == "" {
		return fmt.Errorf("invalid Email - email is required")
	}

	return nil
}

func HandleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[SendFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.CurrentIdentity(r.Context()).UserID

	_, err = mediator.Send[SendFriendRequestCommand, core.Unit](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type SendFriendRequestCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
	ledger     *notification.Ledger
}

func NewSendFriendRequestCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
) *SendFriendRequestCommandHandler {
	return &SendFriendRequestCommandHandler{db, repository, ledger}
}

// Handle creates a pending edge toward the user with the given email and
// appends FRIEND_REQUEST to their ledger.
func (h *SendFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request SendFriendRequestCommand,
) (core.Unit, error) {
	now := time.Now().UTC()

	recipient, err := h.repository.LoadUserRefByEmail(ctx, h.db, request.Email)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return core.Unit{}, core.NewCommandError(http.StatusNotFound, err, "no user with that email")
	case err != nil:
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to look up user")
	}

	friendRequest, err := frienddomain.NewFriendRequest(request.UserID, recipient.ID, now)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusBadRequest, err, err.Error())
	}

	const existingQuery = `
		SELECT
			count(id)
		FROM
			friend_request
		WHERE
			((sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1))
			AND status IN ('Pending', 'Accepted');`

	count, err := tql.QuerySingle[int](ctx, h.db, existingQuery, request.UserID, recipient.ID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to reach database")
	}

	if count > 0 {
		return core.Unit{}, core.NewCommandError(
			http.StatusConflict,
			nil,
			"a friend request or friendship already exists",
		)
	}

	sender, err := h.repository.LoadUserRef(ctx, h.db, request.UserID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load user")
	}

	entry := notificationdomain.New(
		recipient.ID,
		notificationdomain.TypeFriendRequest,
		now,
		notificationdomain.WithSender(sender.ID, sender.DisplayName()),
	)

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			INSERT INTO
				friend_request (id, sender, recipient, status, created_at, responded_at)
			VALUES
				(:id, :sender, :recipient, :status, :created_at, :responded_at);`

		if _, err := tql.Exec(ctx, tx, stmt, friendRequest); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, entry)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to send friend request")
	}

	return core.Unit{}, nil
}
