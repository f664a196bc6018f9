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

type RespondFriendRequestCommand struct {
	UserID   uuid.UUID                  `json:"-"`
	SenderID uuid.UUID                  `json:"senderId"`
	Action   frienddomain.RequestStatus `json:"action"`
}

func (c RespondFriendRequestCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	if c.SenderID == uuid.Nil {
		return fmt.Errorf("invalid SenderID - '%s'", c.SenderID)
	}

	if c.Action != frienddomain.StatusAccepted && c.Action != frienddomain.StatusRejected {
		return fmt.Errorf("invalid Action - '%s'", c.Action)
	}

	return nil
}

type RespondFriendRequestResponse struct {
	FriendID uuid.UUID                  `json:"friendId"`
	Status   frienddomain.RequestStatus `json:"status"`
}

func HandleRespondFriendRequest(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RespondFriendRequestCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.UserID = core.CurrentIdentity(r.Context()).UserID

	response, err := mediator.Send[RespondFriendRequestCommand, RespondFriendRequestResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type RespondFriendRequestCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
	ledger     *notification.Ledger
}

func NewRespondFriendRequestCommandHandler(
	db *sql.DB,
	repository *session.Repository,
	ledger *notification.Ledger,
) *RespondFriendRequestCommandHandler {
	return &RespondFriendRequestCommandHandler{db, repository, ledger}
}

// Handle settles the pending request from SenderID to the acting user and
// tells the original sender how it went. Repeating the same answer is a
// no-op success and appends nothing.
func (h *RespondFriendRequestCommandHandler) Handle(
	ctx context.Context,
	request RespondFriendRequestCommand,
) (RespondFriendRequestResponse, error) {
	now := time.Now().UTC()

	const query = `
		SELECT
			*
		FROM
			friend_request
		WHERE
			sender = $1 AND recipient = $2
		ORDER BY
			created_at DESC;`

	friendRequest, err := tql.QueryFirst[frienddomain.FriendRequest](ctx, h.db, query, request.SenderID, request.UserID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusNotFound, err, "friend request not found")
	case err != nil:
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load friend request")
	}

	outcome, err := friendRequest.Respond(request.Action, now)
	switch {
	case err != nil && errors.Is(err, frienddomain.ErrAlreadyResponded):
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusConflict, err, err.Error())
	case err != nil:
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusBadRequest, err, err.Error())
	}

	response := RespondFriendRequestResponse{
		FriendID: friendRequest.Sender,
		Status:   friendRequest.Status,
	}

	if outcome.AlreadyResponded {
		return response, nil
	}

	responder, err := h.repository.LoadUserRef(ctx, h.db, request.UserID)
	if err != nil {
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load user")
	}

	notificationType := notificationdomain.TypeFriendAccepted
	if request.Action == frienddomain.StatusRejected {
		notificationType = notificationdomain.TypeFriendRejected
	}

	entry := notificationdomain.New(
		friendRequest.Sender,
		notificationType,
		now,
		notificationdomain.WithSender(responder.ID, responder.DisplayName()),
	)

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		const stmt = `
			UPDATE
				friend_request
			SET
				status = :status,
				responded_at = :responded_at
			WHERE
				id = :id;`

		if _, err := tql.Exec(ctx, tx, stmt, friendRequest); err != nil {
			return err
		}

		return h.ledger.Append(ctx, tx, entry)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return RespondFriendRequestResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to respond to friend request")
	}

	return response, nil
}
