package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type MarkAllNotificationsReadCommand struct {
	UserID uuid.UUID
}

func (c MarkAllNotificationsReadCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

type MarkAllNotificationsReadResponse struct {
	Updated int64 `json:"updated"`
}

func HandleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	command := MarkAllNotificationsReadCommand{
		UserID: core.CurrentIdentity(ctx).UserID,
	}

	response, err := mediator.Send[MarkAllNotificationsReadCommand, MarkAllNotificationsReadResponse](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type MarkAllNotificationsReadCommandHandler struct {
	db *sql.DB
}

func NewMarkAllNotificationsReadCommandHandler(db *sql.DB) *MarkAllNotificationsReadCommandHandler {
	return &MarkAllNotificationsReadCommandHandler{db}
}

// Handle is a no-op success when the unread set is already empty.
func (h *MarkAllNotificationsReadCommandHandler) Handle(
	ctx context.Context,
	request MarkAllNotificationsReadCommand,
) (MarkAllNotificationsReadResponse, error) {
	const stmt = `
		UPDATE
			notification
		SET
			is_read = true
		WHERE
			recipient = $1 AND is_read = false;`

	result, err := tql.Exec(ctx, h.db, stmt, request.UserID)
	if err != nil {
		return MarkAllNotificationsReadResponse{}, core.NewCommandError(
			http.StatusInternalServerError,
			err,
			"failed to mark notifications read",
		)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return MarkAllNotificationsReadResponse{}, core.NewCommandError(
			http.StatusInternalServerError,
			err,
			"failed to read update count",
		)
	}

	return MarkAllNotificationsReadResponse{Updated: updated}, nil
}
