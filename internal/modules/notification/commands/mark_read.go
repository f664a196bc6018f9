package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type MarkNotificationReadCommand struct {
	NotificationID uuid.UUID
	UserID         uuid.UUID
}

func (c MarkNotificationReadCommand) Validate() error {
	if c.NotificationID == uuid.Nil {
		return fmt.Errorf("invalid NotificationID - '%s'", c.NotificationID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notificationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid notification id"))
		return
	}

	command := MarkNotificationReadCommand{
		NotificationID: notificationID,
		UserID:         core.CurrentIdentity(ctx).UserID,
	}

	_, err = mediator.Send[MarkNotificationReadCommand, core.Unit](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type MarkNotificationReadCommandHandler struct {
	db *sql.DB
}

func NewMarkNotificationReadCommandHandler(db *sql.DB) *MarkNotificationReadCommandHandler {
	return &MarkNotificationReadCommandHandler{db}
}

// Handle flips is_read to true. The transition is monotonic - marking an
// already-read notification succeeds without touching the row.
func (h *MarkNotificationReadCommandHandler) Handle(
	ctx context.Context,
	request MarkNotificationReadCommand,
) (core.Unit, error) {
	const existsQuery = `
		SELECT
			count(id)
		FROM
			notification
		WHERE
			id = $1 AND recipient = $2;`

	count, err := tql.QuerySingle[int](ctx, h.db, existsQuery, request.NotificationID, request.UserID)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to reach database")
	}

	if count == 0 {
		return core.Unit{}, core.NewCommandError(http.StatusNotFound, nil, "notification not found")
	}

	const stmt = `
		UPDATE
			notification
		SET
			is_read = true
		WHERE
			id = $1 AND recipient = $2 AND is_read = false;`

	if _, err := tql.Exec(ctx, h.db, stmt, request.NotificationID, request.UserID); err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to mark notification read")
	}

	return core.Unit{}, nil
}
