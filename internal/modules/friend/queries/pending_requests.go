package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"
	sessiondomain "github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type PendingRequestsQuery struct {
	UserID uuid.UUID
}

func (q PendingRequestsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

func HandlePendingRequests(w http.ResponseWriter, r *http.Request) {
	query := PendingRequestsQuery{UserID: core.CurrentIdentity(r.Context()).UserID}

	response, err := mediator.Send[PendingRequestsQuery, []sessiondomain.UserRef](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type PendingRequestsQueryHandler struct {
	db *sql.DB
}

func NewPendingRequestsQueryHandler(db *sql.DB) *PendingRequestsQueryHandler {
	return &PendingRequestsQueryHandler{db}
}

func (h *PendingRequestsQueryHandler) Handle(
	ctx context.Context,
	request PendingRequestsQuery,
) ([]sessiondomain.UserRef, error) {
	const query = `
		SELECT
			u.id, u.first_name, u.last_name, u.email
		FROM
			friend_request fr
			JOIN users u ON u.id = fr.sender
		WHERE
			fr.recipient = $1
			AND fr.status = 'Pending'
		ORDER BY
			fr.created_at DESC;`

	rows, err := tql.Query[userRow](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to load friend requests")
	}

	return core.Map(rows, userRow.toRef), nil
}
