package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"
	frienddomain "github.com/gamenight/tracker/internal/modules/friend/domain"
	sessiondomain "github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type SentRequestsQuery struct {
	UserID uuid.UUID
}

func (q SentRequestsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

type SentRequestModel struct {
	User   sessiondomain.UserRef      `json:"user"`
	Status frienddomain.RequestStatus `json:"status"`
}

func HandleSentRequests(w http.ResponseWriter, r *http.Request) {
	query := SentRequestsQuery{UserID: core.CurrentIdentity(r.Context()).UserID}

	response, err := mediator.Send[SentRequestsQuery, []SentRequestModel](r.Context(), query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type SentRequestsQueryHandler struct {
	db *sql.DB
}

func NewSentRequestsQueryHandler(db *sql.DB) *SentRequestsQueryHandler {
	return &SentRequestsQueryHandler{db}
}

func (h *SentRequestsQueryHandler) Handle(
	ctx context.Context,
	request SentRequestsQuery,
) ([]SentRequestModel, error) {
	type sentRow struct {
		ID        uuid.UUID                  `db:"id"`
		FirstName string                     `db:"first_name"`
		LastName  string                     `db:"last_name"`
		Email     string                     `db:"email"`
		Status    frienddomain.RequestStatus `db:"status"`
	}

	const query = `
		SELECT
			u.id, u.first_name, u.last_name, u.email, fr.status
		FROM
			friend_request fr
			JOIN users u ON u.id = fr.recipient
		WHERE
			fr.sender = $1
		ORDER BY
			fr.created_at DESC;`

	rows, err := tql.Query[sentRow](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to load sent requests")
	}

	return core.Map(rows, func(r sentRow) SentRequestModel {
		return SentRequestModel{
			User: sessiondomain.UserRef{
				ID:        r.ID,
				FirstName: r.FirstName,
				LastName:  r.LastName,
				Email:     r.Email,
			},
			Status: r.Status,
		}
	}), nil
}
