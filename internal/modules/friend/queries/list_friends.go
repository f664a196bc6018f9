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
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type userRow struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
}

func (r userRow) toRef() sessiondomain.UserRef {
	return sessiondomain.UserRef{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	}
}

type ListFriendsQuery struct {
	UserID uuid.UUID
}

func (q ListFriendsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

func HandleListFriends(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid user id"))
		return
	}

	response, err := mediator.Send[ListFriendsQuery, []sessiondomain.UserRef](r.Context(), ListFriendsQuery{userID})
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type ListFriendsQueryHandler struct {
	db *sql.DB
}

func NewListFriendsQueryHandler(db *sql.DB) *ListFriendsQueryHandler {
	return &ListFriendsQueryHandler{db}
}

// Handle returns the users on the far end of every accepted edge,
// regardless of which side sent the original request.
func (h *ListFriendsQueryHandler) Handle(
	ctx context.Context,
	request ListFriendsQuery,
) ([]sessiondomain.UserRef, error) {
	const query = `
		SELECT
			u.id, u.first_name, u.last_name, u.email
		FROM
			friend_request fr
			JOIN users u ON u.id = CASE WHEN fr.sender = $1 THEN fr.recipient ELSE fr.sender END
		WHERE
			(fr.sender = $1 OR fr.recipient = $1)
			AND fr.status = 'Accepted'
		ORDER BY
			u.first_name, u.last_name;`

	rows, err := tql.Query[userRow](ctx, h.db, query, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to load friends")
	}

	return core.Map(rows, userRow.toRef), nil
}
