package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/session"
	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/google/uuid"
)

type GetSessionsQuery struct {
	UserID uuid.UUID
}

func (q GetSessionsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

func HandleGetSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := GetSessionsQuery{UserID: core.CurrentIdentity(ctx).UserID}

	response, err := mediator.Send[GetSessionsQuery, []domain.Session](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetSessionsQueryHandler struct {
	db         *sql.DB
	repository *session.Repository
}

func NewGetSessionsQueryHandler(db *sql.DB, repository *session.Repository) *GetSessionsQueryHandler {
	return &GetSessionsQueryHandler{db, repository}
}

// Handle returns every session the caller participates in, newest play date
// first. Each document is assembled fresh - list cards and detail views
// re-derive from the same authoritative rows.
func (h *GetSessionsQueryHandler) Handle(
	ctx context.Context,
	request GetSessionsQuery,
) ([]domain.Session, error) {
	ids, err := h.repository.ListIDsForUser(ctx, h.db, request.UserID)
	if err != nil {
		return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to list matches")
	}

	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		match, err := h.repository.Load(ctx, h.db, id)
		if err != nil {
			return nil, core.NewCommandError(http.StatusInternalServerError, err, "failed to load match")
		}
		sessions = append(sessions, match)
	}

	return sessions, nil
}
