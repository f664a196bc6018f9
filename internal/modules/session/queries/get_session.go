package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/session"
	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type GetSessionQuery struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	IsAdmin   bool
}

func (q GetSessionQuery) Validate() error {
	if q.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", q.SessionID)
	}

	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	return nil
}

func HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	identity := core.CurrentIdentity(ctx)
	query := GetSessionQuery{
		SessionID: sessionID,
		UserID:    identity.UserID,
		IsAdmin:   identity.IsAdmin(),
	}

	response, err := mediator.Send[GetSessionQuery, domain.Session](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

type GetSessionQueryHandler struct {
	db         *sql.DB
	repository *session.Repository
}

func NewGetSessionQueryHandler(db *sql.DB, repository *session.Repository) *GetSessionQueryHandler {
	return &GetSessionQueryHandler{db, repository}
}

func (h *GetSessionQueryHandler) Handle(
	ctx context.Context,
	request GetSessionQuery,
) (domain.Session, error) {
	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return domain.Session{}, core.NewCommandError(http.StatusNotFound, err, "match not found")
	case err != nil:
		return domain.Session{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load match")
	}

	if !match.IsParticipant(request.UserID) && !request.IsAdmin {
		return domain.Session{}, core.NewCommandError(http.StatusForbidden, nil, "access denied")
	}

	return match, nil
}
