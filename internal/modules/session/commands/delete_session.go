package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/session"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

type DeleteSessionCommand struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	IsAdmin   bool
}

func (c DeleteSessionCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	if c.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", c.UserID)
	}

	return nil
}

func HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		core.WriteBadRequest(w, r, fmt.Errorf("invalid session id"))
		return
	}

	identity := core.CurrentIdentity(ctx)
	command := DeleteSessionCommand{
		SessionID: sessionID,
		UserID:    identity.UserID,
		IsAdmin:   identity.IsAdmin(),
	}

	_, err = mediator.Send[DeleteSessionCommand, core.Unit](ctx, command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type DeleteSessionCommandHandler struct {
	db         *sql.DB
	repository *session.Repository
}

func NewDeleteSessionCommandHandler(db *sql.DB, repository *session.Repository) *DeleteSessionCommandHandler {
	return &DeleteSessionCommandHandler{db, repository}
}

// Handle removes the session. Ledger entries referencing it stay behind -
// their correlation simply becomes unresolvable.
func (h *DeleteSessionCommandHandler) Handle(
	ctx context.Context,
	request DeleteSessionCommand,
) (core.Unit, error) {
	match, err := h.repository.Load(ctx, h.db, request.SessionID)
	if err != nil {
		return core.Unit{}, loadError(err)
	}

	if match.CreatedBy.ID != request.UserID && !request.IsAdmin {
		return core.Unit{}, core.NewCommandError(
			http.StatusForbidden,
			nil,
			"only the match creator may delete it",
		)
	}

	txFn := func(ctx context.Context, tx *sql.Tx) error {
		return h.repository.Delete(ctx, tx, request.SessionID)
	}

	if err := core.Tx(ctx, h.db, txFn); err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to delete match")
	}

	return core.Unit{}, nil
}
