package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gamenight/tracker/internal/modules/auth"
	"github.com/gamenight/tracker/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type LogoutCommand struct {
	SessionID uuid.UUID `json:"-"`
}

func (c LogoutCommand) Validate() error {
	if c.SessionID == uuid.Nil {
		return fmt.Errorf("invalid SessionID - '%s'", c.SessionID)
	}

	return nil
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil {
		core.WriteOK(w, r, nil)
		return
	}

	sessionID, err := uuid.Parse(cookie.Value)
	if err != nil {
		core.WriteOK(w, r, nil)
		return
	}

	if _, err := mediator.Send[LogoutCommand, core.Unit](r.Context(), LogoutCommand{SessionID: sessionID}); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	core.WriteOK(w, r, nil)
}

type LogoutCommandHandler struct {
	db *sql.DB
}

func NewLogoutCommandHandler(db *sql.DB) *LogoutCommandHandler {
	return &LogoutCommandHandler{db}
}

func (h *LogoutCommandHandler) Handle(ctx context.Context, request LogoutCommand) (core.Unit, error) {
	const stmt = `
		DELETE FROM
			auth_session
		WHERE
			id = $1;`

	if _, err := tql.Exec(ctx, h.db, stmt, request.SessionID); err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to delete session")
	}

	return core.Unit{}, nil
}
