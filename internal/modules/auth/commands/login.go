package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/auth"
	"github.com/gamenight/tracker/internal/modules/auth/domain"
	"github.com/gamenight/tracker/internal/modules/core"
	sessiondomain "github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
)

type LoginCommand struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c LoginCommand) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("invalid Email - email is required")
	}

	if c.Password == "" {
		return fmt.Errorf("invalid Password - password is required")
	}

	return nil
}

type LoginResponse struct {
	Session domain.Session        `json:"-"`
	User    sessiondomain.UserRef `json:"user"`
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[LoginCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	response, err := mediator.Send[LoginCommand, LoginResponse](r.Context(), command)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    response.Session.ID.String(),
		Path:     "/",
		Expires:  response.Session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	core.WriteOK(w, r, response)
}

type LoginCommandHandler struct {
	db             *sql.DB
	passwordHasher *domain.PasswordHasher
}

func NewLoginCommandHandler(db *sql.DB, passwordHasher *domain.PasswordHasher) *LoginCommandHandler {
	return &LoginCommandHandler{db, passwordHasher}
}

// Handle authenticates the user and creates a server-side session row.
// Failed attempts are persisted so lockout survives restarts.
func (h *LoginCommandHandler) Handle(ctx context.Context, request LoginCommand) (LoginResponse, error) {
	now := time.Now().UTC()

	const userQuery = `
		SELECT
			*
		FROM
			users
		WHERE
			email = $1;`

	user, err := tql.QueryFirst[domain.User](ctx, h.db, userQuery, request.Email)
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return LoginResponse{}, core.NewCommandError(http.StatusUnauthorized, nil, "invalid credentials")
	case err != nil:
		return LoginResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to reach database")
	}

	authErr := user.Authenticate(request.Password, h.passwordHasher)

	const updateStmt = `
		UPDATE
			users
		SET
			security_stamp = :security_stamp,
			locked = :locked,
			unsuccessful_login_attempts = :unsuccessful_login_attempts
		WHERE
			id = :id;`

	if _, err := tql.Exec(ctx, h.db, updateStmt, user); err != nil {
		return LoginResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to update user entry")
	}

	if authErr != nil {
		return LoginResponse{}, core.NewCommandError(http.StatusUnauthorized, authErr, "invalid credentials")
	}

	session := domain.NewSession(user.ID, now)

	const sessionStmt = `
		INSERT INTO
			auth_session (id, user_id, created_at, expires_at)
		VALUES
			(:id, :user_id, :created_at, :expires_at);`

	if _, err := tql.Exec(ctx, h.db, sessionStmt, session); err != nil {
		return LoginResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to create session")
	}

	return LoginResponse{
		Session: session,
		User: sessiondomain.UserRef{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
		},
	}, nil
}
