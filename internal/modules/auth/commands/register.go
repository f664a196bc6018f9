package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/auth/domain"
	"github.com/gamenight/tracker/internal/modules/core"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
)

type RegisterCommand struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (c RegisterCommand) Validate() error {
	if c.FirstName == "" {
		return fmt.Errorf("invalid FirstName - first name is required")
	}

	if c.Email == "" {
		return fmt.Errorf("invalid Email - email is required")
	}

	if len(c.Password) < 8 {
		return fmt.Errorf("invalid Password - minimum 8 characters")
	}

	return nil
}

func HandleRegister(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[RegisterCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}

	if _, err := mediator.Send[RegisterCommand, core.Unit](r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

type RegisterCommandHandler struct {
	db             *sql.DB
	passwordHasher *domain.PasswordHasher
}

func NewRegisterCommandHandler(db *sql.DB, passwordHasher *domain.PasswordHasher) *RegisterCommandHandler {
	return &RegisterCommandHandler{db, passwordHasher}
}

func (h *RegisterCommandHandler) Handle(ctx context.Context, request RegisterCommand) (core.Unit, error) {
	const existingUserQuery = `
		SELECT
			count(id)
		FROM
			users
		WHERE
			email = $1;`

	count, err := tql.QuerySingle[int](ctx, h.db, existingUserQuery, request.Email)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to reach database")
	}

	if count > 0 {
		return core.Unit{}, core.NewCommandError(http.StatusConflict, nil, "email already in use")
	}

	user, err := domain.RegisterUser(
		request.FirstName,
		request.LastName,
		request.Email,
		request.Password,
		h.passwordHasher,
		time.Now().UTC(),
	)
	if err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusBadRequest, err, "user registration failed")
	}

	const stmt = `
		INSERT INTO
			users (id, security_stamp, first_name, last_name, email, password_hash, role, locked, unsuccessful_login_attempts, created_at)
		VALUES
			(:id, :security_stamp, :first_name, :last_name, :email, :password_hash, :role, :locked, :unsuccessful_login_attempts, :created_at);`

	if _, err := tql.Exec(ctx, h.db, stmt, user); err != nil {
		return core.Unit{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to create new user entry")
	}

	return core.Unit{}, nil
}
