package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gamenight/tracker/internal/modules/auth/domain"
	"github.com/gamenight/tracker/internal/modules/core"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const SessionCookieName = "gamenight_session"

// AuthenticationMiddleware resolves the session cookie into a core.Identity
// on the request context. Requests without a live session get a 401.
func AuthenticationMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				core.WriteUnauthorized(w, r)
				return
			}

			sessionID, err := uuid.Parse(cookie.Value)
			if err != nil {
				core.WriteUnauthorized(w, r)
				return
			}

			const sessionQuery = `
				SELECT
					*
				FROM
					auth_session
				WHERE
					id = $1;`

			session, err := tql.QueryFirst[domain.Session](r.Context(), db, sessionQuery, sessionID)
			switch {
			case err != nil && errors.Is(err, sql.ErrNoRows):
				core.WriteUnauthorized(w, r)
				return
			case err != nil:
				core.WriteInternalServerError(w, r)
				return
			}

			if err := session.Validate(time.Now().UTC()); err != nil {
				core.WriteUnauthorized(w, r)
				return
			}

			const roleQuery = `
				SELECT
					role
				FROM
					users
				WHERE
					id = $1;`

			role, err := tql.QueryFirst[string](r.Context(), db, roleQuery, session.UserID)
			if err != nil {
				core.WriteUnauthorized(w, r)
				return
			}

			identity := core.Identity{UserID: session.UserID, Role: role}
			next.ServeHTTP(w, r.WithContext(core.WithIdentity(r.Context(), identity)))
		})
	}
}
