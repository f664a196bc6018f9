package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/gamenight/tracker/internal/modules/session/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type sessionRow struct {
	ID               uuid.UUID  `db:"id"`
	GameID           uuid.UUID  `db:"game_id"`
	GameName         string     `db:"game_name"`
	Date             time.Time  `db:"date"`
	CreatedBy        uuid.UUID  `db:"created_by"`
	LastEditedBy     *uuid.UUID `db:"last_edited_by"`
	Notes            string     `db:"notes"`
	MatchStatus      string     `db:"match_status"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	LastReminderSent *time.Time `db:"last_reminder_sent"`
}

type playerRow struct {
	ID          uuid.UUID  `db:"id"`
	SessionID   uuid.UUID  `db:"session_id"`
	Position    int        `db:"position"`
	UserID      *uuid.UUID `db:"user_id"`
	Name        string     `db:"name"`
	Email       string     `db:"email"`
	Result      string     `db:"result"`
	Score       *int       `db:"score"`
	Confirmed   bool       `db:"confirmed"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
	Declined    bool       `db:"declined"`
	DeclinedAt  *time.Time `db:"declined_at"`
	Invited     bool       `db:"invited"`
}

type userRow struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
}

func (u userRow) ref() domain.UserRef {
	return domain.UserRef{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Repository maps between session documents and the game_session /
// session_player tables. All methods accept the caller's querier or
// executor, so mutations participate in the caller's transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Load assembles the full session document, resolving user references for
// the creator, the last editor, and every registered participant.
func (r *Repository) Load(ctx context.Context, q tql.Querier, id uuid.UUID) (domain.Session, error) {
	const sessionQuery = `
		SELECT
			*
		FROM
			game_session
		WHERE
			id = $1;`

	row, err := tql.QueryFirst[sessionRow](ctx, q, sessionQuery, id)
	if err != nil {
		return domain.Session{}, err
	}

	const playersQuery = `
		SELECT
			*
		FROM
			session_player
		WHERE
			session_id = $1
		ORDER BY
			position;`

	playerRows, err := tql.Query[playerRow](ctx, q, playersQuery, id)
	if err != nil {
		return domain.Session{}, err
	}

	users := map[uuid.UUID]domain.UserRef{}

	resolve := func(userID uuid.UUID) (domain.UserRef, error) {
		if ref, ok := users[userID]; ok {
			return ref, nil
		}

		ref, err := r.LoadUserRef(ctx, q, userID)
		if err != nil {
			return domain.UserRef{}, err
		}

		users[userID] = ref
		return ref, nil
	}

	createdBy, err := resolve(row.CreatedBy)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID:               row.ID,
		Game:             domain.GameRef{ID: row.GameID, Name: row.GameName},
		Date:             row.Date,
		CreatedBy:        createdBy,
		Notes:            row.Notes,
		MatchStatus:      domain.MatchStatus(row.MatchStatus),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
		LastReminderSent: row.LastReminderSent,
	}

	if row.LastEditedBy != nil {
		editor, err := resolve(*row.LastEditedBy)
		if err != nil {
			return domain.Session{}, err
		}
		session.LastEditedBy = &editor
	}

	session.Players = make([]domain.Participant, 0, len(playerRows))
	for _, p := range playerRows {
		participant := domain.Participant{
			Name:        p.Name,
			Email:       p.Email,
			Result:      domain.Result(p.Result),
			Score:       p.Score,
			Confirmed:   p.Confirmed,
			ConfirmedAt: p.ConfirmedAt,
			Declined:    p.Declined,
			DeclinedAt:  p.DeclinedAt,
			Invited:     p.Invited,
		}

		if p.UserID != nil {
			ref, err := resolve(*p.UserID)
			if err != nil {
				return domain.Session{}, err
			}
			participant.User = &ref
		}

		session.Players = append(session.Players, participant)
	}

	return session, nil
}

func (r *Repository) LoadUserRef(ctx context.Context, q tql.Querier, id uuid.UUID) (domain.UserRef, error) {
	const query = `
		SELECT
			id, first_name, last_name, email
		FROM
			users
		WHERE
			id = $1;`

	row, err := tql.QueryFirst[userRow](ctx, q, query, id)
	if err != nil {
		return domain.UserRef{}, err
	}

	return row.ref(), nil
}

func (r *Repository) LoadUserRefByEmail(ctx context.Context, q tql.Querier, email string) (domain.UserRef, error) {
	const query = `
		SELECT
			id, first_name, last_name, email
		FROM
			users
		WHERE
			email = $1;`

	row, err := tql.QueryFirst[userRow](ctx, q, query, email)
	if err != nil {
		return domain.UserRef{}, err
	}

	return row.ref(), nil
}

func (r *Repository) Insert(ctx context.Context, tx *sql.Tx, session domain.Session) error {
	const stmt = `
		INSERT INTO
			game_session (id, game_id, game_name, date, created_by, last_edited_by, notes, match_status, created_at, updated_at, last_reminder_sent)
		VALUES
			(:id, :game_id, :game_name, :date, :created_by, :last_edited_by, :notes, :match_status, :created_at, :updated_at, :last_reminder_sent);`

	if _, err := tql.Exec(ctx, tx, stmt, toSessionRow(session)); err != nil {
		return err
	}

	return r.insertPlayers(ctx, tx, session)
}

// Update rewrites the session row and replaces the roster wholesale. The
// roster is a value embedded in the session - individual player rows have no
// lifecycle of their own.
func (r *Repository) Update(ctx context.Context, tx *sql.Tx, session domain.Session) error {
	const stmt = `
		UPDATE
			game_session
		SET
			game_id = :game_id,
			game_name = :game_name,
			date = :date,
			last_edited_by = :last_edited_by,
			notes = :notes,
			match_status = :match_status,
			updated_at = :updated_at,
			last_reminder_sent = :last_reminder_sent
		WHERE
			id = :id;`

	if _, err := tql.Exec(ctx, tx, stmt, toSessionRow(session)); err != nil {
		return err
	}

	const deleteStmt = `
		DELETE FROM
			session_player
		WHERE
			session_id = $1;`

	if _, err := tql.Exec(ctx, tx, deleteStmt, session.ID); err != nil {
		return err
	}

	return r.insertPlayers(ctx, tx, session)
}

func (r *Repository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	const stmt = `
		DELETE FROM
			game_session
		WHERE
			id = $1;`

	_, err := tql.Exec(ctx, tx, stmt, id)
	return err
}

// ListIDsForUser returns ids of sessions the user created or plays in,
// newest play date first.
func (r *Repository) ListIDsForUser(ctx context.Context, q tql.Querier, userID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
		SELECT
			s.id
		FROM
			game_session s
		LEFT JOIN
			session_player p ON p.session_id = s.id
		WHERE
			s.created_by = $1 OR p.user_id = $1
		GROUP BY
			s.id, s.date
		ORDER BY
			s.date DESC;`

	return tql.Query[uuid.UUID](ctx, q, query, userID)
}

func (r *Repository) insertPlayers(ctx context.Context, tx *sql.Tx, session domain.Session) error {
	const stmt = `
		INSERT INTO
			session_player (id, session_id, position, user_id, name, email, result, score, confirmed, confirmed_at, declined, declined_at, invited)
		VALUES
			(:id, :session_id, :position, :user_id, :name, :email, :result, :score, :confirmed, :confirmed_at, :declined, :declined_at, :invited);`

	for i, p := range session.Players {
		row := playerRow{
			ID:          uuid.New(),
			SessionID:   session.ID,
			Position:    i,
			Name:        p.Name,
			Email:       p.Email,
			Result:      string(p.Result),
			Score:       p.Score,
			Confirmed:   p.Confirmed,
			ConfirmedAt: p.ConfirmedAt,
			Declined:    p.Declined,
			DeclinedAt:  p.DeclinedAt,
			Invited:     p.Invited,
		}

		if p.User != nil {
			userID := p.User.ID
			row.UserID = &userID
		}

		if _, err := tql.Exec(ctx, tx, stmt, row); err != nil {
			return err
		}
	}

	return nil
}

func toSessionRow(session domain.Session) sessionRow {
	row := sessionRow{
		ID:               session.ID,
		GameID:           session.Game.ID,
		GameName:         session.Game.Name,
		Date:             session.Date,
		CreatedBy:        session.CreatedBy.ID,
		Notes:            session.Notes,
		MatchStatus:      string(session.MatchStatus),
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        session.UpdatedAt,
		LastReminderSent: session.LastReminderSent,
	}

	if session.LastEditedBy != nil {
		editorID := session.LastEditedBy.ID
		row.LastEditedBy = &editorID
	}

	return row
}
