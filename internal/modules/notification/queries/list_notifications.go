package queries

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gamenight/tracker/internal/modules/core"
	"github.com/gamenight/tracker/internal/modules/notification/domain"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

const (
	StatusAll    = "all"
	StatusUnread = "unread"
	StatusRead   = "read"

	defaultLimit = 20
	maxLimit     = 100
)

type ListNotificationsQuery struct {
	UserID uuid.UUID
	Status string
	Page   int
	Limit  int
}

func (q ListNotificationsQuery) Validate() error {
	if q.UserID == uuid.Nil {
		return fmt.Errorf("invalid UserID - '%s'", q.UserID)
	}

	switch q.Status {
	case StatusAll, StatusUnread, StatusRead:
	default:
		return fmt.Errorf("invalid status - '%s'", q.Status)
	}

	if q.Page < 1 {
		return fmt.Errorf("invalid page - %d", q.Page)
	}

	if q.Limit < 1 || q.Limit > maxLimit {
		return fmt.Errorf("invalid limit - %d", q.Limit)
	}

	return nil
}

type NotificationModel struct {
	ID          uuid.UUID  `json:"id"`
	Type        domain.Type `json:"type"`
	EntityID    *uuid.UUID `json:"entityId,omitempty"`
	Sender      *uuid.UUID `json:"sender,omitempty"`
	SenderName  string     `json:"senderName,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type ListNotificationsResponse struct {
	Notifications []NotificationModel
	Meta          core.Meta
}

func HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := ListNotificationsQuery{
		UserID: core.CurrentIdentity(ctx).UserID,
		Status: StatusAll,
		Page:   1,
		Limit:  defaultLimit,
	}

	if status := r.URL.Query().Get("status"); status != "" {
		query.Status = status
	}

	if page := r.URL.Query().Get("page"); page != "" {
		parsed, err := strconv.Atoi(page)
		if err != nil {
			core.WriteBadRequest(w, r, fmt.Errorf("invalid format for query param 'page'"))
			return
		}
		query.Page = parsed
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			core.WriteBadRequest(w, r, fmt.Errorf("invalid format for query param 'limit'"))
			return
		}
		query.Limit = parsed
	}

	response, err := mediator.Send[ListNotificationsQuery, ListNotificationsResponse](ctx, query)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteResponse(w, r, http.StatusOK, core.Envelope{
		Data: response.Notifications,
		Meta: response.Meta,
	})
}

type ListNotificationsQueryHandler struct {
	db *sql.DB
}

func NewListNotificationsQueryHandler(db *sql.DB) *ListNotificationsQueryHandler {
	return &ListNotificationsQueryHandler{db}
}

// Handle pages through the recipient's ledger. The unread count is always
// derived with a count over is_read = false - it is never stored separately,
// so the navigation badge cannot drift from the ledger.
func (h *ListNotificationsQueryHandler) Handle(
	ctx context.Context,
	request ListNotificationsQuery,
) (ListNotificationsResponse, error) {
	query := `
		SELECT
			*
		FROM
			notification
		WHERE
			recipient = $1`

	switch request.Status {
	case StatusUnread:
		query += " AND is_read = false"
	case StatusRead:
		query += " AND is_read = true"
	}

	countQuery := fmt.Sprintf("SELECT count(id) FROM (%s) AS filtered;", query)

	total, err := tql.QuerySingle[int](ctx, h.db, countQuery, request.UserID)
	if err != nil {
		return ListNotificationsResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to count notifications")
	}

	const unreadQuery = `
		SELECT
			count(id)
		FROM
			notification
		WHERE
			recipient = $1 AND is_read = false;`

	unread, err := tql.QuerySingle[int](ctx, h.db, unreadQuery, request.UserID)
	if err != nil {
		return ListNotificationsResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to count unread notifications")
	}

	query += fmt.Sprintf(
		" ORDER BY created_at DESC LIMIT %d OFFSET %d;",
		request.Limit,
		(request.Page-1)*request.Limit,
	)

	notifications, err := tql.Query[domain.Notification](ctx, h.db, query, request.UserID)
	if err != nil {
		return ListNotificationsResponse{}, core.NewCommandError(http.StatusInternalServerError, err, "failed to load notifications")
	}

	models := core.Map(notifications, func(n domain.Notification) NotificationModel {
		return NotificationModel{
			ID:          n.ID,
			Type:        n.Type,
			EntityID:    n.EntityID,
			Sender:      n.Sender,
			SenderName:  n.SenderName,
			Title:       n.DisplayTitle(),
			Description: n.DisplayDescription(),
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		}
	})

	return ListNotificationsResponse{
		Notifications: models,
		Meta: core.Meta{
			Page:        request.Page,
			Limit:       request.Limit,
			Total:       total,
			UnreadCount: unread,
		},
	}, nil
}
