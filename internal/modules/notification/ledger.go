package notification

import (
	"context"
	"fmt"

	"github.com/gamenight/tracker/internal/modules/notification/domain"

	"github.com/eskrenkovic/tql"
)

// Ledger appends workflow events to the notification table. Appends run on
// the caller's executor, so a session mutation and its fan-out commit in the
// same transaction.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(ctx context.Context, e tql.Executor, entries ...domain.Notification) error {
	const stmt = `
		INSERT INTO
			notification (id, recipient, type, entity_id, sender, sender_name, title, description, is_read, created_at)
		VALUES
			(:id, :recipient, :type, :entity_id, :sender, :sender_name, :title, :description, :is_read, :created_at);`

	for _, n := range entries {
		if !n.Type.Valid() {
			return fmt.Errorf("unknown notification type: %s", n.Type)
		}

		if _, err := tql.Exec(ctx, e, stmt, n); err != nil {
			return err
		}
	}

	return nil
}
