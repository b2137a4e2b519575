package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Budget event types.
const (
	TypeCreated          = "BUDGET_CREATED"
	TypeUpdated          = "BUDGET_UPDATED"
	TypeStatusChanged    = "STATUS_CHANGED"
	TypeInstallmentFixed = "INSTALLMENT_EDITED"
	TypeExpired          = "BUDGET_EXPIRED"
)

func Insert(ctx context.Context, tx pgx.Tx, budgetID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO budget_events (id, budget_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, $6, CAST($7 AS jsonb))
`
	_, err := tx.Exec(ctx, q, uuid.NewString(), budgetID, eventType, summary, actor, occurredAt, s)
	return err
}
