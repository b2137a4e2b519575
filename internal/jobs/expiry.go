package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"bizfinance/internal/audit"
	"bizfinance/internal/budget"
	"bizfinance/internal/events"
	"bizfinance/internal/metrics"
	"bizfinance/pkg/db"
)

const systemActor = "system"

// BudgetExpiry moves sent budgets past their validade to expirado.
type BudgetExpiry struct {
	DB  *pgxpool.Pool
	Log logrus.FieldLogger
	Now func() time.Time
}

func (j *BudgetExpiry) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// Run expires overdue budgets and records one event and audit row per budget,
// all in a single transaction.
func (j *BudgetExpiry) Run(ctx context.Context) (int, error) {
	now := j.now()
	var expired []budget.Expired
	err := db.WithTx(ctx, j.DB, func(tx pgx.Tx) error {
		var err error
		expired, err = budget.ExpireOverdue(ctx, tx, now)
		if err != nil {
			return fmt.Errorf("expire budgets: %w", err)
		}
		for _, e := range expired {
			data := map[string]any{"from": budget.StatusSent, "to": budget.StatusExpired}
			if err := events.Insert(ctx, tx, e.ID, events.TypeExpired, "Orçamento expirado", systemActor, now, data); err != nil {
				return fmt.Errorf("insert expiry event: %w", err)
			}
			id := e.ID
			if err := audit.Insert(ctx, tx, e.CompanyID, &id, events.TypeExpired, systemActor, data); err != nil {
				return fmt.Errorf("insert expiry audit: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.ExpiredBudgets.Add(float64(len(expired)))
	if n := len(expired); n > 0 {
		metrics.BudgetTransitions.WithLabelValues(string(budget.StatusSent), string(budget.StatusExpired)).Add(float64(n))
	}
	return len(expired), nil
}

// Schedule registers the job on a new cron scheduler. The caller starts and stops it.
func Schedule(spec string, job *BudgetExpiry) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		n, err := job.Run(ctx)
		if err != nil {
			job.Log.WithError(err).Error("budget expiry failed")
			return
		}
		job.Log.WithField("expired", n).Info("budget expiry finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule budget expiry %q: %w", spec, err)
	}
	return c, nil
}
