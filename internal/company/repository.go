package company

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Company, error) {
	const q = `
SELECT id, name, COALESCE(document,''), subscription_status, created_at
FROM companies
WHERE id = $1
`
	c := &Company{}
	if err := r.db.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Document, &c.SubscriptionStatus, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, name, document string) (*Company, error) {
	const q = `
INSERT INTO companies (name, document)
VALUES ($1, NULLIF($2, ''))
RETURNING id, name, COALESCE(document,''), subscription_status, created_at
`
	c := &Company{}
	if err := r.db.QueryRow(ctx, q, name, document).Scan(
		&c.ID, &c.Name, &c.Document, &c.SubscriptionStatus, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return c, nil
}

// NextBudgetNumber bumps the per-company budget sequence inside tx.
func NextBudgetNumber(ctx context.Context, tx pgx.Tx, companyID string) (int, error) {
	const q = `
UPDATE companies
SET budget_seq = budget_seq + 1
WHERE id = $1
RETURNING budget_seq
`
	var n int
	err := tx.QueryRow(ctx, q, companyID).Scan(&n)
	return n, err
}
