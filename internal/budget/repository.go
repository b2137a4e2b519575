package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectColumns = `
id, company_id, number, title, client_name, client_phone, client_email,
services, materials, total_amount::text, payment_plan, status, valid_until, notes,
created_at, updated_at
`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (*Budget, error) {
	var (
		b                        Budget
		services, materials, pln []byte
		total                    string
	)
	if err := row.Scan(
		&b.ID, &b.CompanyID, &b.Number, &b.Title, &b.ClientName, &b.ClientPhone, &b.ClientEmail,
		&services, &materials, &total, &pln, &b.Status, &b.ValidUntil, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(services, &b.Services); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	if err := json.Unmarshal(materials, &b.Materials); err != nil {
		return nil, fmt.Errorf("decode materials: %w", err)
	}
	if err := json.Unmarshal(pln, &b.Plan); err != nil {
		return nil, fmt.Errorf("decode payment plan: %w", err)
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("decode total: %w", err)
	}
	b.TotalAmount = amount
	b.PlanBalanced = b.Plan.Balanced()
	return &b, nil
}

// ListByCompany returns the company's budgets, newest first. An empty status lists all.
func (r *Repository) ListByCompany(ctx context.Context, companyID string, status Status) ([]Budget, error) {
	q := `SELECT ` + selectColumns + `
FROM budgets
WHERE company_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, companyID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, companyID, id string) (*Budget, error) {
	q := `SELECT ` + selectColumns + `
FROM budgets
WHERE company_id = $1 AND id = $2
`
	return scanBudget(r.db.QueryRow(ctx, q, companyID, id))
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, companyID, id string) (*Budget, error) {
	q := `SELECT ` + selectColumns + `
FROM budgets
WHERE company_id = $1 AND id = $2
FOR UPDATE
`
	return scanBudget(tx.QueryRow(ctx, q, companyID, id))
}

type encoded struct {
	services, materials, plan string
}

func encode(b *Budget) (encoded, error) {
	s, err := json.Marshal(b.Services)
	if err != nil {
		return encoded{}, err
	}
	m, err := json.Marshal(b.Materials)
	if err != nil {
		return encoded{}, err
	}
	p, err := json.Marshal(b.Plan)
	if err != nil {
		return encoded{}, err
	}
	return encoded{services: string(s), materials: string(m), plan: string(p)}, nil
}

// Insert stores a new budget; ID, timestamps and status are assigned here.
func Insert(ctx context.Context, tx pgx.Tx, b *Budget) error {
	enc, err := encode(b)
	if err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = StatusDraft
	}
	const q = `
INSERT INTO budgets (id, company_id, number, title, client_name, client_phone, client_email,
                     services, materials, total_amount, payment_plan, status, valid_until, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, CAST($8 AS jsonb), CAST($9 AS jsonb), $10::numeric, CAST($11 AS jsonb), $12, $13, $14)
RETURNING created_at, updated_at
`
	return tx.QueryRow(ctx, q,
		b.ID, b.CompanyID, b.Number, b.Title, b.ClientName, b.ClientPhone, b.ClientEmail,
		enc.services, enc.materials, b.TotalAmount.String(), enc.plan, string(b.Status), b.ValidUntil, b.Notes,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func Update(ctx context.Context, tx pgx.Tx, b *Budget) error {
	enc, err := encode(b)
	if err != nil {
		return err
	}
	const q = `
UPDATE budgets
SET title = $3, client_name = $4, client_phone = $5, client_email = $6,
    services = CAST($7 AS jsonb), materials = CAST($8 AS jsonb), total_amount = $9::numeric,
    payment_plan = CAST($10 AS jsonb), valid_until = $11, notes = $12, updated_at = NOW()
WHERE company_id = $1 AND id = $2
RETURNING updated_at
`
	return tx.QueryRow(ctx, q,
		b.CompanyID, b.ID, b.Title, b.ClientName, b.ClientPhone, b.ClientEmail,
		enc.services, enc.materials, b.TotalAmount.String(), enc.plan, b.ValidUntil, b.Notes,
	).Scan(&b.UpdatedAt)
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, companyID, id string, next Status) error {
	const q = `
UPDATE budgets
SET status = $1, updated_at = NOW()
WHERE company_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, string(next), companyID, id)
	return err
}

func Delete(ctx context.Context, tx pgx.Tx, companyID, id string) error {
	const q = `DELETE FROM budgets WHERE company_id = $1 AND id = $2`
	_, err := tx.Exec(ctx, q, companyID, id)
	return err
}

type Expired struct {
	ID        string
	CompanyID string
}

// ExpireOverdue moves every sent budget whose validity ended before today to expirado.
// The WHERE clause is Budget.ShouldExpire in SQL; keep them in step.
func ExpireOverdue(ctx context.Context, tx pgx.Tx, today time.Time) ([]Expired, error) {
	const q = `
UPDATE budgets
SET status = $1, updated_at = NOW()
WHERE status = $2 AND valid_until IS NOT NULL AND valid_until < $3::date
RETURNING id, company_id
`
	rows, err := tx.Query(ctx, q, string(StatusExpired), string(StatusSent), today.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expired
	for rows.Next() {
		var e Expired
		if err := rows.Scan(&e.ID, &e.CompanyID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
