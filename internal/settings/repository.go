package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kindPayment = "payment"

type Record struct {
	CompanyID string          `json:"companyId"`
	Config    json.RawMessage `json:"config"`
	UpdatedAt string          `json:"updatedAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UpsertPayment(ctx context.Context, companyID string, cfg json.RawMessage) (*Record, error) {
	const q = `
INSERT INTO company_settings (company_id, kind, config)
VALUES ($1, $2, $3)
ON CONFLICT (company_id, kind) DO UPDATE SET
  config = EXCLUDED.config,
  updated_at = NOW()
RETURNING company_id, config, updated_at::text
`
	rec := &Record{}
	if err := r.db.QueryRow(ctx, q, companyID, kindPayment, cfg).Scan(&rec.CompanyID, &rec.Config, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

// Payment returns the company's payment defaults, or Fallback when none were saved.
func (r *Repository) Payment(ctx context.Context, companyID string, limit int) (PaymentDefaults, error) {
	const q = `
SELECT config
FROM company_settings
WHERE company_id = $1 AND kind = $2
`
	var raw json.RawMessage
	if err := r.db.QueryRow(ctx, q, companyID, kindPayment).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fallback(limit), nil
		}
		return PaymentDefaults{}, err
	}
	return ParseAndValidate(raw, limit)
}
