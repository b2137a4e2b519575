package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bizfinance/internal/api"
	"bizfinance/internal/audit"
	"bizfinance/internal/company"
	"bizfinance/internal/events"
	"bizfinance/internal/metrics"
	"bizfinance/internal/paymentplan"
	"bizfinance/internal/settings"
	"bizfinance/pkg/db"
)

type DefaultsSource interface {
	Payment(ctx context.Context, companyID string, limit int) (settings.PaymentDefaults, error)
}

type Handlers struct {
	DB              *pgxpool.Pool
	Budgets         *Repository
	Defaults        DefaultsSource
	MaxInstallments int
	Log             logrus.FieldLogger
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	c := api.CompanyFromContext(r.Context())
	if c == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
		return
	}

	var status Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := ParseStatus(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
			return
		}
		status = s
	}

	items, err := h.Budgets.ListByCompany(r.Context(), c.ID, status)
	if err != nil {
		h.Log.WithError(err).WithField("companyId", c.ID).Error("list budgets")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	c := api.CompanyFromContext(r.Context())
	if c == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
		return
	}

	b, err := h.Budgets.GetByID(r.Context(), c.ID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	c := api.RequireCompany(w, r)
	if c == nil {
		return
	}

	var d Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	defaults, err := h.Defaults.Payment(r.Context(), c.ID, h.MaxInstallments)
	if err != nil {
		h.Log.WithError(err).WithField("companyId", c.ID).Error("load payment defaults")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	in := BuildPlan(d, nil, defaults)
	if err := d.Validate(in, h.MaxInstallments); err != nil {
		writeValidationError(w, err)
		return
	}

	b := &Budget{CompanyID: c.ID, Status: StatusDraft}
	if err := b.Apply(d, in); err != nil {
		writeValidationError(w, err)
		return
	}
	paymentplan.Observe("budget_create", b.Plan)

	actor := api.ActorFromContext(r.Context())
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		n, err := company.NextBudgetNumber(r.Context(), tx, c.ID)
		if err != nil {
			return err
		}
		b.Number = n
		if err := Insert(r.Context(), tx, b); err != nil {
			return err
		}
		return record(r.Context(), tx, b, events.TypeCreated, fmt.Sprintf("Orçamento #%d criado", b.Number), actor,
			map[string]any{"valor_total": b.TotalAmount, "forma_pagamento": b.Mode})
	})
	if err != nil {
		h.Log.WithError(err).WithField("companyId", c.ID).Error("create budget")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, b)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	c := api.RequireCompany(w, r)
	if c == nil {
		return
	}
	id := chi.URLParam(r, "id")

	var d Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	actor := api.ActorFromContext(r.Context())
	var out *Budget
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, c.ID, id)
		if err != nil {
			return err
		}
		if !b.Status.Editable() {
			api.WriteError(w, http.StatusConflict, "BUDGET_LOCKED", "approved budgets cannot be edited")
			return pgx.ErrTxCommitRollback
		}

		previous := b.Plan
		in := BuildPlan(d, &previous, settings.PaymentDefaults{})
		if err := d.Validate(in, h.MaxInstallments); err != nil {
			writeValidationError(w, err)
			return pgx.ErrTxCommitRollback
		}
		if err := b.Apply(d, in); err != nil {
			writeValidationError(w, err)
			return pgx.ErrTxCommitRollback
		}
		paymentplan.Observe("budget_update", b.Plan)

		if err := Update(r.Context(), tx, b); err != nil {
			return err
		}
		out = b
		return record(r.Context(), tx, b, events.TypeUpdated, "Orçamento atualizado", actor,
			map[string]any{"valor_total": b.TotalAmount, "forma_pagamento": b.Mode, "parcelas_conferem": b.PlanBalanced})
	})
	if err != nil {
		h.writeTxError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, out)
}

type EditInstallmentRequest struct {
	Amount decimal.Decimal `json:"valor"`
}

// EditInstallment applies a manual amount to one installment of a saved budget.
// The index in the URL is 0-based.
func (h Handlers) EditInstallment(w http.ResponseWriter, r *http.Request) {
	c := api.RequireCompany(w, r)
	if c == nil {
		return
	}
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid installment index")
		return
	}

	var req EditInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	actor := api.ActorFromContext(r.Context())
	var out *Budget
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, c.ID, id)
		if err != nil {
			return err
		}
		if !b.Status.Editable() {
			api.WriteError(w, http.StatusConflict, "BUDGET_LOCKED", "approved budgets cannot be edited")
			return pgx.ErrTxCommitRollback
		}

		p, err := paymentplan.ApplyManualEdit(b.Plan, index, req.Amount)
		if err != nil {
			writeValidationError(w, err)
			return pgx.ErrTxCommitRollback
		}
		b.SetPlan(p)
		paymentplan.Observe("budget_edit", p)
		metrics.ManualEdits.Inc()

		if err := Update(r.Context(), tx, b); err != nil {
			return err
		}
		out = b
		return record(r.Context(), tx, b, events.TypeInstallmentFixed, fmt.Sprintf("Parcela %d alterada", index+1), actor,
			map[string]any{"numero": index + 1, "valor": req.Amount, "parcelas_conferem": b.PlanBalanced})
	})
	if err != nil {
		h.writeTxError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, out)
}

type PatchStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	c := api.RequireCompany(w, r)
	if c == nil {
		return
	}
	id := chi.URLParam(r, "id")

	var req PatchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	actor := api.ActorFromContext(r.Context())
	var from Status
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, c.ID, id)
		if err != nil {
			return err
		}
		if !CanTransition(b.Status, next) {
			api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", "invalid state transition")
			return pgx.ErrTxCommitRollback
		}
		now := time.Now()
		switch {
		case next == StatusSent && b.Overdue(now):
			api.WriteError(w, http.StatusConflict, "VALID_UNTIL_PAST", "validade has already passed")
			return pgx.ErrTxCommitRollback
		case next == StatusApproved && b.ShouldExpire(now):
			api.WriteError(w, http.StatusConflict, "BUDGET_OVERDUE", "validade passed before approval")
			return pgx.ErrTxCommitRollback
		}
		from = b.Status

		if err := UpdateStatus(r.Context(), tx, c.ID, b.ID, next); err != nil {
			return err
		}
		return record(r.Context(), tx, b, events.TypeStatusChanged, "Status alterado", actor,
			map[string]any{"from": from, "to": next})
	})
	if err != nil {
		h.writeTxError(w, err)
		return
	}

	metrics.BudgetTransitions.WithLabelValues(string(from), string(next)).Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	c := api.RequireCompany(w, r)
	if c == nil {
		return
	}
	id := chi.URLParam(r, "id")

	actor := api.ActorFromContext(r.Context())
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		b, err := GetForUpdate(r.Context(), tx, c.ID, id)
		if err != nil {
			return err
		}
		if b.Status == StatusApproved {
			api.WriteError(w, http.StatusConflict, "BUDGET_LOCKED", "approved budgets cannot be deleted")
			return pgx.ErrTxCommitRollback
		}
		if err := Delete(r.Context(), tx, c.ID, b.ID); err != nil {
			return err
		}
		// budget_id stays on the audit row; the events go with the budget.
		return audit.Insert(r.Context(), tx, c.ID, &b.ID, "BUDGET_DELETED", actor, map[string]any{"numero": b.Number})
	})
	if err != nil {
		h.writeTxError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	c := api.CompanyFromContext(r.Context())
	if c == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
		return
	}
	id := chi.URLParam(r, "id")

	// Ensure the budget belongs to the company.
	if _, err := h.Budgets.GetByID(r.Context(), c.ID, id); err != nil {
		h.writeLookupError(w, err)
		return
	}

	evs, err := events.ListByBudget(r.Context(), h.DB, id)
	if err != nil {
		h.Log.WithError(err).WithField("budgetId", id).Error("list budget events")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": evs})
}

// record writes the budget event and its audit row in the caller's transaction.
func record(ctx context.Context, tx pgx.Tx, b *Budget, eventType, summary, actor string, data map[string]any) error {
	if err := events.Insert(ctx, tx, b.ID, eventType, summary, actor, time.Now(), data); err != nil {
		return err
	}
	return audit.Insert(ctx, tx, b.CompanyID, &b.ID, eventType, actor, data)
}

func (h Handlers) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, pgx.ErrNoRows) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "budget not found")
		return
	}
	h.Log.WithError(err).Error("load budget")
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

// writeTxError handles a db.WithTx failure. pgx.ErrTxCommitRollback means the
// closure already wrote the response.
func (h Handlers) writeTxError(w http.ResponseWriter, err error) {
	if errors.Is(err, pgx.ErrTxCommitRollback) {
		return
	}
	h.writeLookupError(w, err)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr paymentplan.ValidationError
	if errors.As(err, &verr) {
		api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
}
