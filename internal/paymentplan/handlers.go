package paymentplan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"bizfinance/internal/api"
	"bizfinance/internal/cache"
	"bizfinance/internal/metrics"
	"bizfinance/pkg/money"
)

var tracer = otel.Tracer("bizfinance/paymentplan")

// Handlers serve the live budget editor: every form change posts here and renders the result.
type Handlers struct {
	Cache           cache.Cache
	CacheTTL        time.Duration
	MaxInstallments int
	Log             logrus.FieldLogger
}

type PlanResponse struct {
	Plan     Plan `json:"plano"`
	Balanced bool `json:"parcelas_conferem"`
}

func NewPlanResponse(p Plan) PlanResponse {
	return PlanResponse{Plan: p, Balanced: p.Balanced()}
}

func (h Handlers) Compute(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := in.Validate(h.MaxInstallments); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, span := tracer.Start(r.Context(), "paymentplan.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("mode", string(in.Mode)),
		attribute.Int("installments", in.InstallmentCount),
	)

	key := cacheKey(in)
	if raw, ok := h.cacheGet(ctx, key); ok {
		var p Plan
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("cache_hit", true))
			api.WriteJSON(w, http.StatusOK, NewPlanResponse(p))
			return
		}
	}
	metrics.PlanCacheLookups.WithLabelValues("miss").Inc()

	p := Compute(in)
	Observe("compute", p)
	h.cacheSet(ctx, key, p)

	api.WriteJSON(w, http.StatusOK, NewPlanResponse(p))
}

type EditRequest struct {
	Plan   Plan            `json:"plano"`
	Index  int             `json:"indice"`
	Amount decimal.Decimal `json:"valor"`
}

func (h Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if err := req.Plan.Input().Validate(h.MaxInstallments); err != nil {
		writeValidationError(w, err)
		return
	}

	_, span := tracer.Start(r.Context(), "paymentplan.edit")
	defer span.End()
	span.SetAttributes(attribute.Int("index", req.Index))

	p, err := ApplyManualEdit(req.Plan, req.Index, req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	Observe("edit", p)
	metrics.ManualEdits.Inc()

	api.WriteJSON(w, http.StatusOK, NewPlanResponse(p))
}

type SwitchModeRequest struct {
	Plan Plan `json:"plano"`
	Mode Mode `json:"forma_pagamento"`
}

func (h Handlers) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req SwitchModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if _, err := ParseMode(string(req.Mode)); err != nil {
		api.WriteError(w, http.StatusBadRequest, "PAYMENT_MODE_INVALID", err.Error())
		return
	}

	_, span := tracer.Start(r.Context(), "paymentplan.switch_mode")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(req.Mode)))

	p := SwitchMode(req.Plan, req.Mode)
	if err := p.Input().Validate(h.MaxInstallments); err != nil {
		writeValidationError(w, err)
		return
	}
	Observe("switch_mode", p)

	api.WriteJSON(w, http.StatusOK, NewPlanResponse(p))
}

func (h Handlers) cacheGet(ctx context.Context, key string) (string, bool) {
	if h.Cache == nil {
		return "", false
	}
	return h.Cache.Get(ctx, key)
}

func (h Handlers) cacheSet(ctx context.Context, key string, p Plan) {
	if h.Cache == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := h.Cache.Set(ctx, key, string(b), h.CacheTTL); err != nil && h.Log != nil {
		h.Log.WithError(err).Warn("plan cache set failed")
	}
}

// cacheKey hashes the input with every amount rounded to the cent, so "1000" and
// "1000.00" share an entry.
func cacheKey(in Input) string {
	in.TotalAmount = money.Round(in.TotalAmount)
	if in.ExistingInstallments != nil {
		existing := make([]Installment, len(in.ExistingInstallments))
		for i, it := range in.ExistingInstallments {
			it.Amount = money.Round(it.Amount)
			existing[i] = it
		}
		in.ExistingInstallments = existing
	}
	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return "plan:" + hex.EncodeToString(sum[:])
}

// Observe records metrics for a plan handed back to a caller.
func Observe(operation string, p Plan) {
	metrics.PlanComputations.WithLabelValues(operation, string(p.Mode)).Inc()
	if !p.Balanced() {
		metrics.UnbalancedPlans.WithLabelValues(operation).Inc()
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
		return
	}
	api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
}
