package budget

import (
	"strings"
	"time"

	"bizfinance/internal/paymentplan"
	"bizfinance/internal/settings"
)

const dateLayout = "2006-01-02"

// Budget is a quote (orçamento). The payment plan is embedded so its fields
// (forma_pagamento, entrada_percentual, valor_entrada, num_parcelas, parcelas)
// sit at the top level of the document, next to valor_total.
type Budget struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"empresa_id"`
	Number      int            `json:"numero"`
	Title       string         `json:"titulo"`
	ClientName  string         `json:"cliente_nome"`
	ClientPhone string         `json:"cliente_telefone,omitempty"`
	ClientEmail string         `json:"cliente_email,omitempty"`
	Services    []ServiceItem  `json:"itens_servico"`
	Materials   []MaterialItem `json:"itens_material"`
	paymentplan.Plan
	PlanBalanced bool       `json:"parcelas_conferem"`
	Status       Status     `json:"status"`
	ValidUntil   *time.Time `json:"validade,omitempty"`
	Notes        string     `json:"observacoes,omitempty"`
	CreatedAt    time.Time  `json:"criado_em"`
	UpdatedAt    time.Time  `json:"atualizado_em"`
}

// Overdue reports whether validade ended before today. A budget is still valid
// on its validade date and expires the day after.
func (b Budget) Overdue(today time.Time) bool {
	return b.ValidUntil != nil && b.ValidUntil.Format(dateLayout) < today.Format(dateLayout)
}

// ShouldExpire selects the same budgets ExpireOverdue moves to expirado.
func (b Budget) ShouldExpire(today time.Time) bool {
	return b.Status == StatusSent && b.Overdue(today)
}

// Draft is the create/update payload. Nil plan fields keep the previous value
// (or the company default on create).
type Draft struct {
	Title              string                    `json:"titulo"`
	ClientName         string                    `json:"cliente_nome"`
	ClientPhone        string                    `json:"cliente_telefone"`
	ClientEmail        string                    `json:"cliente_email"`
	Services           []ServiceItem             `json:"itens_servico"`
	Materials          []MaterialItem            `json:"itens_material"`
	Mode               *paymentplan.Mode         `json:"forma_pagamento"`
	DownPaymentPercent *int                      `json:"entrada_percentual"`
	InstallmentCount   *int                      `json:"num_parcelas"`
	Installments       []paymentplan.Installment `json:"parcelas"`
	ValidUntil         string                    `json:"validade"`
	Notes              string                    `json:"observacoes"`
}

func (d Draft) validUntil() (*time.Time, error) {
	s := strings.TrimSpace(d.ValidUntil)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, paymentplan.ValidationError{Code: "VALID_UNTIL_INVALID", Message: "validade must be YYYY-MM-DD"}
	}
	return &t, nil
}

// BuildPlan resolves the plan configuration from the draft, the previous plan and the
// company defaults, then recomputes it for total. Edits survive only while the mode is
// unchanged; installments sent in the draft replace the stored ones.
func BuildPlan(d Draft, previous *paymentplan.Plan, defaults settings.PaymentDefaults) paymentplan.Input {
	in := paymentplan.Input{
		Mode:               defaults.Mode,
		DownPaymentPercent: defaults.DownPaymentPercent,
		InstallmentCount:   defaults.InstallmentCount,
	}
	if previous != nil {
		in.Mode = previous.Mode
		in.DownPaymentPercent = previous.DownPaymentPercent
		in.InstallmentCount = previous.InstallmentCount
		in.ExistingInstallments = previous.Installments
	}

	if d.Mode != nil && *d.Mode != in.Mode {
		in.Mode = *d.Mode
		in.ExistingInstallments = nil
	}
	if d.DownPaymentPercent != nil {
		in.DownPaymentPercent = *d.DownPaymentPercent
	}
	if d.InstallmentCount != nil {
		in.InstallmentCount = *d.InstallmentCount
	}
	if d.Installments != nil && (d.Mode == nil || previous == nil || *d.Mode == previous.Mode) {
		in.ExistingInstallments = d.Installments
	}
	if in.Mode == paymentplan.ModeDownPaymentPlusInstallments && in.InstallmentCount < 1 {
		in.InstallmentCount = 1
	}

	in.TotalAmount = ItemsTotal(d.Services, d.Materials)
	return in
}

// Apply copies the draft's descriptive fields onto b and recomputes its plan.
func (b *Budget) Apply(d Draft, in paymentplan.Input) error {
	validUntil, err := d.validUntil()
	if err != nil {
		return err
	}
	b.Title = strings.TrimSpace(d.Title)
	b.ClientName = strings.TrimSpace(d.ClientName)
	b.ClientPhone = strings.TrimSpace(d.ClientPhone)
	b.ClientEmail = strings.TrimSpace(d.ClientEmail)
	b.Services = nonNil(d.Services)
	b.Materials = nonNil(d.Materials)
	b.ValidUntil = validUntil
	b.Notes = d.Notes
	b.SetPlan(paymentplan.Compute(in))
	return nil
}

func (b *Budget) SetPlan(p paymentplan.Plan) {
	b.Plan = p
	b.PlanBalanced = p.Balanced()
}

// Validate checks the draft and the resolved plan input before anything is stored.
func (d Draft) Validate(in paymentplan.Input, maxInstallments int) error {
	if strings.TrimSpace(d.ClientName) == "" {
		return paymentplan.ValidationError{Code: "CLIENT_REQUIRED", Message: "cliente_nome is required"}
	}
	if err := validateItems(d.Services, d.Materials); err != nil {
		return err
	}
	if _, err := d.validUntil(); err != nil {
		return err
	}
	return in.Validate(maxInstallments)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
