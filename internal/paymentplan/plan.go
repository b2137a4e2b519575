package paymentplan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bizfinance/pkg/money"
)

type Mode string

const (
	ModeCashUpfront                 Mode = "avista"
	ModeDownPaymentPlusInstallments Mode = "entrada_parcelas"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCashUpfront, ModeDownPaymentPlusInstallments:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown payment mode: %s", s)
	}
}

// Installment is one post-down-payment charge. Number is 1-based.
type Installment struct {
	Number int             `json:"numero"`
	Amount decimal.Decimal `json:"valor"`
	Edited bool            `json:"editado"`
}

// Input is everything a recompute depends on.
type Input struct {
	TotalAmount          decimal.Decimal `json:"valor_total"`
	Mode                 Mode            `json:"forma_pagamento"`
	DownPaymentPercent   int             `json:"entrada_percentual"`
	InstallmentCount     int             `json:"num_parcelas"`
	ExistingInstallments []Installment   `json:"parcelas,omitempty"`
}

// Plan is the derived payment schedule. It is embedded as a snapshot in saved budgets,
// so the JSON names follow the budget document.
type Plan struct {
	Mode               Mode            `json:"forma_pagamento"`
	TotalAmount        decimal.Decimal `json:"valor_total"`
	DownPaymentPercent int             `json:"entrada_percentual"`
	DownPaymentAmount  decimal.Decimal `json:"valor_entrada"`
	InstallmentCount   int             `json:"num_parcelas"`
	Installments       []Installment   `json:"parcelas"`
	TermsText          string          `json:"condicoes"`
}

// InstallmentsSum is the sum of every installment amount.
func (p Plan) InstallmentsSum() decimal.Decimal {
	sum := decimal.Zero
	for _, in := range p.Installments {
		sum = sum.Add(in.Amount)
	}
	return sum
}

// Balanced reports whether down payment plus installments equals the total.
// Only a plan whose every installment was edited by hand can be unbalanced.
func (p Plan) Balanced() bool {
	if p.Mode == ModeCashUpfront {
		return p.DownPaymentAmount.Equal(p.TotalAmount)
	}
	return p.DownPaymentAmount.Add(p.InstallmentsSum()).Equal(p.TotalAmount)
}

// Input rebuilds the calculator input that would reproduce this plan.
// Installments past InstallmentCount are not part of the plan and are left out.
func (p Plan) Input() Input {
	existing := p.Installments
	if n := max(p.InstallmentCount, 0); len(existing) > n {
		existing = existing[:n]
	}
	return Input{
		TotalAmount:          p.TotalAmount,
		Mode:                 p.Mode,
		DownPaymentPercent:   p.DownPaymentPercent,
		InstallmentCount:     p.InstallmentCount,
		ExistingInstallments: existing,
	}
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks the bounds the budget editor enforces before calling the calculator.
// maxInstallments <= 0 disables the upper bound on the installment count.
func (in Input) Validate(maxInstallments int) error {
	if _, err := ParseMode(string(in.Mode)); err != nil {
		return ValidationError{Code: "PAYMENT_MODE_INVALID", Message: "forma_pagamento must be avista or entrada_parcelas"}
	}
	if in.TotalAmount.IsNegative() {
		return ValidationError{Code: "TOTAL_INVALID", Message: "valor_total must be >= 0"}
	}
	if in.Mode == ModeCashUpfront {
		return nil
	}
	if in.DownPaymentPercent < 0 || in.DownPaymentPercent > 100 {
		return ValidationError{Code: "DOWN_PAYMENT_PERCENT_INVALID", Message: "entrada_percentual must be between 0 and 100"}
	}
	if in.InstallmentCount < 1 {
		return ValidationError{Code: "INSTALLMENT_COUNT_INVALID", Message: "num_parcelas must be >= 1"}
	}
	if maxInstallments > 0 && in.InstallmentCount > maxInstallments {
		return ValidationError{Code: "INSTALLMENT_COUNT_INVALID", Message: fmt.Sprintf("num_parcelas must be <= %d", maxInstallments)}
	}
	for _, it := range in.ExistingInstallments {
		if it.Amount.IsNegative() {
			return ValidationError{Code: "INSTALLMENT_AMOUNT_INVALID", Message: "parcela valor must be >= 0"}
		}
		if it.Edited && !money.IsCents(it.Amount) {
			return ValidationError{Code: "INSTALLMENT_AMOUNT_INVALID", Message: "parcela valor must have at most 2 decimal places"}
		}
	}
	return nil
}
