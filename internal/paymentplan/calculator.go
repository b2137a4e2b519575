package paymentplan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bizfinance/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// CashUpfront builds the single-payment plan: everything is due upfront.
func CashUpfront(total decimal.Decimal) Plan {
	total = normalizeTotal(total)
	return Plan{
		Mode:              ModeCashUpfront,
		TotalAmount:       total,
		DownPaymentAmount: total,
		Installments:      []Installment{},
		TermsText:         "À vista: " + money.FormatBRL(total),
	}
}

// InstallmentPlan computes a down payment plus installmentCount installments.
//
// Rules:
//   - Installments marked edited in existing (matched by position) keep their amount,
//     rounded to the cent. Entries past installmentCount are dropped.
//   - The remainder after the down payment and the edited amounts is split evenly across
//     the other installments, floored to the cent; the last non-edited installment absorbs
//     the sub-cent delta so the plan sums exactly to total.
//   - A negative share (edits above the remainder) is clamped to zero.
//   - If every installment is edited nothing is redistributed and the plan may not sum to total.
func InstallmentPlan(total decimal.Decimal, downPaymentPercent, installmentCount int, existing []Installment) Plan {
	total = normalizeTotal(total)
	downPaymentPercent = clampPercent(downPaymentPercent)
	if installmentCount < 1 {
		installmentCount = 1
	}

	downPayment := money.Round(total.Mul(decimal.NewFromInt(int64(downPaymentPercent))).Div(hundred))
	remainder := total.Sub(downPayment)

	out := make([]Installment, installmentCount)
	editedSum := decimal.Zero
	nonEdited := make([]int, 0, installmentCount)
	for i := range out {
		out[i].Number = i + 1
		if i < len(existing) && existing[i].Edited {
			out[i].Amount = money.Round(existing[i].Amount)
			out[i].Edited = true
			editedSum = editedSum.Add(out[i].Amount)
			continue
		}
		nonEdited = append(nonEdited, i)
	}

	if len(nonEdited) > 0 {
		target := remainder.Sub(editedSum)
		per := share(target, len(nonEdited))
		for _, i := range nonEdited {
			out[i].Amount = per
		}
		delta := target.Sub(per.Mul(decimal.NewFromInt(int64(len(nonEdited)))))
		if delta.IsPositive() {
			last := nonEdited[len(nonEdited)-1]
			out[last].Amount = per.Add(delta)
		}
	}

	return Plan{
		Mode:               ModeDownPaymentPlusInstallments,
		TotalAmount:        total,
		DownPaymentPercent: downPaymentPercent,
		DownPaymentAmount:  downPayment,
		InstallmentCount:   installmentCount,
		Installments:       out,
		TermsText:          installmentTerms(downPaymentPercent, downPayment, installmentCount, share(remainder, installmentCount)),
	}
}

// ApplyManualEdit fixes the installment at index (0-based) to amount and
// redistributes the remaining balance over the installments still not edited.
// index is checked against the plan's installment count, not the length of its list.
func ApplyManualEdit(p Plan, index int, amount decimal.Decimal) (Plan, error) {
	if p.Mode != ModeDownPaymentPlusInstallments {
		return Plan{}, ValidationError{Code: "PLAN_HAS_NO_INSTALLMENTS", Message: "cash upfront plans have no installments to edit"}
	}
	count := max(p.InstallmentCount, 1)
	if index < 0 || index >= count {
		return Plan{}, ValidationError{Code: "INSTALLMENT_INDEX_INVALID", Message: fmt.Sprintf("installment index %d out of range [0,%d)", index, count)}
	}
	if amount.IsNegative() || !money.IsCents(amount) {
		return Plan{}, ValidationError{Code: "INSTALLMENT_AMOUNT_INVALID", Message: "installment amount must be >= 0 with at most 2 decimal places"}
	}

	existing := make([]Installment, count)
	copy(existing, p.Installments)
	existing[index] = Installment{Number: index + 1, Amount: amount, Edited: true}

	return InstallmentPlan(p.TotalAmount, p.DownPaymentPercent, p.InstallmentCount, existing), nil
}

// Compute recomputes the plan for the current input. It is called after every input change.
// A cash upfront plan keeps the installment configuration so switching back restores it.
func Compute(in Input) Plan {
	if in.Mode == ModeCashUpfront {
		p := CashUpfront(in.TotalAmount)
		p.DownPaymentPercent = clampPercent(in.DownPaymentPercent)
		p.InstallmentCount = max(in.InstallmentCount, 0)
		return p
	}
	return InstallmentPlan(in.TotalAmount, in.DownPaymentPercent, in.InstallmentCount, in.ExistingInstallments)
}

// SwitchMode moves a plan to another mode. Manual edits never survive a mode switch,
// including a switch to the mode the plan is already in.
func SwitchMode(p Plan, mode Mode) Plan {
	in := p.Input()
	in.Mode = mode
	in.ExistingInstallments = nil
	if mode == ModeDownPaymentPlusInstallments && in.InstallmentCount < 1 {
		in.InstallmentCount = 1
	}
	return Compute(in)
}

// share splits amount into n parts floored to the cent; negative amounts yield zero.
func share(amount decimal.Decimal, n int) decimal.Decimal {
	if n < 1 || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(n))).RoundFloor(money.Scale)
}

func normalizeTotal(total decimal.Decimal) decimal.Decimal {
	if total.IsNegative() {
		return decimal.Zero
	}
	return money.Round(total)
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
