package paymentplan

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s %v", want, got, msgAndArgs)
}

func planTotal(p Plan) decimal.Decimal {
	return p.DownPaymentAmount.Add(p.InstallmentsSum())
}

func TestInstallmentPlan_DownPaymentSplitsRemainder(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 30, 2, nil)

	assert.Equal(t, ModeDownPaymentPlusInstallments, p.Mode)
	assertAmount(t, "300", p.DownPaymentAmount)
	require.Len(t, p.Installments, 2)
	for i, in := range p.Installments {
		assert.Equal(t, i+1, in.Number)
		assert.False(t, in.Edited)
		assertAmount(t, "350", in.Amount)
	}
	assert.Equal(t, "Entrada (30%): R$ 300,00 + 2 parcela(s)", p.TermsText)
	assert.True(t, p.Balanced())
}

func TestApplyManualEdit_RedistributesRemainder(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 30, 2, nil)

	got, err := ApplyManualEdit(p, 0, dec("500"))
	require.NoError(t, err)

	require.Len(t, got.Installments, 2)
	assertAmount(t, "500", got.Installments[0].Amount)
	assert.True(t, got.Installments[0].Edited)
	assertAmount(t, "200", got.Installments[1].Amount)
	assert.False(t, got.Installments[1].Edited)
	assert.True(t, got.Balanced())

	// the input plan is not mutated
	assert.False(t, p.Installments[0].Edited)
	assertAmount(t, "350", p.Installments[0].Amount)
}

func TestInstallmentPlan_EvenSplitWithoutDownPayment(t *testing.T) {
	p := InstallmentPlan(dec("999.99"), 0, 3, nil)

	assertAmount(t, "0", p.DownPaymentAmount)
	for _, in := range p.Installments {
		assertAmount(t, "333.33", in.Amount)
	}
	assertAmount(t, "999.99", planTotal(p))
	assert.Equal(t, "3x de R$ 333,33", p.TermsText)
}

func TestInstallmentPlan_LastInstallmentAbsorbsRounding(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 3, nil)

	assertAmount(t, "333.33", p.Installments[0].Amount)
	assertAmount(t, "333.33", p.Installments[1].Amount)
	assertAmount(t, "333.34", p.Installments[2].Amount)
	assertAmount(t, "1000", planTotal(p))
}

func TestInstallmentPlan_AbsorbedByLastNonEdited(t *testing.T) {
	existing := []Installment{
		{Number: 1, Amount: dec("0"), Edited: false},
		{Number: 2, Amount: dec("0"), Edited: false},
		{Number: 3, Amount: dec("100"), Edited: true},
	}
	p := InstallmentPlan(dec("1000"), 10, 3, existing)

	// 900 - 100 edited = 800 over two installments
	assertAmount(t, "400", p.Installments[0].Amount)
	assertAmount(t, "400", p.Installments[1].Amount)
	assertAmount(t, "100", p.Installments[2].Amount)
	assert.True(t, p.Installments[2].Edited)

	p = InstallmentPlan(dec("100"), 0, 4, []Installment{{Number: 1}, {Number: 2}, {Number: 3}, {Number: 4, Amount: dec("0.02"), Edited: true}})
	assertAmount(t, "33.32", p.Installments[0].Amount)
	assertAmount(t, "33.32", p.Installments[1].Amount)
	assertAmount(t, "33.34", p.Installments[2].Amount)
	assertAmount(t, "0.02", p.Installments[3].Amount)
	assertAmount(t, "100", planTotal(p))
}

func TestCashUpfront(t *testing.T) {
	p := CashUpfront(dec("1500"))

	assert.Equal(t, ModeCashUpfront, p.Mode)
	assertAmount(t, "1500", p.DownPaymentAmount)
	assert.Empty(t, p.Installments)
	assert.NotNil(t, p.Installments)
	assert.Equal(t, "À vista: R$ 1.500,00", p.TermsText)
	assert.True(t, p.Balanced())

	zero := CashUpfront(decimal.Zero)
	assertAmount(t, "0", zero.DownPaymentAmount)
	assert.Equal(t, "À vista: R$ 0,00", zero.TermsText)
}

func TestInstallmentPlan_FullDownPayment(t *testing.T) {
	p := InstallmentPlan(dec("750.50"), 100, 1, nil)

	assertAmount(t, "750.50", p.DownPaymentAmount)
	require.Len(t, p.Installments, 1)
	assertAmount(t, "0", p.Installments[0].Amount)
	assert.True(t, p.Balanced())
}

func TestInstallmentPlan_ClampsInputs(t *testing.T) {
	p := InstallmentPlan(dec("120"), 150, 0, nil)
	assert.Equal(t, 100, p.DownPaymentPercent)
	assert.Equal(t, 1, p.InstallmentCount)
	require.Len(t, p.Installments, 1)
	assertAmount(t, "120", p.DownPaymentAmount)

	p = InstallmentPlan(dec("-5"), -10, 2, nil)
	assert.Equal(t, 0, p.DownPaymentPercent)
	assertAmount(t, "0", p.TotalAmount)
	assertAmount(t, "0", planTotal(p))
}

func TestInstallmentPlan_ExistingTruncatedAndPadded(t *testing.T) {
	existing := []Installment{
		{Number: 1, Amount: dec("10"), Edited: true},
		{Number: 2, Amount: dec("20"), Edited: true},
		{Number: 3, Amount: dec("30"), Edited: true},
	}

	shorter := InstallmentPlan(dec("100"), 0, 2, existing)
	require.Len(t, shorter.Installments, 2)
	assertAmount(t, "10", shorter.Installments[0].Amount)
	assertAmount(t, "20", shorter.Installments[1].Amount)

	longer := InstallmentPlan(dec("100"), 0, 5, existing)
	require.Len(t, longer.Installments, 5)
	assertAmount(t, "20", longer.Installments[3].Amount)
	assertAmount(t, "20", longer.Installments[4].Amount)
	assert.False(t, longer.Installments[4].Edited)
	assertAmount(t, "100", planTotal(longer))
}

func TestInstallmentPlan_AllEditedIsNotReconciled(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 2, nil)
	p, err := ApplyManualEdit(p, 0, dec("100"))
	require.NoError(t, err)
	p, err = ApplyManualEdit(p, 1, dec("100"))
	require.NoError(t, err)

	assertAmount(t, "100", p.Installments[0].Amount)
	assertAmount(t, "100", p.Installments[1].Amount)
	assert.False(t, p.Balanced())
}

func TestApplyManualEdit_Errors(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 2, nil)

	_, err := ApplyManualEdit(p, 2, dec("1"))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "INSTALLMENT_INDEX_INVALID", verr.Code)

	_, err = ApplyManualEdit(p, -1, dec("1"))
	require.Error(t, err)

	_, err = ApplyManualEdit(p, 0, dec("-1"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "INSTALLMENT_AMOUNT_INVALID", verr.Code)

	_, err = ApplyManualEdit(CashUpfront(dec("10")), 0, dec("1"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "PLAN_HAS_NO_INSTALLMENTS", verr.Code)
}

func TestSumInvariantAndFairness(t *testing.T) {
	totals := []string{"0", "0.01", "0.07", "1", "999.99", "1000", "1234.56", "100000.07"}
	percents := []int{0, 1, 30, 33, 50, 99, 100}

	for _, total := range totals {
		for _, pct := range percents {
			for count := 1; count <= 12; count++ {
				name := fmt.Sprintf("%s/%d%%/%dx", total, pct, count)
				p := InstallmentPlan(dec(total), pct, count, nil)

				assert.Truef(t, planTotal(p).Equal(dec(total)), "%s: sum %s", name, planTotal(p))
				assert.Falsef(t, p.DownPaymentAmount.IsNegative(), "%s: negative down payment", name)

				base := p.Installments[0].Amount
				for i, in := range p.Installments {
					assert.Falsef(t, in.Amount.IsNegative(), "%s: negative installment", name)
					if i < len(p.Installments)-1 {
						assert.Truef(t, in.Amount.Equal(base), "%s: installment %d differs", name, i+1)
					}
				}
				last := p.Installments[len(p.Installments)-1].Amount
				spread := last.Sub(base)
				assert.Falsef(t, spread.IsNegative(), "%s: last below share", name)
				assert.Truef(t, spread.LessThan(dec("0.01").Mul(decimal.NewFromInt(int64(count)))), "%s: spread %s", name, spread)
			}
		}
	}
}

func TestApplyManualEdit_PreservesEditAndStaysNonNegative(t *testing.T) {
	edits := []string{"0", "0.01", "150", "699.99", "700", "5000"}
	for _, amount := range edits {
		for idx := 0; idx < 4; idx++ {
			p := InstallmentPlan(dec("1000"), 30, 4, nil)
			got, err := ApplyManualEdit(p, idx, dec(amount))
			require.NoError(t, err)

			assertAmount(t, amount, got.Installments[idx].Amount)
			assert.True(t, got.Installments[idx].Edited)
			for _, in := range got.Installments {
				assert.Falsef(t, in.Amount.IsNegative(), "edit %s at %d", amount, idx)
			}
			if dec(amount).LessThanOrEqual(dec("700")) {
				assert.Truef(t, got.Balanced(), "edit %s at %d", amount, idx)
			}
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := Input{
		TotalAmount:        dec("1234.56"),
		Mode:               ModeDownPaymentPlusInstallments,
		DownPaymentPercent: 25,
		InstallmentCount:   5,
		ExistingInstallments: []Installment{
			{Number: 1},
			{Number: 2, Amount: dec("300"), Edited: true},
		},
	}

	a, err := json.Marshal(Compute(in))
	require.NoError(t, err)
	b, err := json.Marshal(Compute(in))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Len(t, in.ExistingInstallments, 2)
}

func TestSwitchMode_ResetsEdits(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 30, 3, nil)
	p, err := ApplyManualEdit(p, 1, dec("100"))
	require.NoError(t, err)

	cash := SwitchMode(p, ModeCashUpfront)
	assert.Empty(t, cash.Installments)
	assertAmount(t, "1000", cash.DownPaymentAmount)

	back := SwitchMode(cash, ModeDownPaymentPlusInstallments)
	require.Len(t, back.Installments, 3)
	for _, in := range back.Installments {
		assert.False(t, in.Edited)
	}
	assert.Equal(t, 30, back.DownPaymentPercent)
	assert.True(t, back.Balanced())
}

func TestApplyManualEdit_IndexCheckedAgainstCount(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 2, nil)
	p.Installments = append(p.Installments, Installment{Number: 3, Amount: dec("0")})

	_, err := ApplyManualEdit(p, 2, dec("100"))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "INSTALLMENT_INDEX_INVALID", verr.Code)

	// a list shorter than the count is padded, so the last position is still editable
	short := InstallmentPlan(dec("900"), 0, 3, nil)
	short.Installments = short.Installments[:1]
	got, err := ApplyManualEdit(short, 2, dec("100"))
	require.NoError(t, err)
	require.Len(t, got.Installments, 3)
	assertAmount(t, "100", got.Installments[2].Amount)
	assert.True(t, got.Installments[2].Edited)
	assertAmount(t, "900", planTotal(got))
}

func TestApplyManualEdit_RejectsSubCentAmount(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 2, nil)

	_, err := ApplyManualEdit(p, 0, dec("500.005"))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "INSTALLMENT_AMOUNT_INVALID", verr.Code)

	got, err := ApplyManualEdit(p, 0, dec("500.010"))
	require.NoError(t, err)
	assertAmount(t, "500.01", got.Installments[0].Amount)
	assertAmount(t, "499.99", got.Installments[1].Amount)
}

func TestInstallmentPlan_EditedAmountsRoundedToCent(t *testing.T) {
	existing := []Installment{{Number: 1, Amount: dec("500.005"), Edited: true}, {Number: 2}}
	p := InstallmentPlan(dec("1000"), 0, 2, existing)

	assertAmount(t, "500.01", p.Installments[0].Amount)
	assertAmount(t, "499.99", p.Installments[1].Amount)
	for _, in := range p.Installments {
		assert.True(t, in.Amount.Equal(in.Amount.Round(2)), in.Amount.String())
	}
	assertAmount(t, "1000", planTotal(p))
}

func TestPlanInput_DropsInstallmentsPastCount(t *testing.T) {
	p := InstallmentPlan(dec("1000"), 0, 2, nil)
	p.Installments = append(p.Installments, Installment{Number: 3, Amount: dec("1"), Edited: true})

	in := p.Input()
	assert.Len(t, in.ExistingInstallments, 2)
	assert.Len(t, p.Installments, 3)
}

func TestInputValidate_SubCentEditedInstallment(t *testing.T) {
	in := Input{
		TotalAmount:          dec("1000"),
		Mode:                 ModeDownPaymentPlusInstallments,
		InstallmentCount:     2,
		ExistingInstallments: []Installment{{Number: 1, Amount: dec("500.005"), Edited: true}, {Number: 2}},
	}
	err := in.Validate(12)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "INSTALLMENT_AMOUNT_INVALID", verr.Code)

	in.ExistingInstallments[0].Amount = dec("500.01")
	require.NoError(t, in.Validate(12))
}
