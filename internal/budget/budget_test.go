package budget

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizfinance/internal/paymentplan"
	"bizfinance/internal/settings"
)

func ptr[T any](v T) *T { return &v }

func draftWithTotal(total string) Draft {
	return Draft{
		ClientName: "Maria",
		Services:   []ServiceItem{{Description: "Pintura", Quantity: dec("1"), UnitPrice: dec(total)}},
	}
}

func TestBuildPlan_UsesCompanyDefaults(t *testing.T) {
	defaults := settings.PaymentDefaults{
		Mode:               paymentplan.ModeDownPaymentPlusInstallments,
		DownPaymentPercent: 30,
		InstallmentCount:   2,
	}

	in := BuildPlan(draftWithTotal("1000"), nil, defaults)

	assert.Equal(t, paymentplan.ModeDownPaymentPlusInstallments, in.Mode)
	assert.Equal(t, 30, in.DownPaymentPercent)
	assert.Equal(t, 2, in.InstallmentCount)
	assert.True(t, dec("1000").Equal(in.TotalAmount))
}

func TestBuildPlan_DraftOverridesDefaults(t *testing.T) {
	d := draftWithTotal("1000")
	d.Mode = ptr(paymentplan.ModeDownPaymentPlusInstallments)
	d.DownPaymentPercent = ptr(10)
	d.InstallmentCount = ptr(4)

	in := BuildPlan(d, nil, settings.Fallback(12))

	assert.Equal(t, paymentplan.ModeDownPaymentPlusInstallments, in.Mode)
	assert.Equal(t, 10, in.DownPaymentPercent)
	assert.Equal(t, 4, in.InstallmentCount)
}

func TestBuildPlan_KeepsEditsWhileModeUnchanged(t *testing.T) {
	prev, err := paymentplan.ApplyManualEdit(paymentplan.InstallmentPlan(dec("1000"), 30, 2, nil), 0, dec("500"))
	require.NoError(t, err)

	d := draftWithTotal("2000")
	in := BuildPlan(d, &prev, settings.PaymentDefaults{})
	p := paymentplan.Compute(in)

	require.Len(t, p.Installments, 2)
	assert.True(t, p.Installments[0].Edited)
	assert.True(t, dec("500").Equal(p.Installments[0].Amount))
	// 2000 - 600 down payment - 500 edited
	assert.True(t, dec("900").Equal(p.Installments[1].Amount), p.Installments[1].Amount.String())
}

func TestBuildPlan_ModeSwitchDropsEdits(t *testing.T) {
	prev, err := paymentplan.ApplyManualEdit(paymentplan.InstallmentPlan(dec("1000"), 30, 2, nil), 0, dec("500"))
	require.NoError(t, err)

	d := draftWithTotal("1000")
	d.Mode = ptr(paymentplan.ModeCashUpfront)
	d.Installments = prev.Installments

	in := BuildPlan(d, &prev, settings.PaymentDefaults{})
	assert.Nil(t, in.ExistingInstallments)
	assert.Equal(t, paymentplan.ModeCashUpfront, in.Mode)

	p := paymentplan.Compute(in)
	assert.Empty(t, p.Installments)
	assert.True(t, dec("1000").Equal(p.DownPaymentAmount))
}

func TestDraftValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Draft)
		code string
	}{
		{"ok", func(*Draft) {}, ""},
		{"missing client", func(d *Draft) { d.ClientName = "" }, "CLIENT_REQUIRED"},
		{"bad date", func(d *Draft) { d.ValidUntil = "31/12/2026" }, "VALID_UNTIL_INVALID"},
		{"too many installments", func(d *Draft) {
			d.Mode = ptr(paymentplan.ModeDownPaymentPlusInstallments)
			d.InstallmentCount = ptr(24)
		}, "INSTALLMENT_COUNT_INVALID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := draftWithTotal("100")
			tc.mut(&d)
			err := d.Validate(BuildPlan(d, nil, settings.Fallback(12)), 12)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			var verr paymentplan.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.code, verr.Code)
		})
	}
}

func TestBudgetJSON_FlattensPlan(t *testing.T) {
	d := draftWithTotal("1000")
	d.Mode = ptr(paymentplan.ModeDownPaymentPlusInstallments)
	d.DownPaymentPercent = ptr(30)
	d.InstallmentCount = ptr(2)
	d.ValidUntil = "2026-12-31"

	b := &Budget{ID: "b1", CompanyID: "c1", Number: 7, Status: StatusDraft}
	require.NoError(t, b.Apply(d, BuildPlan(d, nil, settings.Fallback(12))))
	assert.True(t, b.PlanBalanced)

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "entrada_parcelas", doc["forma_pagamento"])
	assert.Equal(t, "1000", doc["valor_total"])
	assert.Equal(t, "300", doc["valor_entrada"])
	assert.EqualValues(t, 2, doc["num_parcelas"])
	assert.Len(t, doc["parcelas"], 2)
	assert.Equal(t, true, doc["parcelas_conferem"])
	assert.Equal(t, "2026-12-31T00:00:00Z", doc["validade"])
	assert.NotContains(t, doc, "Plan")
}

func TestShouldExpire(t *testing.T) {
	validUntil := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	onDate := time.Date(2026, 5, 10, 23, 30, 0, 0, time.Local)
	dayAfter := time.Date(2026, 5, 11, 0, 5, 0, 0, time.Local)

	cases := []struct {
		name       string
		status     Status
		validUntil *time.Time
		today      time.Time
		want       bool
	}{
		{"sent, still valid on validade", StatusSent, &validUntil, onDate, false},
		{"sent, day after validade", StatusSent, &validUntil, dayAfter, true},
		{"sent, no validade", StatusSent, nil, dayAfter, false},
		{"draft past validade", StatusDraft, &validUntil, dayAfter, false},
		{"approved past validade", StatusApproved, &validUntil, dayAfter, false},
		{"already expired", StatusExpired, &validUntil, dayAfter, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Budget{Status: tc.status, ValidUntil: tc.validUntil}
			assert.Equal(t, tc.want, b.ShouldExpire(tc.today))
		})
	}

	draft := Budget{Status: StatusDraft, ValidUntil: &validUntil}
	assert.True(t, draft.Overdue(dayAfter))
	assert.False(t, draft.Overdue(onDate))
}
