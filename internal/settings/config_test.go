package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizfinance/internal/paymentplan"
)

func TestParseAndValidate_FillsDefaults(t *testing.T) {
	d, err := ParseAndValidate(json.RawMessage(`{"forma_pagamento":"entrada_parcelas","entrada_percentual":30}`), 12)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Version)
	assert.Equal(t, 1, d.InstallmentCount)
	assert.Equal(t, 12, d.MaxInstallments)
	assert.Equal(t, paymentplan.ModeDownPaymentPlusInstallments, d.Mode)
}

func TestParseAndValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"bad json", `[`, "VALIDATION_FAILED"},
		{"bad mode", `{"forma_pagamento":"cheque"}`, "PAYMENT_MODE_INVALID"},
		{"percent", `{"forma_pagamento":"avista","entrada_percentual":-1}`, "DOWN_PAYMENT_PERCENT_INVALID"},
		{"max above limit", `{"forma_pagamento":"avista","max_parcelas":24}`, "MAX_INSTALLMENTS_INVALID"},
		{"count above max", `{"forma_pagamento":"avista","num_parcelas":7,"max_parcelas":6}`, "INSTALLMENT_COUNT_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAndValidate(json.RawMessage(tt.raw), 12)
			var verr paymentplan.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
		})
	}
}

func TestFallback(t *testing.T) {
	d := Fallback(12)
	assert.Equal(t, paymentplan.ModeCashUpfront, d.Mode)
	assert.Equal(t, 1, d.InstallmentCount)
	assert.Equal(t, 12, d.MaxInstallments)
}
