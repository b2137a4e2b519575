package settings

import (
	"encoding/json"
	"fmt"

	"bizfinance/internal/paymentplan"
)

// PaymentDefaults is stored as JSONB in company_settings.config (kind = "payment").
// Keep it versioned so records can evolve.
type PaymentDefaults struct {
	Version            int              `json:"version"`
	Mode               paymentplan.Mode `json:"forma_pagamento"`
	DownPaymentPercent int              `json:"entrada_percentual"`
	InstallmentCount   int              `json:"num_parcelas"`
	MaxInstallments    int              `json:"max_parcelas"`
}

// Fallback is used for companies that never saved payment defaults.
func Fallback(maxInstallments int) PaymentDefaults {
	return PaymentDefaults{
		Version:            1,
		Mode:               paymentplan.ModeCashUpfront,
		DownPaymentPercent: 0,
		InstallmentCount:   1,
		MaxInstallments:    maxInstallments,
	}
}

// ParseAndValidate decodes raw defaults and enforces
// 0 <= entrada_percentual <= 100 and 1 <= num_parcelas <= max_parcelas <= limit.
func ParseAndValidate(raw json.RawMessage, limit int) (PaymentDefaults, error) {
	var d PaymentDefaults
	if err := json.Unmarshal(raw, &d); err != nil {
		return PaymentDefaults{}, paymentplan.ValidationError{Code: "VALIDATION_FAILED", Message: "invalid settings json"}
	}
	if d.Version == 0 {
		d.Version = 1
	}
	if d.MaxInstallments == 0 {
		d.MaxInstallments = limit
	}
	if d.InstallmentCount == 0 {
		d.InstallmentCount = 1
	}

	if _, err := paymentplan.ParseMode(string(d.Mode)); err != nil {
		return PaymentDefaults{}, paymentplan.ValidationError{Code: "PAYMENT_MODE_INVALID", Message: "forma_pagamento must be avista or entrada_parcelas"}
	}
	if d.DownPaymentPercent < 0 || d.DownPaymentPercent > 100 {
		return PaymentDefaults{}, paymentplan.ValidationError{Code: "DOWN_PAYMENT_PERCENT_INVALID", Message: "entrada_percentual must be between 0 and 100"}
	}
	if d.MaxInstallments < 1 || (limit > 0 && d.MaxInstallments > limit) {
		return PaymentDefaults{}, paymentplan.ValidationError{Code: "MAX_INSTALLMENTS_INVALID", Message: fmt.Sprintf("max_parcelas must be between 1 and %d", limit)}
	}
	if d.InstallmentCount < 1 || d.InstallmentCount > d.MaxInstallments {
		return PaymentDefaults{}, paymentplan.ValidationError{Code: "INSTALLMENT_COUNT_INVALID", Message: "num_parcelas must be between 1 and max_parcelas"}
	}
	return d, nil
}
