package paymentplan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bizfinance/pkg/money"
)

func installmentTerms(percent int, downPayment decimal.Decimal, count int, perInstallment decimal.Decimal) string {
	if percent > 0 {
		return fmt.Sprintf("Entrada (%s): %s + %d parcela(s)", money.FormatPercent(percent), money.FormatBRL(downPayment), count)
	}
	return fmt.Sprintf("%dx de %s", count, money.FormatBRL(perInstallment))
}
