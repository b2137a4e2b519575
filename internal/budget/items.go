package budget

import (
	"strings"

	"github.com/shopspring/decimal"

	"bizfinance/internal/paymentplan"
	"bizfinance/pkg/money"
)

type ServiceItem struct {
	Description string          `json:"descricao"`
	Quantity    decimal.Decimal `json:"quantidade"`
	UnitPrice   decimal.Decimal `json:"valor_unitario"`
}

// Total is quantity × unit price, rounded to the cent.
func (s ServiceItem) Total() decimal.Decimal {
	return money.Round(s.Quantity.Mul(s.UnitPrice))
}

type MaterialItem struct {
	Description   string          `json:"descricao"`
	Quantity      decimal.Decimal `json:"quantidade"`
	UnitPrice     decimal.Decimal `json:"valor_unitario"`
	MarkupPercent decimal.Decimal `json:"markup_percentual"`
}

// Total is quantity × unit price × (1 + markup/100), rounded to the cent.
func (m MaterialItem) Total() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(m.MarkupPercent.Div(decimal.NewFromInt(100)))
	return money.Round(m.Quantity.Mul(m.UnitPrice).Mul(factor))
}

// ItemsTotal is the quote's grand total: every row rounded, then summed.
func ItemsTotal(services []ServiceItem, materials []MaterialItem) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range services {
		sum = sum.Add(s.Total())
	}
	for _, m := range materials {
		sum = sum.Add(m.Total())
	}
	return sum
}

func validateItems(services []ServiceItem, materials []MaterialItem) error {
	for _, s := range services {
		if strings.TrimSpace(s.Description) == "" {
			return paymentplan.ValidationError{Code: "ITEM_DESCRIPTION_REQUIRED", Message: "service item descricao is required"}
		}
		if s.Quantity.IsNegative() || s.UnitPrice.IsNegative() {
			return paymentplan.ValidationError{Code: "ITEM_AMOUNT_INVALID", Message: "service item quantidade and valor_unitario must be >= 0"}
		}
	}
	for _, m := range materials {
		if strings.TrimSpace(m.Description) == "" {
			return paymentplan.ValidationError{Code: "ITEM_DESCRIPTION_REQUIRED", Message: "material item descricao is required"}
		}
		if m.Quantity.IsNegative() || m.UnitPrice.IsNegative() || m.MarkupPercent.IsNegative() {
			return paymentplan.ValidationError{Code: "ITEM_AMOUNT_INVALID", Message: "material item quantidade, valor_unitario and markup_percentual must be >= 0"}
		}
	}
	return nil
}
