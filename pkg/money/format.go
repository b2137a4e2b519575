package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by BRL amounts.
const Scale int32 = 2

// Round rounds an amount to the currency scale (half away from zero).
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(Scale)
}

// IsCents reports whether v has no fraction below the cent.
func IsCents(v decimal.Decimal) bool {
	return v.Equal(Round(v))
}

// FormatBRL renders an amount the way pt-BR displays currency, e.g. "R$ 1.500,00".
func FormatBRL(v decimal.Decimal) string {
	s := v.StringFixed(Scale)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("R$ ")
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a whole percentage, e.g. "30%".
func FormatPercent(p int) string {
	return strconv.Itoa(p) + "%"
}
