// planpreview prints the payment plan for the given inputs, the same way the
// budget editor computes it.
//
//	go run ./cmd/dev/planpreview -total 1000 -mode entrada_parcelas -percent 30 -count 3 -edit 0=500
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bizfinance/internal/paymentplan"
)

type edits []string

func (e *edits) String() string     { return strings.Join(*e, ",") }
func (e *edits) Set(v string) error { *e = append(*e, v); return nil }

func main() {
	var (
		total   = flag.String("total", "0", "valor_total")
		mode    = flag.String("mode", string(paymentplan.ModeDownPaymentPlusInstallments), "avista or entrada_parcelas")
		percent = flag.Int("percent", 0, "entrada_percentual")
		count   = flag.Int("count", 1, "num_parcelas")
		maxN    = flag.Int("max", 0, "max num_parcelas (0 disables the check)")
		ed      edits
	)
	flag.Var(&ed, "edit", "manual edit as index=amount (0-based, repeatable)")
	flag.Parse()

	amount, err := decimal.NewFromString(*total)
	if err != nil {
		fail(2, "invalid -total: %v", err)
	}
	m, err := paymentplan.ParseMode(*mode)
	if err != nil {
		fail(2, "invalid -mode: %v", err)
	}

	in := paymentplan.Input{TotalAmount: amount, Mode: m, DownPaymentPercent: *percent, InstallmentCount: *count}
	if err := in.Validate(*maxN); err != nil {
		fail(1, "%v", err)
	}
	p := paymentplan.Compute(in)

	for _, e := range ed {
		idx, val, ok := strings.Cut(e, "=")
		if !ok {
			fail(2, "invalid -edit %q (want index=amount)", e)
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			fail(2, "invalid -edit index %q", idx)
		}
		v, err := decimal.NewFromString(val)
		if err != nil {
			fail(2, "invalid -edit amount %q", val)
		}
		if p, err = paymentplan.ApplyManualEdit(p, i, v); err != nil {
			fail(1, "%v", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(paymentplan.NewPlanResponse(p))
}

func fail(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
