package pricing

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount as "<CUR> <thousands-separated whole units>",
// rounding half away from zero.
func FormatAmount(currency string, amount decimal.Decimal) string {
	return currency + " " + humanize.Comma(amount.Round(0).IntPart())
}
