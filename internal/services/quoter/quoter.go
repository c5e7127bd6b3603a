// Package quoter computes cross-rate conversions from a canonical price table.
package quoter

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/swapsim/internal/domain"
)

// Quote converts amount from source to target using table prices.
//
// A nil or zero amount, or an unselected currency, yields a zero quote:
// that is the resting state of an empty form, not an error. A missing
// target price would mean dividing by zero, so the quote degrades to
// zero with Unavailable set instead of propagating Inf or NaN.
func Quote(table domain.PriceTable, source, target string, amount *decimal.Decimal) domain.Quote {
	if source == "" || target == "" || amount == nil || amount.IsZero() {
		return domain.Quote{}
	}

	sourcePrice := table.Price(source)
	targetPrice := table.Price(target)
	if targetPrice.IsZero() {
		return domain.Quote{Unavailable: true}
	}

	return domain.Quote{Amount: amount.Mul(sourcePrice).Div(targetPrice)}
}

// FormatDisplay truncates a quote to the given number of fractional
// digits without rounding, so the rendered value never overstates the
// underlying ledger value.
func FormatDisplay(q domain.Quote, digits int32) string {
	if q.Unavailable {
		return "0"
	}
	return q.Amount.Truncate(digits).String()
}
