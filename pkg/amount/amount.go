package amount

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/swapsim/internal/domain"
)

// Sanitize parses free-text input into a non-negative decimal amount.
//
// Every character outside [0-9.,] is stripped and commas are normalized
// to dots. An input that is empty after stripping means the field was
// cleared: ok is false and err is nil. Inputs with more than one decimal
// separator (e.g. "1.2.3") are rejected outright rather than parsed
// partially. Rejection is non-destructive: callers keep whatever value
// they last accepted.
func Sanitize(raw string) (dec decimal.Decimal, ok bool, err error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteByte('.')
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, false, nil
	}

	if strings.Count(cleaned, ".") > 1 {
		return decimal.Decimal{}, false, domain.ErrInvalidAmount
	}

	dec, parseErr := decimal.NewFromString(cleaned)
	if parseErr != nil {
		return decimal.Decimal{}, false, domain.ErrInvalidAmount
	}
	if dec.IsNegative() {
		return decimal.Decimal{}, false, domain.ErrInvalidAmount
	}

	return dec, true, nil
}
