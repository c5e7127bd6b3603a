package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a swap session.
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingConfirmation
	StatusProcessing
	StatusError
)

// status string constants to avoid magic strings
const (
	statusStringIdle       = "idle"
	statusStringAwaiting   = "awaiting_confirmation"
	statusStringProcessing = "processing"
	statusStringError      = "error"
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return statusStringIdle
	case StatusAwaitingConfirmation:
		return statusStringAwaiting
	case StatusProcessing:
		return statusStringProcessing
	case StatusError:
		return statusStringError
	default:
		return "unknown"
	}
}

// SwapSession holds the live state of the swap form. Amount is nil when
// the input field is cleared, which is distinct from zero.
type SwapSession struct {
	Source       string
	Target       string
	Amount       *decimal.Decimal
	Quote        Quote
	Insufficient bool
	Status       Status
}

// Quote is a computed conversion for a prospective trade. Unavailable is
// set when price data for either side is missing; Amount is zero then.
type Quote struct {
	Amount      decimal.Decimal
	Unavailable bool
}

// TradeSnapshot is an immutable copy of session fields captured when a
// trade is requested. Settlement uses the snapshot, never live fields,
// so edits made after confirmation cannot change the executed trade.
type TradeSnapshot struct {
	ID         string
	Source     string
	Target     string
	Amount     decimal.Decimal
	Quote      decimal.Decimal
	CapturedAt time.Time
}

// String returns a human-readable string representation.
func (s *TradeSnapshot) String() string {
	return fmt.Sprintf("%s %s -> %s %s", s.Amount.String(), s.Source, s.Quote.String(), s.Target)
}
