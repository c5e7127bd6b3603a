// Package ledger holds per-currency balances and applies trade settlements.
package ledger

import (
	"github.com/shopspring/decimal"
)

// Settlement captures the outcome of an applied debit/credit pair.
type Settlement struct {
	SourceBalance decimal.Decimal
	TargetBalance decimal.Decimal
}

// Ledger is the contract for balance backends. Codes absent from the
// ledger read as zero balance.
type Ledger interface {
	Balance(code string) decimal.Decimal
	SufficientFor(code string, amount decimal.Decimal) bool
	Deposit(code string, amount decimal.Decimal) error
	// Settle atomically debits source and credits target. It re-checks
	// the source balance at apply time and leaves the ledger untouched
	// on failure, so a reader never observes a half-applied trade.
	Settle(source, target string, debit, credit decimal.Decimal) (Settlement, error)
	Snapshot() map[string]decimal.Decimal
}
