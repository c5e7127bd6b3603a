package ledger

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/swapsim/internal/domain"
)

// InMemory is a mutex-guarded in-memory ledger.
type InMemory struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	logger   *zap.Logger
}

// NewInMemory creates an in-memory ledger seeded with the given balances.
func NewInMemory(seed map[string]decimal.Decimal, logger *zap.Logger) *InMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	balances := make(map[string]decimal.Decimal, len(seed))
	for code, bal := range seed {
		balances[code] = bal
	}
	return &InMemory{balances: balances, logger: logger}
}

// Balance returns the balance for code, zero for unknown codes.
func (l *InMemory) Balance(code string) decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[code]
}

// SufficientFor reports whether the balance of code covers amount.
func (l *InMemory) SufficientFor(code string, amount decimal.Decimal) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return amount.LessThanOrEqual(l.balances[code])
}

// Deposit credits code by amount.
func (l *InMemory) Deposit(code string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errors.Errorf("deposit amount must be non-negative, got %s", amount.String())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[code] = l.balances[code].Add(amount)
	return nil
}

// Settle atomically debits source and credits target under one lock.
// The source balance is re-checked here, at apply time, because the
// caller's earlier sufficiency check may be stale by the time a delayed
// settlement fires.
func (l *InMemory) Settle(source, target string, debit, credit decimal.Decimal) (Settlement, error) {
	if debit.IsNegative() || credit.IsNegative() {
		return Settlement{}, errors.Errorf("settle amounts must be non-negative, got debit %s credit %s",
			debit.String(), credit.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sourceBalance := l.balances[source]
	if sourceBalance.LessThan(debit) {
		return Settlement{}, errors.Wrapf(domain.ErrInsufficientBalance,
			"%s balance %s cannot cover debit %s", source, sourceBalance.String(), debit.String())
	}

	l.balances[source] = sourceBalance.Sub(debit)
	l.balances[target] = l.balances[target].Add(credit)

	l.logger.Info("settled",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("debit", debit.String()),
		zap.String("credit", credit.String()))

	return Settlement{
		SourceBalance: l.balances[source],
		TargetBalance: l.balances[target],
	}, nil
}

// Snapshot returns a copy of all balances.
func (l *InMemory) Snapshot() map[string]decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(l.balances))
	for code, bal := range l.balances {
		out[code] = bal
	}
	return out
}
