// Package swap orchestrates the swap session: currency selection, amount
// entry, quoting, confirmation and asynchronous settlement.
package swap

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/swapsim/internal/domain"
	"github.com/vadiminshakov/swapsim/internal/events"
	"github.com/vadiminshakov/swapsim/internal/services/icons"
	"github.com/vadiminshakov/swapsim/internal/services/ledger"
	"github.com/vadiminshakov/swapsim/internal/services/quoter"
	"github.com/vadiminshakov/swapsim/pkg/amount"
)

const (
	defaultSettleDelay   = 2 * time.Second
	defaultSettleTimeout = 10 * time.Second
	defaultDisplayDigits = 8
)

// Options tune engine timing and display behavior.
type Options struct {
	// SettleDelay is the artificial latency before a confirmed trade is
	// applied to the ledger.
	SettleDelay time.Duration
	// SettleTimeout bounds the whole settlement task; exceeding it moves
	// the session to the error state.
	SettleTimeout time.Duration
	// DisplayDigits is the number of fractional digits shown for quotes.
	DisplayDigits int32
}

func (o *Options) withDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = defaultSettleDelay
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = defaultSettleTimeout
	}
	if o.DisplayDigits <= 0 {
		o.DisplayDigits = defaultDisplayDigits
	}
}

// Engine owns one swap session. All event methods are safe for
// concurrent use; mutating events are refused while a settlement is
// processing, because the engine does not trust UI-side input locking.
type Engine struct {
	mu          sync.Mutex
	table       domain.PriceTable
	ledger      ledger.Ledger
	logger      *zap.Logger
	broadcaster *events.SnapshotBroadcaster
	resolver    *icons.Resolver

	session domain.SwapSession
	pending *domain.TradeSnapshot
	message string
	opts    Options
}

// New creates an engine with source and target defaulted from the
// available currencies: ETH/USD when both are present (matching the
// seeded demo balances), otherwise the first two codes.
func New(table domain.PriceTable, l ledger.Ledger, logger *zap.Logger, broadcaster *events.SnapshotBroadcaster, resolver *icons.Resolver, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.withDefaults()

	e := &Engine{
		table:       table,
		ledger:      l,
		logger:      logger,
		broadcaster: broadcaster,
		resolver:    resolver,
		opts:        opts,
	}
	e.session.Source, e.session.Target = defaultPair(table)
	e.session.Status = domain.StatusIdle
	return e
}

func defaultPair(table domain.PriceTable) (source, target string) {
	_, hasETH := table["ETH"]
	_, hasUSD := table["USD"]
	if hasETH && hasUSD {
		return "ETH", "USD"
	}
	codes := table.Currencies()
	if len(codes) >= 2 {
		return codes[0], codes[1]
	}
	return "", ""
}

// SelectSource sets the source currency and recomputes quote and
// sufficiency against the new source's balance.
func (e *Engine) SelectSource(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.ErrSessionBusy
	}
	if code != "" && code == e.session.Target {
		return domain.ErrSameCurrency
	}

	e.clearError()
	e.session.Source = code
	e.recompute()
	e.publish()
	return nil
}

// SelectTarget sets the target currency.
func (e *Engine) SelectTarget(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.ErrSessionBusy
	}
	if code != "" && code == e.session.Source {
		return domain.ErrSameCurrency
	}

	e.clearError()
	e.session.Target = code
	e.recompute()
	e.publish()
	return nil
}

// EditAmount routes raw text through the sanitizer. A rejected input
// leaves the previously accepted amount in place.
func (e *Engine) EditAmount(raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.ErrSessionBusy
	}

	dec, ok, err := amount.Sanitize(raw)
	if err != nil {
		return err
	}

	e.clearError()
	if !ok {
		e.session.Amount = nil
	} else {
		e.session.Amount = &dec
	}
	e.recompute()
	e.publish()
	return nil
}

// Invert exchanges source and target without altering the amount.
func (e *Engine) Invert() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.ErrSessionBusy
	}

	e.clearError()
	e.session.Source, e.session.Target = e.session.Target, e.session.Source
	e.recompute()
	e.publish()
	return nil
}

// UseMax sets the amount to the full balance of the source currency.
func (e *Engine) UseMax() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.ErrSessionBusy
	}

	e.clearError()
	max := e.ledger.Balance(e.session.Source)
	e.session.Amount = &max
	e.recompute()
	e.publish()
	return nil
}

// SetTable installs a fresh price table from a feed refresh and
// recomputes the live quote. The pending snapshot, if any, is not
// affected: a confirmed trade settles at the quoted terms it captured.
func (e *Engine) SetTable(table domain.PriceTable) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.table = table
	e.recompute()
	e.publish()
}

// RequestTrade validates the session and captures an immutable snapshot
// for confirmation. Later edits to the live session do not change the
// snapshot.
func (e *Engine) RequestTrade() (domain.TradeSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusProcessing {
		return domain.TradeSnapshot{}, domain.ErrSessionBusy
	}

	e.clearError()
	if e.session.Source == "" || e.session.Target == "" || e.session.Amount == nil || !e.session.Amount.IsPositive() {
		e.message = "please enter a valid amount to swap"
		e.publish()
		return domain.TradeSnapshot{}, domain.ErrMissingSelection
	}
	if e.session.Insufficient {
		e.message = "insufficient " + e.session.Source + " balance"
		e.publish()
		return domain.TradeSnapshot{}, domain.ErrInsufficientBalance
	}
	if e.session.Quote.Unavailable {
		e.message = "no price data for " + e.session.Target
		e.publish()
		return domain.TradeSnapshot{}, domain.ErrQuoteUnavailable
	}

	snap := domain.TradeSnapshot{
		ID:         uuid.New().String(),
		Source:     e.session.Source,
		Target:     e.session.Target,
		Amount:     *e.session.Amount,
		Quote:      e.session.Quote.Amount,
		CapturedAt: time.Now(),
	}
	e.pending = &snap
	e.session.Status = domain.StatusAwaitingConfirmation
	e.message = ""
	e.publish()

	e.logger.Info("trade requested", zap.String("id", snap.ID), zap.String("trade", snap.String()))
	return snap, nil
}

// CancelConfirmation abandons a pending confirmation with no ledger effect.
func (e *Engine) CancelConfirmation() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusAwaitingConfirmation {
		return errors.Errorf("nothing to cancel in status %s", e.session.Status)
	}

	e.pending = nil
	e.session.Status = domain.StatusIdle
	e.publish()
	return nil
}

// Confirm starts the asynchronous settlement of the pending snapshot and
// returns a channel that delivers the settlement result. Settlement uses
// the confirmation-time snapshot, never live session fields, so an edit
// racing the delay cannot change the executed trade. Cancelling ctx
// before the delay elapses aborts with no ledger effect; exceeding the
// settlement timeout moves the session to the error state.
func (e *Engine) Confirm(ctx context.Context) (<-chan error, error) {
	e.mu.Lock()
	if e.session.Status != domain.StatusAwaitingConfirmation || e.pending == nil {
		e.mu.Unlock()
		return nil, errors.Errorf("cannot confirm in status %s", e.session.Status)
	}

	snap := *e.pending
	e.session.Status = domain.StatusProcessing
	e.message = ""
	e.publish()
	e.mu.Unlock()

	done := make(chan error, 1)
	go e.settle(ctx, snap, done)
	return done, nil
}

// Acknowledge returns the session to idle after a settlement failure.
func (e *Engine) Acknowledge() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == domain.StatusError {
		e.session.Status = domain.StatusIdle
		e.message = ""
		e.publish()
	}
}

func (e *Engine) settle(ctx context.Context, snap domain.TradeSnapshot, done chan error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.SettleTimeout)
	defer cancel()

	timer := time.NewTimer(e.opts.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		e.finishAborted(ctx.Err(), snap)
		done <- ctx.Err()
		return
	case <-timer.C:
	}

	// balances are re-checked inside Settle at apply time, the
	// sufficiency check at request time may be stale by now
	_, err := e.ledger.Settle(snap.Source, snap.Target, snap.Amount, snap.Quote)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if err != nil {
		e.session.Status = domain.StatusError
		e.message = err.Error()
		e.logger.Error("settlement failed", zap.String("id", snap.ID), zap.Error(err))
	} else {
		e.session.Status = domain.StatusIdle
		e.session.Amount = nil
		e.session.Insufficient = false
		e.recompute()
		e.logger.Info("settlement applied", zap.String("id", snap.ID), zap.String("trade", snap.String()))
	}
	e.publish()
	done <- err
}

// finishAborted resolves a settlement task that ended before the delay
// elapsed. A plain cancellation is a no-op on the ledger and returns the
// session to idle; a deadline hit is a failure the user must acknowledge.
func (e *Engine) finishAborted(cause error, snap domain.TradeSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending = nil
	if errors.Is(cause, context.DeadlineExceeded) {
		e.session.Status = domain.StatusError
		e.message = "settlement timed out"
		e.logger.Error("settlement timed out", zap.String("id", snap.ID))
	} else {
		e.session.Status = domain.StatusIdle
		e.logger.Info("settlement cancelled", zap.String("id", snap.ID))
	}
	e.publish()
}

// SourceOptions returns selectable source currencies, excluding the
// current target so the same code cannot appear on both sides.
func (e *Engine) SourceOptions() []events.Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.optionsExcluding(e.session.Target)
}

// TargetOptions returns selectable target currencies, excluding the
// current source.
func (e *Engine) TargetOptions() []events.Option {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.optionsExcluding(e.session.Source)
}

// SnapshotView returns a read-only view of the session for rendering.
func (e *Engine) SnapshotView() events.SwapSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) optionsExcluding(code string) []events.Option {
	out := make([]events.Option, 0, len(e.table))
	for _, c := range e.table.Currencies() {
		if c == code {
			continue
		}
		opt := events.Option{Code: c}
		if e.resolver != nil {
			opt.Icon = e.resolver.URL(c)
		}
		out = append(out, opt)
	}
	return out
}

// recompute refreshes the derived session fields. Callers hold e.mu.
func (e *Engine) recompute() {
	e.session.Quote = quoter.Quote(e.table, e.session.Source, e.session.Target, e.session.Amount)
	e.session.Insufficient = e.session.Amount != nil &&
		!e.ledger.SufficientFor(e.session.Source, *e.session.Amount)
}

func (e *Engine) clearError() {
	if e.session.Status == domain.StatusError {
		e.session.Status = domain.StatusIdle
		e.message = ""
	}
}

func (e *Engine) snapshotLocked() events.SwapSnapshot {
	amountText := ""
	if e.session.Amount != nil {
		amountText = e.session.Amount.String()
	}

	balances := make(map[string]string)
	for code, bal := range e.ledger.Snapshot() {
		balances[code] = bal.String()
	}

	return events.SwapSnapshot{
		Timestamp:    time.Now(),
		Options:      e.optionsExcluding(""),
		Source:       e.session.Source,
		Target:       e.session.Target,
		Amount:       amountText,
		Quote:        quoter.FormatDisplay(e.session.Quote, e.opts.DisplayDigits),
		Insufficient: e.session.Insufficient,
		Status:       e.session.Status.String(),
		Message:      e.message,
		Balances:     balances,
	}
}

func (e *Engine) publish() {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.Publish(e.snapshotLocked())
}

// Amount returns the currently accepted amount, nil when cleared.
func (e *Engine) Amount() *decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.Amount == nil {
		return nil
	}
	v := *e.session.Amount
	return &v
}

// Status returns the current session status.
func (e *Engine) Status() domain.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Status
}
