// Package ledger reconciles a person's debt and repayment records into one
// ledger entry per cycle and redistributes repayment surplus across cycles
// that still owe money.
//
// The engine is pure: it never mutates its input, performs no I/O and keeps
// no state between calls, so one Engine may be shared across goroutines.
package ledger

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/logger"
	"github.com/cleared-dev/debtbook/internal/model"
)

// Engine aggregates records and allocates surplus.
type Engine struct {
	cmp             Comparator
	log             *slog.Logger
	defaultStrategy model.Strategy
}

// Option configures an Engine.
type Option func(*Engine)

// WithComparator sets the cycle label ordering.
func WithComparator(c Comparator) Option {
	return func(e *Engine) { e.cmp = c }
}

// WithLogger sets the logger used for degraded-input warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDefaultStrategy sets the strategy used when a credit cycle has none.
// StrategyUnset leaves the default at StrategyOldest.
func WithDefaultStrategy(s model.Strategy) Option {
	return func(e *Engine) {
		if s != model.StrategyUnset {
			e.defaultStrategy = s
		}
	}
}

// NewEngine returns an Engine ordering labels with ShortMonthParser and
// defaulting to oldest-first allocation.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cmp:             NewComparator(ShortMonthParser),
		log:             logger.L,
		defaultStrategy: model.StrategyOldest,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Comparator returns the engine's label ordering.
func (e *Engine) Comparator() Comparator {
	return e.cmp
}

// Result is the reconciled view of one person's ledger.
type Result struct {
	Entries     []model.LedgerEntry // most recent cycle first
	Allocations []model.Allocation  // in the order they were applied
}

// Reconcile aggregates records into cycles and allocates surplus between them.
func (e *Engine) Reconcile(records []model.Record) Result {
	return e.Allocate(e.Aggregate(records))
}

// TotalNet sums the net balance of entries.
func TotalNet(entries []model.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, en := range entries {
		total = total.Add(en.Net)
	}
	return total
}

// Outstanding returns the entries that still owe money, in their given order.
func Outstanding(entries []model.LedgerEntry) []model.LedgerEntry {
	var out []model.LedgerEntry
	for _, en := range entries {
		if en.Status != model.EntrySettled && en.Outstanding() {
			out = append(out, en)
		}
	}
	return out
}

// Stamps returns the traceability fields a caller would persist for person:
// one stamp per entry that was paid from another cycle.
func Stamps(personID string, entries []model.LedgerEntry) []model.Stamp {
	var out []model.Stamp
	for _, en := range entries {
		if en.SettledByTransactionID == "" {
			continue
		}
		out = append(out, model.Stamp{
			PersonID:      personID,
			Tag:           en.Tag,
			Status:        en.Status,
			TransactionID: en.SettledByTransactionID,
			ByTag:         en.SettledByTag,
		})
	}
	return out
}
