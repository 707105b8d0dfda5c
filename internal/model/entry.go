package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the settlement state of a ledger entry.
type EntryStatus string

const (
	EntryActive  EntryStatus = "active"
	EntrySettled EntryStatus = "settled"
)

// Strategy selects which debt cycles absorb a credit cycle's surplus first.
type Strategy string

const (
	StrategyUnset  Strategy = ""
	StrategyOldest Strategy = "oldest"
	StrategyNewest Strategy = "newest"
	StrategyManual Strategy = "manual"
)

// Phase identifies which allocator pass produced an allocation.
type Phase string

const (
	PhaseExplicit Phase = "explicit"
	PhaseStrategy Phase = "strategy"
	PhaseSettle   Phase = "settle" // single-pass settlement action
)

// LedgerEntry is the aggregated state of one cycle for one person.
type LedgerEntry struct {
	Tag       string
	Net       decimal.Decimal // Principal - Repaid, moved by allocation
	Principal decimal.Decimal
	RawDebt   decimal.Decimal
	Repaid    decimal.Decimal
	Cashback  decimal.Decimal
	Status    EntryStatus

	LastActivity time.Time
	Targets      []string // other cycles explicitly referenced by repayments

	PrimaryTransactionID string
	Strategy             Strategy
	Manual               map[string]decimal.Decimal

	SettledByTransactionID string
	SettledByTag           string
}

// Outstanding reports whether the entry still owes more than the tolerance.
func (e LedgerEntry) Outstanding() bool {
	return e.Net.GreaterThan(Epsilon)
}

// Surplus reports whether repayments exceed the entry's own debt by more
// than the tolerance.
func (e LedgerEntry) Surplus() bool {
	return e.Net.LessThan(Epsilon.Neg())
}

// Clone returns a copy that shares no slices or maps with e.
func (e LedgerEntry) Clone() LedgerEntry {
	c := e
	if e.Targets != nil {
		c.Targets = append([]string(nil), e.Targets...)
	}
	if e.Manual != nil {
		c.Manual = make(map[string]decimal.Decimal, len(e.Manual))
		for k, v := range e.Manual {
			c.Manual[k] = v
		}
	}
	return c
}

// Allocation records one transfer of surplus from a credit cycle to a debt cycle.
type Allocation struct {
	FromTag           string
	FromTransactionID string
	ToTag             string
	Amount            decimal.Decimal
	Phase             Phase
}

// Stamp is the traceability state of one cycle as persisted by a caller.
type Stamp struct {
	PersonID      string
	Tag           string
	Status        EntryStatus
	TransactionID string // settled_by_transaction_id
	ByTag         string // settled_by_tag
}
