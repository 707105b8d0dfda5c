// Package settlement plans a manual repayment of a total amount against a
// person's outstanding cycles. It is the single-pass sibling of the ledger
// allocator and shares its label ordering and tolerances.
package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/ledger"
	"github.com/cleared-dev/debtbook/internal/model"
)

var (
	ErrNonPositiveAmount = errors.New("settlement amount must be positive")
	ErrUnknownAccount    = errors.New("unknown payment account")
	ErrNothingOwed       = errors.New("no outstanding cycles")
	ErrMissingPerson     = errors.New("person is required")
)

// AccountChecker tests whether a payment account exists.
type AccountChecker interface {
	Exists(id string) bool
}

// Request is a user's intent to repay Amount from AccountID.
type Request struct {
	PersonID  string
	AccountID string
	Amount    decimal.Decimal
	At        time.Time
}

// Plan is a validated settlement ready to be committed.
type Plan struct {
	ID          string
	PersonID    string
	AccountID   string
	Amount      decimal.Decimal
	At          time.Time
	Allocations []model.Allocation
	Settled     map[string]bool // cycles the plan pays off in full
	Leftover    decimal.Decimal // part of Amount no cycle could absorb
}

// Planner builds oldest-first settlement plans.
type Planner struct {
	cmp      ledger.Comparator
	accounts AccountChecker
	newID    func() string
}

// NewPlanner returns a Planner ordering cycles with cmp.
func NewPlanner(cmp ledger.Comparator, accounts AccountChecker) *Planner {
	return &Planner{cmp: cmp, accounts: accounts, newID: uuid.NewString}
}

// Plan fills outstanding cycles oldest first until req.Amount runs out.
// entries is a reconciled view, typically ledger.Result.Entries.
func (p *Planner) Plan(req Request, entries []model.LedgerEntry) (Plan, error) {
	if req.PersonID == "" {
		return Plan{}, ErrMissingPerson
	}
	if !req.Amount.IsPositive() {
		return Plan{}, fmt.Errorf("%w: %s", ErrNonPositiveAmount, req.Amount)
	}
	if p.accounts == nil || !p.accounts.Exists(req.AccountID) {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownAccount, req.AccountID)
	}

	open := ledger.Outstanding(entries)
	if len(open) == 0 {
		return Plan{}, fmt.Errorf("person %s: %w", req.PersonID, ErrNothingOwed)
	}
	p.cmp.SortAscending(open)

	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	plan := Plan{
		ID:        p.newID(),
		PersonID:  req.PersonID,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		At:        at,
		Settled:   make(map[string]bool),
	}

	remaining := req.Amount
	for _, en := range open {
		if !remaining.GreaterThan(model.MinTransfer) {
			break
		}
		amount := decimal.Min(remaining, en.Net)
		if !amount.GreaterThan(model.MinTransfer) {
			continue
		}
		remaining = remaining.Sub(amount)

		plan.Allocations = append(plan.Allocations, model.Allocation{
			FromTag:           en.Tag,
			FromTransactionID: p.newID(),
			ToTag:             en.Tag,
			Amount:            amount,
			Phase:             model.PhaseSettle,
		})
		if model.IsSettled(en.Net.Sub(amount)) {
			plan.Settled[en.Tag] = true
		}
	}
	plan.Leftover = remaining
	return plan, nil
}

// Records returns one repayment record per allocation, booked into the cycle
// it pays.
func (pl Plan) Records() []model.Record {
	out := make([]model.Record, 0, len(pl.Allocations))
	for _, a := range pl.Allocations {
		out = append(out, model.Record{
			ID:         a.FromTransactionID,
			PersonID:   pl.PersonID,
			Amount:     a.Amount,
			Kind:       model.KindRepayment,
			Tag:        a.ToTag,
			OccurredAt: pl.At,
			Status:     model.RecordActive,
			AccountID:  pl.AccountID,
		})
	}
	return out
}

// Stamps returns the traceability stamps for cycles the plan settles.
func (pl Plan) Stamps() []model.Stamp {
	var out []model.Stamp
	for _, a := range pl.Allocations {
		if !pl.Settled[a.ToTag] {
			continue
		}
		out = append(out, model.Stamp{
			PersonID:      pl.PersonID,
			Tag:           a.ToTag,
			Status:        model.EntrySettled,
			TransactionID: a.FromTransactionID,
			ByTag:         a.FromTag,
		})
	}
	return out
}
