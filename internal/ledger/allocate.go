package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

// Allocate moves surplus from credit cycles onto debt cycles and returns the
// resulting entries, most recent cycle first, with the transfers made.
//
// Phase one honours explicit settlement targets. Phase two spreads whatever
// surplus is left according to each credit cycle's strategy. Allocation only
// moves balance between cycles: the total net balance is unchanged, no
// credit gives more than its surplus, and no debt is pushed below zero.
// Entries are copied first; the input slice is left untouched.
func (e *Engine) Allocate(entries []model.LedgerEntry) Result {
	debt, credit, rest := Partition(entries, e.cmp)

	a := &allocator{
		debt:     debt,
		credit:   credit,
		strategy: e.defaultStrategy,
	}
	a.explicit()
	a.redistribute()

	out := make([]model.LedgerEntry, 0, len(entries))
	out = append(out, a.debt...)
	out = append(out, a.credit...)
	out = append(out, rest...)
	e.cmp.SortDescending(out)

	if len(a.allocations) > 0 {
		e.log.Debug("allocated surplus", "transfers", len(a.allocations), "cycles", len(out))
	}
	return Result{Entries: out, Allocations: a.allocations}
}

// allocator owns the two pools; credits and debts refer to each other by index.
type allocator struct {
	debt        []model.LedgerEntry // oldest first
	credit      []model.LedgerEntry // oldest first
	strategy    model.Strategy
	allocations []model.Allocation
}

func (a *allocator) explicit() {
	for ci := range a.credit {
		c := &a.credit[ci]
		if c.Status == model.EntrySettled || len(c.Targets) == 0 {
			continue
		}

		wanted := make(map[string]bool, len(c.Targets))
		for _, t := range c.Targets {
			wanted[t] = true
		}

		// The debt pool is already oldest first, so filtering keeps that order.
		var candidates []int
		for di, d := range a.debt {
			if wanted[d.Tag] && d.Status != model.EntrySettled {
				candidates = append(candidates, di)
			}
		}
		a.fill(ci, candidates, nil, model.PhaseExplicit)
	}
}

func (a *allocator) redistribute() {
	for ci := range a.credit {
		c := &a.credit[ci]
		if c.Status == model.EntrySettled || !a.surplus(ci).GreaterThan(model.MinTransfer) {
			continue
		}

		strategy := c.Strategy
		if strategy == model.StrategyUnset {
			strategy = a.strategy
		}

		var open []int
		for di, d := range a.debt {
			if d.Status != model.EntrySettled {
				open = append(open, di)
			}
		}

		var manual map[string]decimal.Decimal
		switch strategy {
		case model.StrategyNewest:
			reverse(open)
		case model.StrategyManual:
			manual = c.Manual
			open = manualFirst(open, a.debt, manual)
		}
		a.fill(ci, open, manual, model.PhaseStrategy)
	}
}

// fill walks candidates in order, moving as much of credit ci's surplus as
// each debt can absorb. A manual amount caps what a listed cycle receives;
// unlisted cycles take plain greedy overflow.
func (a *allocator) fill(ci int, candidates []int, manual map[string]decimal.Decimal, phase model.Phase) {
	for _, di := range candidates {
		if a.credit[ci].Status == model.EntrySettled {
			return
		}
		remaining := a.surplus(ci)
		if !remaining.GreaterThan(model.MinTransfer) {
			return
		}

		d := a.debt[di]
		if d.Status == model.EntrySettled {
			continue
		}

		amount := decimal.Min(remaining, d.Net)
		if limit, ok := manual[d.Tag]; ok {
			amount = decimal.Min(d.Net, decimal.Min(limit, remaining))
		}
		if amount.GreaterThan(model.MinTransfer) {
			a.transfer(ci, di, amount, phase)
		}
	}
}

func (a *allocator) transfer(ci, di int, amount decimal.Decimal, phase model.Phase) {
	c := &a.credit[ci]
	d := &a.debt[di]

	d.Net = d.Net.Sub(amount)
	c.Net = c.Net.Add(amount)
	d.SettledByTransactionID = c.PrimaryTransactionID
	d.SettledByTag = c.Tag
	d.Status = model.StatusFor(d.Net)
	c.Status = model.StatusFor(c.Net)

	a.allocations = append(a.allocations, model.Allocation{
		FromTag:           c.Tag,
		FromTransactionID: c.PrimaryTransactionID,
		ToTag:             d.Tag,
		Amount:            amount,
		Phase:             phase,
	})
}

// surplus is what credit ci still has to give.
func (a *allocator) surplus(ci int) decimal.Decimal {
	net := a.credit[ci].Net
	if net.IsNegative() {
		return net.Neg()
	}
	return decimal.Zero
}

// manualFirst moves debt indices named in manual to the front, keeping the
// relative order within both groups.
func manualFirst(idx []int, debt []model.LedgerEntry, manual map[string]decimal.Decimal) []int {
	out := make([]int, 0, len(idx))
	var rest []int
	for _, di := range idx {
		if _, ok := manual[debt[di].Tag]; ok {
			out = append(out, di)
		} else {
			rest = append(rest, di)
		}
	}
	return append(out, rest...)
}

func reverse(idx []int) {
	for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
		idx[i], idx[j] = idx[j], idx[i]
	}
}
