package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

// Aggregate folds records into one entry per cycle label, oldest cycle first.
// Void records are skipped. Records are folded in occurrence order, so the
// first credit names the cycle's primary transaction and the last strategy
// seen wins. Malformed metadata is logged and treated as empty.
func (e *Engine) Aggregate(records []model.Record) []model.LedgerEntry {
	ordered := make([]model.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	byTag := make(map[string]*model.LedgerEntry)
	var order []string

	for _, r := range ordered {
		if r.Status == model.RecordVoid {
			continue
		}

		tag := r.CycleTag()
		entry, ok := byTag[tag]
		if !ok {
			entry = &model.LedgerEntry{
				Tag:       tag,
				Net:       decimal.Zero,
				Principal: decimal.Zero,
				RawDebt:   decimal.Zero,
				Repaid:    decimal.Zero,
				Cashback:  decimal.Zero,
			}
			byTag[tag] = entry
			order = append(order, tag)
		}

		meta, err := model.ParseMetadata(r.Metadata)
		if err != nil {
			e.log.Warn("ignoring malformed record metadata", "record", r.ID, "tag", tag, "error", err)
		}

		switch Resolve(r.Kind) {
		case Debit:
			entry.Principal = entry.Principal.Add(EffectivePrice(r))
			entry.RawDebt = entry.RawDebt.Add(r.Amount.Abs())
		case Credit:
			entry.Repaid = entry.Repaid.Add(EffectivePrice(r))
			applyCreditMetadata(entry, meta)
			if entry.PrimaryTransactionID == "" {
				entry.PrimaryTransactionID = r.ID
			}
		}

		entry.Cashback = entry.Cashback.Add(Cashback(r))
		if r.OccurredAt.After(entry.LastActivity) {
			entry.LastActivity = r.OccurredAt
		}
	}

	entries := make([]model.LedgerEntry, 0, len(order))
	for _, tag := range order {
		entry := byTag[tag]
		entry.Net = entry.Principal.Sub(entry.Repaid)
		entry.Status = model.StatusFor(entry.Net)
		entry.Targets = model.DedupeTags(entry.Targets)
		entries = append(entries, *entry)
	}
	e.cmp.SortAscending(entries)
	return entries
}

func applyCreditMetadata(entry *model.LedgerEntry, meta model.Metadata) {
	for _, target := range meta.Targets {
		if target != entry.Tag {
			entry.Targets = append(entry.Targets, target)
		}
	}
	if meta.Strategy != model.StrategyUnset {
		entry.Strategy = meta.Strategy
	}
	if len(meta.Manual) > 0 {
		if entry.Manual == nil {
			entry.Manual = make(map[string]decimal.Decimal, len(meta.Manual))
		}
		for tag, amt := range meta.Manual {
			entry.Manual[tag] = amt
		}
	}
}
