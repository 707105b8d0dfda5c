package ledger

import "github.com/cleared-dev/debtbook/internal/model"

// Partition splits entries into cycles that owe money (debt), cycles whose
// repayments exceed their own debt (credit), and everything within the
// tolerance of zero (rest). Debt and credit are sorted oldest first. All
// three slices hold copies with status re-derived from the net balance; the
// input is not modified.
func Partition(entries []model.LedgerEntry, cmp Comparator) (debt, credit, rest []model.LedgerEntry) {
	for _, en := range entries {
		c := en.Clone()
		c.Status = model.StatusFor(c.Net)
		switch {
		case c.Outstanding():
			debt = append(debt, c)
		case c.Surplus():
			credit = append(credit, c)
		default:
			rest = append(rest, c)
		}
	}
	cmp.SortAscending(debt)
	cmp.SortAscending(credit)
	return debt, credit, rest
}
