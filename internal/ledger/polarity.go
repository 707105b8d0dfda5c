package ledger

import "github.com/cleared-dev/debtbook/internal/model"

// Polarity is the effect a record has on a cycle's debt.
type Polarity int

const (
	// Debit increases what is owed.
	Debit Polarity = iota
	// Credit decreases what is owed.
	Credit
	// Neutral leaves principal and repaid untouched. Neutral records still
	// contribute cashback.
	Neutral
)

func (p Polarity) String() string {
	switch p {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	case Neutral:
		return "neutral"
	default:
		return "unknown"
	}
}

// Resolve maps a record kind onto its ledger polarity. Unknown kinds are debits.
func Resolve(k model.Kind) Polarity {
	switch k {
	case model.KindRepayment, model.KindIncome:
		return Credit
	case model.KindTransfer:
		return Neutral
	default:
		return Debit
	}
}
