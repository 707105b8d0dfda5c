package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

var hundred = decimal.NewFromInt(100)

// NormalizePercent turns a cashback percent into a fraction. Values above 1
// are whole-number percents (10 -> 0.10); anything else is used as given.
func NormalizePercent(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return p.Div(hundred)
	}
	return p
}

// Cashback returns the cashback captured by a record:
// |amount| * percent + fixed share.
func Cashback(r model.Record) decimal.Decimal {
	raw := r.Amount.Abs()
	return raw.Mul(NormalizePercent(r.CashbackPercent)).Add(r.CashbackFixed)
}

// EffectivePrice returns the record's magnitude after cashback. A precomputed
// final price wins over the computed one.
func EffectivePrice(r model.Record) decimal.Decimal {
	if r.FinalPrice != nil {
		return r.FinalPrice.Abs()
	}
	return r.Amount.Abs().Sub(Cashback(r))
}
