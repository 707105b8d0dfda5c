package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the transaction kind of a record.
type Kind string

const (
	KindIncome    Kind = "income"
	KindExpense   Kind = "expense"
	KindTransfer  Kind = "transfer"
	KindDebt      Kind = "debt"
	KindRepayment Kind = "repayment"
)

// RecordStatus is the lifecycle state of a record.
type RecordStatus string

const (
	RecordActive RecordStatus = "active"
	RecordVoid   RecordStatus = "void"
)

// UntaggedTag is the cycle label given to records without one.
const UntaggedTag = "UNTAGGED"

// Record is one debt-relevant transaction row for a person.
type Record struct {
	ID              string
	PersonID        string
	Amount          decimal.Decimal // signed as entered
	Kind            Kind
	Tag             string // cycle label, "" = untagged
	OccurredAt      time.Time
	Status          RecordStatus
	CashbackPercent decimal.Decimal // 10 and 0.10 both mean ten percent
	CashbackFixed   decimal.Decimal
	FinalPrice      *decimal.Decimal // nil when not precomputed
	Metadata        any              // see ParseMetadata for accepted shapes
	AccountID       string           // payment account, set on settlement repayments
}

// CycleTag returns the record's normalized cycle label.
func (r Record) CycleTag() string {
	return NormalizeTag(r.Tag)
}

// NormalizeTag trims a cycle label and maps the empty label to UntaggedTag.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return UntaggedTag
	}
	return tag
}

// ParseKind maps a free-form kind string onto a Kind. Unknown kinds are kept
// verbatim so the resolver can treat them as debits.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}
