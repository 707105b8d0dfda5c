package model

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Epsilon is the settlement tolerance. An entry is settled iff |net| < Epsilon.
	Epsilon = decimal.New(1, -2)

	// MinTransfer is the smallest amount the allocators will move.
	MinTransfer = decimal.New(1, -3)
)

// IsSettled reports whether a balance is within the settlement tolerance.
func IsSettled(net decimal.Decimal) bool {
	return net.Abs().LessThan(Epsilon)
}

// StatusFor returns the entry status implied by a balance.
func StatusFor(net decimal.Decimal) EntryStatus {
	if IsSettled(net) {
		return EntrySettled
	}
	return EntryActive
}

// Coerce converts a loosely typed numeric value to a decimal. Anything that
// is not a finite number becomes zero.
func Coerce(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case int32:
		return decimal.NewFromInt32(x)
	case json.Number:
		return CoerceString(x.String())
	case string:
		return CoerceString(x)
	default:
		return decimal.Zero
	}
}

// CoerceString parses s as a decimal, returning zero when it is not numeric.
func CoerceString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

