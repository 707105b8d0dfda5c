package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Metadata is the typed form of a record's metadata bag.
type Metadata struct {
	Targets  []string                   // cycles this repayment declares it pays off
	Strategy Strategy                   // distribution strategy for leftover surplus
	Manual   map[string]decimal.Decimal // per-cycle amounts for StrategyManual
}

// IsEmpty reports whether the bag carries nothing the engine uses.
func (m Metadata) IsEmpty() bool {
	return len(m.Targets) == 0 && m.Strategy == StrategyUnset && len(m.Manual) == 0
}

type rawMetadata struct {
	Settles  []string       `json:"settles"`
	Targets  []string       `json:"targets"`
	Strategy string         `json:"strategy"`
	Manual   map[string]any `json:"manual_allocations"`
}

// ParseMetadata decodes a metadata bag that may arrive pre-parsed or encoded.
// Accepted shapes are nil, Metadata, *Metadata, a JSON string, []byte,
// json.RawMessage and map[string]any. On error the returned Metadata is empty.
func ParseMetadata(v any) (Metadata, error) {
	switch x := v.(type) {
	case nil:
		return Metadata{}, nil
	case Metadata:
		return x.normalize(), nil
	case *Metadata:
		if x == nil {
			return Metadata{}, nil
		}
		return x.normalize(), nil
	case string:
		return decodeMetadata([]byte(x))
	case []byte:
		return decodeMetadata(x)
	case json.RawMessage:
		return decodeMetadata(x)
	case map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return Metadata{}, fmt.Errorf("re-encoding metadata: %w", err)
		}
		return decodeMetadata(data)
	default:
		return Metadata{}, fmt.Errorf("unsupported metadata type %T", v)
	}
}

func decodeMetadata(data []byte) (Metadata, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Metadata{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawMetadata
	if err := dec.Decode(&raw); err != nil {
		return Metadata{}, fmt.Errorf("decoding metadata: %w", err)
	}

	m := Metadata{
		Targets:  append(raw.Settles, raw.Targets...),
		Strategy: ParseStrategy(raw.Strategy),
	}
	if len(raw.Manual) > 0 {
		m.Manual = make(map[string]decimal.Decimal, len(raw.Manual))
		for tag, v := range raw.Manual {
			m.Manual[tag] = Coerce(v)
		}
	}
	return m.normalize(), nil
}

// normalize trims and dedupes target labels and normalizes manual keys.
func (m Metadata) normalize() Metadata {
	out := Metadata{Strategy: m.Strategy}
	if len(m.Targets) > 0 {
		out.Targets = DedupeTags(m.Targets)
	}
	if len(m.Manual) > 0 {
		out.Manual = make(map[string]decimal.Decimal, len(m.Manual))
		for tag, amt := range m.Manual {
			out.Manual[NormalizeTag(tag)] = amt
		}
	}
	return out
}

// ParseStrategy maps a strategy name onto a Strategy. Unknown names are unset.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyOldest:
		return StrategyOldest
	case StrategyNewest:
		return StrategyNewest
	case StrategyManual:
		return StrategyManual
	default:
		return StrategyUnset
	}
}

// DedupeTags normalizes labels and drops repeats, keeping first-seen order.
// Blank labels are dropped rather than mapped to UntaggedTag.
func DedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

type encodedMetadata struct {
	Settles  []string                   `json:"settles,omitempty"`
	Strategy Strategy                   `json:"strategy,omitempty"`
	Manual   map[string]decimal.Decimal `json:"manual_allocations,omitempty"`
}

// EncodeMetadata renders a metadata bag as JSON text for storage. Strings and
// raw bytes are passed through untouched; ok is false when there is nothing
// to store.
func EncodeMetadata(v any) (text string, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, strings.TrimSpace(x) != "", nil
	case []byte:
		return string(x), len(bytes.TrimSpace(x)) > 0, nil
	case json.RawMessage:
		return string(x), len(bytes.TrimSpace(x)) > 0, nil
	}

	m, err := ParseMetadata(v)
	if err != nil {
		return "", false, err
	}
	if m.IsEmpty() {
		return "", false, nil
	}
	data, err := json.Marshal(encodedMetadata{Settles: m.Targets, Strategy: m.Strategy, Manual: m.Manual})
	if err != nil {
		return "", false, fmt.Errorf("encoding metadata: %w", err)
	}
	return string(data), true, nil
}
