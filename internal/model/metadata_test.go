package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata_EncodedString(t *testing.T) {
	m, err := ParseMetadata(`{"settles":["Jan24"," Feb24 ","Jan24"],"strategy":"Newest","manual_allocations":{"Mar24":"40.5","Apr24":12}}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"Jan24", "Feb24"}, m.Targets)
	assert.Equal(t, StrategyNewest, m.Strategy)
	require.Len(t, m.Manual, 2)
	assert.Equal(t, "40.5", m.Manual["Mar24"].String())
	assert.Equal(t, "12", m.Manual["Apr24"].String())
}

func TestParseMetadata_Shapes(t *testing.T) {
	want := Metadata{Targets: []string{"Jan24"}, Strategy: StrategyOldest}

	tests := []struct {
		name string
		in   any
	}{
		{"bytes", []byte(`{"targets":["Jan24"],"strategy":"oldest"}`)},
		{"raw message", json.RawMessage(`{"settles":["Jan24"],"strategy":"oldest"}`)},
		{"map", map[string]any{"settles": []any{"Jan24"}, "strategy": "oldest"}},
		{"struct", Metadata{Targets: []string{"Jan24", "Jan24"}, Strategy: StrategyOldest}},
		{"pointer", &Metadata{Targets: []string{"Jan24"}, Strategy: StrategyOldest}},
	}
	for _, tt := range tests {
		got, err := ParseMetadata(tt.in)
		require.NoError(t, err, tt.name)
		assert.Equal(t, want, got, tt.name)
	}
}

func TestParseMetadata_Empty(t *testing.T) {
	for _, in := range []any{nil, "", "  ", "null", (*Metadata)(nil)} {
		m, err := ParseMetadata(in)
		require.NoError(t, err)
		assert.True(t, m.IsEmpty(), "input %#v", in)
	}
}

func TestParseMetadata_Malformed(t *testing.T) {
	m, err := ParseMetadata(`{"settles": "Jan24"`)
	assert.Error(t, err)
	assert.True(t, m.IsEmpty())

	m, err = ParseMetadata(42)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metadata type")
	assert.True(t, m.IsEmpty())
}

func TestParseMetadata_NonNumericManualIsZero(t *testing.T) {
	m, err := ParseMetadata(`{"strategy":"manual","manual_allocations":{"Jan24":"lots","Feb24":null}}`)
	require.NoError(t, err)
	assert.True(t, m.Manual["Jan24"].IsZero())
	assert.True(t, m.Manual["Feb24"].IsZero())
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyOldest, ParseStrategy("oldest"))
	assert.Equal(t, StrategyNewest, ParseStrategy(" NEWEST "))
	assert.Equal(t, StrategyManual, ParseStrategy("manual"))
	assert.Equal(t, StrategyUnset, ParseStrategy("fifo"))
	assert.Equal(t, StrategyUnset, ParseStrategy(""))
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "0"},
		{"12.50", "12.5"},
		{"abc", "0"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
		{1.25, "1.25"},
		{7, "7"},
		{int64(-3), "-3"},
		{json.Number("9.99"), "9.99"},
		{decimal.RequireFromString("4.2"), "4.2"},
		{struct{}{}, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Coerce(tt.in).String(), "Coerce(%#v)", tt.in)
	}
}

func TestIsSettled(t *testing.T) {
	assert.True(t, IsSettled(decimal.Zero))
	assert.True(t, IsSettled(decimal.RequireFromString("0.009")))
	assert.True(t, IsSettled(decimal.RequireFromString("-0.009")))
	assert.False(t, IsSettled(decimal.RequireFromString("0.01")))
	assert.False(t, IsSettled(decimal.RequireFromString("-0.01")))
	assert.Equal(t, EntrySettled, StatusFor(decimal.RequireFromString("0.001")))
	assert.Equal(t, EntryActive, StatusFor(decimal.NewFromInt(5)))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, UntaggedTag, NormalizeTag(""))
	assert.Equal(t, UntaggedTag, NormalizeTag("   "))
	assert.Equal(t, "Jan24", NormalizeTag(" Jan24 "))
	assert.Equal(t, UntaggedTag, Record{}.CycleTag())
}

func TestLedgerEntryClone(t *testing.T) {
	e := LedgerEntry{
		Tag:     "Jan24",
		Targets: []string{"Feb24"},
		Manual:  map[string]decimal.Decimal{"Feb24": decimal.NewFromInt(1)},
	}
	c := e.Clone()
	c.Targets[0] = "Mar24"
	c.Manual["Feb24"] = decimal.NewFromInt(2)

	assert.Equal(t, "Feb24", e.Targets[0])
	assert.Equal(t, "1", e.Manual["Feb24"].String())
}

func TestEncodeMetadata(t *testing.T) {
	text, ok, err := EncodeMetadata(Metadata{
		Targets:  []string{"Jan24"},
		Strategy: StrategyManual,
		Manual:   map[string]decimal.Decimal{"Feb24": decimal.RequireFromString("12.5")},
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"settles":["Jan24"],"strategy":"manual","manual_allocations":{"Feb24":"12.5"}}`, text)

	back, err := ParseMetadata(text)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan24"}, back.Targets)
	assert.Equal(t, "12.5", back.Manual["Feb24"].String())

	text, ok, err = EncodeMetadata(`{"broken"`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"broken"`, text)

	_, ok, err = EncodeMetadata(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = EncodeMetadata(Metadata{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = EncodeMetadata(3.5)
	assert.Error(t, err)
}
