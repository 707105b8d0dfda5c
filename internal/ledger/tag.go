package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/debtbook/internal/model"
)

// TagParser turns a cycle label into the first instant of its period.
type TagParser interface {
	ParseTag(tag string) (time.Time, bool)
}

// TagParserFunc adapts a function to TagParser.
type TagParserFunc func(tag string) (time.Time, bool)

// ParseTag calls f.
func (f TagParserFunc) ParseTag(tag string) (time.Time, bool) { return f(tag) }

var shortMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	shortMonthRe = regexp.MustCompile(`^([A-Za-z]{3})[ \-/.]?(\d{2}|\d{4})$`)
	isoMonthRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
)

// ShortMonthParser parses month-year tokens such as "Jan24", "JAN-24" or
// "jan 2024". Two-digit years are in the 2000s.
var ShortMonthParser TagParser = TagParserFunc(func(tag string) (time.Time, bool) {
	m := shortMonthRe.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := shortMonths[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		year += 2000
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
})

// ISOMonthParser parses "2024-01" style labels.
var ISOMonthParser TagParser = TagParserFunc(func(tag string) (time.Time, bool) {
	m := isoMonthRe.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
})

// ChainParser tries each parser in order.
type ChainParser []TagParser

// ParseTag returns the first successful parse.
func (c ChainParser) ParseTag(tag string) (time.Time, bool) {
	for _, p := range c {
		if t, ok := p.ParseTag(tag); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParserForFormat returns the parser for a configured tag format:
// "short-month" (default), "iso" or "auto".
func ParserForFormat(format string) TagParser {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "iso":
		return ISOMonthParser
	case "auto":
		return ChainParser{ShortMonthParser, ISOMonthParser}
	default:
		return ShortMonthParser
	}
}

// Comparator orders cycle labels. When both labels parse they compare
// chronologically, with ties broken lexically; otherwise they compare as
// plain strings. Mixing parseable and unparseable labels can make the order
// intransitive, so pick a parser that matches the label scheme in use.
type Comparator struct {
	parser TagParser
}

// NewComparator returns a Comparator using p. A nil p uses ShortMonthParser.
func NewComparator(p TagParser) Comparator {
	if p == nil {
		p = ShortMonthParser
	}
	return Comparator{parser: p}
}

// Compare returns -1, 0 or 1.
func (c Comparator) Compare(a, b string) int {
	p := c.parser
	if p == nil {
		p = ShortMonthParser
	}
	ta, okA := p.ParseTag(a)
	tb, okB := p.ParseTag(b)
	if okA && okB {
		if n := ta.Compare(tb); n != 0 {
			return n
		}
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func (c Comparator) Less(a, b string) bool {
	return c.Compare(a, b) < 0
}

// SortAscending sorts entries oldest cycle first.
func (c Comparator) SortAscending(entries []model.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return c.Less(entries[i].Tag, entries[j].Tag)
	})
}

// SortDescending sorts entries most recent cycle first.
func (c Comparator) SortDescending(entries []model.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return c.Less(entries[j].Tag, entries[i].Tag)
	})
}
