// Package auditlog keeps an append-only CSV trail of committed allocations.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

// Entry is one row in the settlement log.
type Entry struct {
	Timestamp     time.Time
	SettlementID  string
	PersonID      string
	AccountID     string
	Phase         model.Phase
	FromTag       string
	ToTag         string
	TransactionID string
	Amount        decimal.Decimal
}

// Header is the CSV header for settlement-log.csv.
const Header = "timestamp,settlement_id,person_id,account_id,phase,from_tag,to_tag,transaction_id,amount"

const (
	numFields        = 9
	fileName         = "settlement-log.csv"
	colTimestamp     = 0
	colSettlementID  = 1
	colPersonID      = 2
	colAccountID     = 3
	colPhase         = 4
	colFromTag       = 5
	colToTag         = 6
	colTransactionID = 7
	colAmount        = 8
)

// FromAllocations builds one entry per allocation of a single settlement.
func FromAllocations(settlementID, personID, accountID string, at time.Time, allocs []model.Allocation) []Entry {
	out := make([]Entry, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, Entry{
			Timestamp:     at,
			SettlementID:  settlementID,
			PersonID:      personID,
			AccountID:     accountID,
			Phase:         a.Phase,
			FromTag:       a.FromTag,
			ToTag:         a.ToTag,
			TransactionID: a.FromTransactionID,
			Amount:        a.Amount,
		})
	}
	return out
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colSettlementID] = e.SettlementID
	row[colPersonID] = e.PersonID
	row[colAccountID] = e.AccountID
	row[colPhase] = string(e.Phase)
	row[colFromTag] = e.FromTag
	row[colToTag] = e.ToTag
	row[colTransactionID] = e.TransactionID
	row[colAmount] = e.Amount.StringFixed(2)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return Entry{
		Timestamp:     ts,
		SettlementID:  record[colSettlementID],
		PersonID:      record[colPersonID],
		AccountID:     record[colAccountID],
		Phase:         model.Phase(record[colPhase]),
		FromTag:       record[colFromTag],
		ToTag:         record[colToTag],
		TransactionID: record[colTransactionID],
		Amount:        amount,
	}, nil
}

// Append writes entries to <dir>/settlement-log.csv, creating the file and
// header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, fileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening settlement log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/settlement-log.csv, or nil when the
// log does not exist yet.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening settlement log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ForPerson filters entries down to one person.
func ForPerson(entries []Entry, personID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}
	return out
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading settlement log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
