package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

// Header is the CSV header of a record file.
const Header = "id,person_id,kind,amount,tag,occurred_at,status,cashback_percent,cashback_fixed,final_price,metadata,account_id"

const (
	numFields     = 12
	dateFormat    = "2006-01-02"
	colID         = 0
	colPerson     = 1
	colKind       = 2
	colAmount     = 3
	colTag        = 4
	colOccurredAt = 5
	colStatus     = 6
	colCbPercent  = 7
	colCbFixed    = 8
	colFinalPrice = 9
	colMetadata   = 10
	colAccount    = 11
)

// ErrMissingPerson is returned for a row without a person_id.
var ErrMissingPerson = errors.New("person_id is required")

// RowError ties a problem to a 1-based CSV line.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, %s: %v", e.Row, e.Column, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// RecordParser reads the native record CSV layout.
type RecordParser struct {
	// NewID mints ids for rows with a blank id column. Defaults to uuid.NewString.
	NewID func() string
}

// Format returns the parser name.
func (p *RecordParser) Format() string { return "records" }

// Parse reads a record CSV. Numeric cells that do not parse are loaded as
// zero and reported in Batch.Warnings. Rows without a person or with an
// unreadable timestamp fail the whole file.
func (p *RecordParser) Parse(r io.Reader) (Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("reading record CSV: %w", err)
	}
	if len(rows) <= 1 {
		return Batch{}, nil
	}

	newID := p.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	var b Batch
	for i, row := range rows[1:] {
		line := i + 2
		rec, warnings, err := UnmarshalRecord(row, line)
		if err != nil {
			return Batch{}, err
		}
		if rec.ID == "" {
			rec.ID = newID()
		}
		b.Records = append(b.Records, rec)
		b.Warnings = append(b.Warnings, warnings...)
	}
	return b, nil
}

// UnmarshalRecord converts a CSV row into a Record. line is used in errors.
func UnmarshalRecord(row []string, line int) (model.Record, []RowError, error) {
	if len(row) != numFields {
		return model.Record{}, nil, RowError{Row: line, Err: fmt.Errorf("expected %d fields, got %d", numFields, len(row))}
	}

	rec := model.Record{
		ID:        strings.TrimSpace(row[colID]),
		PersonID:  strings.TrimSpace(row[colPerson]),
		Kind:      model.ParseKind(row[colKind]),
		Tag:       strings.TrimSpace(row[colTag]),
		AccountID: strings.TrimSpace(row[colAccount]),
		Status:    model.RecordActive,
	}
	if rec.PersonID == "" {
		return model.Record{}, nil, RowError{Row: line, Column: "person_id", Err: ErrMissingPerson}
	}

	at, err := parseTime(row[colOccurredAt])
	if err != nil {
		return model.Record{}, nil, RowError{Row: line, Column: "occurred_at", Err: err}
	}
	rec.OccurredAt = at

	if s := strings.TrimSpace(row[colStatus]); s != "" {
		rec.Status = model.RecordStatus(strings.ToLower(s))
	}

	var warnings []RowError
	num := func(col int, name string) decimal.Decimal {
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(cell)
		if err != nil {
			warnings = append(warnings, RowError{Row: line, Column: name, Err: fmt.Errorf("not a number %q, using 0", cell)})
			return decimal.Zero
		}
		return d
	}

	rec.Amount = num(colAmount, "amount")
	rec.CashbackPercent = num(colCbPercent, "cashback_percent")
	rec.CashbackFixed = num(colCbFixed, "cashback_fixed")
	if strings.TrimSpace(row[colFinalPrice]) != "" {
		fp := num(colFinalPrice, "final_price")
		rec.FinalPrice = &fp
	}

	if m := strings.TrimSpace(row[colMetadata]); m != "" {
		if _, err := model.ParseMetadata(m); err != nil {
			warnings = append(warnings, RowError{Row: line, Column: "metadata", Err: err})
		}
		rec.Metadata = m
	}
	return rec, warnings, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

// WriteRecords writes records (including header) in the layout Parse reads.
func WriteRecords(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		row, err := MarshalRecord(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(rec model.Record) ([]string, error) {
	row := make([]string, numFields)
	row[colID] = rec.ID
	row[colPerson] = rec.PersonID
	row[colKind] = string(rec.Kind)
	row[colAmount] = rec.Amount.String()
	row[colTag] = rec.Tag
	row[colOccurredAt] = rec.OccurredAt.UTC().Format(time.RFC3339)
	row[colStatus] = string(rec.Status)

	if !rec.CashbackPercent.IsZero() {
		row[colCbPercent] = rec.CashbackPercent.String()
	}
	if !rec.CashbackFixed.IsZero() {
		row[colCbFixed] = rec.CashbackFixed.String()
	}
	if rec.FinalPrice != nil {
		row[colFinalPrice] = rec.FinalPrice.String()
	}

	text, ok, err := model.EncodeMetadata(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	if ok {
		row[colMetadata] = text
	}
	row[colAccount] = rec.AccountID
	return row, nil
}
