package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/debtbook/internal/model"
)

// timeFormat is fixed width so occurred_at sorts correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is a person's records as of one read, together with the version
// that writes planned from it must still match.
type Snapshot struct {
	PersonID string
	Records  []model.Record
	Version  int64
}

// InsertRecords stores records in one transaction and advances the version
// of every person they belong to.
func (s *Store) InsertRecords(ctx context.Context, records []model.Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertRecords(ctx, tx, records); err != nil {
			return err
		}
		seen := make(map[string]bool)
		for _, r := range records {
			if seen[r.PersonID] {
				continue
			}
			seen[r.PersonID] = true
			if err := touchVersion(ctx, tx, r.PersonID); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRecords(ctx context.Context, tx *sql.Tx, records []model.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, person_id, kind, amount, tag, occurred_at, status,
			cashback_percent, cashback_fixed, final_price, metadata, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var finalPrice sql.NullString
		if r.FinalPrice != nil {
			finalPrice = sql.NullString{String: r.FinalPrice.String(), Valid: true}
		}

		text, ok, err := model.EncodeMetadata(r.Metadata)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		metadata := sql.NullString{String: text, Valid: ok}

		status := r.Status
		if status == "" {
			status = model.RecordActive
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.PersonID, string(r.Kind), r.Amount.String(), r.Tag,
			r.OccurredAt.UTC().Format(timeFormat), string(status),
			r.CashbackPercent.String(), r.CashbackFixed.String(),
			finalPrice, metadata, sql.NullString{String: r.AccountID, Valid: r.AccountID != ""},
		); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID, err)
		}
	}
	return nil
}

// RecordsForPerson returns a person's records, oldest first. Metadata is
// returned as the stored JSON text.
func (s *Store) RecordsForPerson(ctx context.Context, personID string) ([]model.Record, error) {
	snap, err := s.Snapshot(ctx, personID)
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// Snapshot reads a person's records and version in one transaction.
func (s *Store) Snapshot(ctx context.Context, personID string) (Snapshot, error) {
	snap := Snapshot{PersonID: personID}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		v, err := personVersion(ctx, tx, personID)
		if err != nil {
			return err
		}
		snap.Version = v

		rows, err := tx.QueryContext(ctx, `
			SELECT id, person_id, kind, amount, tag, occurred_at, status,
				cashback_percent, cashback_fixed, final_price, metadata, account_id
			FROM records
			WHERE person_id = ?
			ORDER BY occurred_at ASC, id ASC`, personID)
		if err != nil {
			return fmt.Errorf("querying records: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := s.scanRecord(rows)
			if err != nil {
				return err
			}
			snap.Records = append(snap.Records, r)
		}
		return rows.Err()
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading records for %s: %w", personID, err)
	}
	return snap, nil
}

func (s *Store) scanRecord(rows *sql.Rows) (model.Record, error) {
	var (
		r                                model.Record
		kind, amount, occurredAt, status string
		cbPercent, cbFixed               string
		finalPrice, metadata, accountID  sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.PersonID, &kind, &amount, &r.Tag, &occurredAt, &status,
		&cbPercent, &cbFixed, &finalPrice, &metadata, &accountID); err != nil {
		return model.Record{}, fmt.Errorf("scanning record: %w", err)
	}

	r.Kind = model.ParseKind(kind)
	r.Amount = model.CoerceString(amount)
	r.Status = model.RecordStatus(status)
	r.CashbackPercent = model.CoerceString(cbPercent)
	r.CashbackFixed = model.CoerceString(cbFixed)
	r.AccountID = accountID.String

	at, err := time.Parse(time.RFC3339Nano, occurredAt)
	if err != nil {
		s.log.Warn("unparseable record timestamp", "record", r.ID, "value", occurredAt, "error", err)
	}
	r.OccurredAt = at

	if finalPrice.Valid {
		if fp, err := decimal.NewFromString(finalPrice.String); err == nil {
			r.FinalPrice = &fp
		}
	}
	if metadata.Valid {
		r.Metadata = metadata.String
	}
	return r, nil
}

// People returns every person with at least one record.
func (s *Store) People(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT person_id FROM records ORDER BY person_id`)
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var people []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// VoidRecord marks a record void so the engine ignores it. Returns
// sql.ErrNoRows for an unknown id.
func (s *Store) VoidRecord(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var personID string
		err := tx.QueryRowContext(ctx, `SELECT person_id FROM records WHERE id = ?`, id).Scan(&personID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE records SET status = ? WHERE id = ?`, string(model.RecordVoid), id); err != nil {
			return err
		}
		return touchVersion(ctx, tx, personID)
	})
	if err != nil {
		return fmt.Errorf("voiding record %s: %w", id, err)
	}
	return nil
}
