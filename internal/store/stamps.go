package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cleared-dev/debtbook/internal/cyclestate"
	"github.com/cleared-dev/debtbook/internal/model"
)

// StoredStamp is a persisted cycle stamp plus the number of times it was
// written.
type StoredStamp struct {
	model.Stamp
	Version int64
}

// Stamps returns the persisted stamps of a person keyed by cycle label.
func (s *Store) Stamps(ctx context.Context, personID string) (map[string]StoredStamp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, status, settled_by_transaction_id, settled_by_tag, version
		FROM cycle_settlements
		WHERE person_id = ?`, personID)
	if err != nil {
		return nil, fmt.Errorf("querying stamps for %s: %w", personID, err)
	}
	defer rows.Close()

	out := make(map[string]StoredStamp)
	for rows.Next() {
		var (
			st       StoredStamp
			status   string
			txID, by sql.NullString
		)
		if err := rows.Scan(&st.Tag, &status, &txID, &by, &st.Version); err != nil {
			return nil, fmt.Errorf("scanning stamp: %w", err)
		}
		st.PersonID = personID
		st.Status = model.EntryStatus(status)
		st.TransactionID = txID.String
		st.ByTag = by.String
		out[st.Tag] = st
	}
	return out, rows.Err()
}

// SaveStamps writes the stamps of one person in one transaction. expected
// is the Snapshot version the stamps were derived from; if the person's
// records changed since, nothing is written and ErrConflict is returned.
// Each row moves through the cycle state machine.
func (s *Store) SaveStamps(ctx context.Context, personID string, expected int64, stamps []model.Stamp) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := personVersion(ctx, tx, personID)
		if err != nil {
			return err
		}
		if current != expected {
			return fmt.Errorf("%s is at version %d, stamps were derived from %d: %w", personID, current, expected, ErrConflict)
		}
		return saveStamps(ctx, tx, stamps)
	})
}

// CommitSettlement stores the repayment records of a settlement together
// with the stamps of the cycles it closed. expected is the Snapshot version
// the settlement was planned from. A settlement planned from an older
// snapshot fails with ErrConflict and nothing is written, so two payments
// planned against the same balance cannot both be booked.
func (s *Store) CommitSettlement(ctx context.Context, personID string, expected int64, records []model.Record, stamps []model.Stamp) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := advanceVersion(ctx, tx, personID, expected); err != nil {
			return err
		}
		if err := insertRecords(ctx, tx, records); err != nil {
			return err
		}
		return saveStamps(ctx, tx, stamps)
	})
	if err != nil {
		return fmt.Errorf("committing settlement: %w", err)
	}
	s.log.Info("settlement committed", "person", personID, "records", len(records), "stamps", len(stamps))
	return nil
}

func saveStamps(ctx context.Context, tx *sql.Tx, stamps []model.Stamp) error {
	for _, st := range stamps {
		if err := saveStamp(ctx, tx, st); err != nil {
			return err
		}
	}
	return nil
}

func saveStamp(ctx context.Context, tx *sql.Tx, st model.Stamp) error {
	var current string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM cycle_settlements WHERE person_id = ? AND tag = ?`,
		st.PersonID, st.Tag).Scan(&current)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := cyclestate.Transition(ctx, model.EntryActive, st.Status); err != nil {
			return fmt.Errorf("stamp %s/%s: %w", st.PersonID, st.Tag, err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cycle_settlements (person_id, tag, status, settled_by_transaction_id, settled_by_tag)
			VALUES (?, ?, ?, ?, ?)`,
			st.PersonID, st.Tag, string(st.Status), nullable(st.TransactionID), nullable(st.ByTag))
		if err != nil {
			return fmt.Errorf("inserting stamp %s/%s: %w", st.PersonID, st.Tag, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading stamp %s/%s: %w", st.PersonID, st.Tag, err)
	}

	if err := cyclestate.Transition(ctx, model.EntryStatus(current), st.Status); err != nil {
		return fmt.Errorf("stamp %s/%s: %w", st.PersonID, st.Tag, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE cycle_settlements
		SET status = ?, settled_by_transaction_id = ?, settled_by_tag = ?,
			version = version + 1, updated_at = datetime('now')
		WHERE person_id = ? AND tag = ?`,
		string(st.Status), nullable(st.TransactionID), nullable(st.ByTag),
		st.PersonID, st.Tag)
	if err != nil {
		return fmt.Errorf("updating stamp %s/%s: %w", st.PersonID, st.Tag, err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
