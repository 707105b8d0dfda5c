package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// personVersion returns the current version of a person's records. A person
// with no records is at version 0.
func personVersion(ctx context.Context, tx *sql.Tx, personID string) (int64, error) {
	var v int64
	err := tx.QueryRowContext(ctx,
		`SELECT version FROM person_versions WHERE person_id = ?`, personID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version of %s: %w", personID, err)
	}
	return v, nil
}

// touchVersion advances a person's version unconditionally.
func touchVersion(ctx context.Context, tx *sql.Tx, personID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO person_versions (person_id, version) VALUES (?, 1)
		ON CONFLICT (person_id) DO UPDATE SET version = version + 1`, personID)
	if err != nil {
		return fmt.Errorf("advancing version of %s: %w", personID, err)
	}
	return nil
}

// advanceVersion moves a person from expected to expected+1, or fails with
// ErrConflict if another write got there first. The update takes the write
// lock before anything else in the transaction is written.
func advanceVersion(ctx context.Context, tx *sql.Tx, personID string, expected int64) error {
	var (
		res sql.Result
		err error
	)
	if expected == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO person_versions (person_id, version) VALUES (?, 1)
			ON CONFLICT (person_id) DO NOTHING`, personID)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE person_versions SET version = version + 1
			WHERE person_id = ? AND version = ?`, personID, expected)
	}
	if err != nil {
		return fmt.Errorf("advancing version of %s: %w", personID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advancing version of %s: %w", personID, err)
	}
	if n == 0 {
		return fmt.Errorf("%s changed since version %d: %w", personID, expected, ErrConflict)
	}
	return nil
}
