package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/debtbook/internal/logger"
	"github.com/cleared-dev/debtbook/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "debtbook.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debtbook.db")

	s, err := Open(context.Background(), path, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	fp := dec("88.5")
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	records := []model.Record{
		{
			ID: "r2", PersonID: "alice", Amount: dec("50"), Kind: model.KindRepayment,
			Tag: "Jan24", OccurredAt: at.Add(time.Hour),
			Metadata:  model.Metadata{Targets: []string{"Jan24"}, Strategy: model.StrategyNewest},
			AccountID: "checking",
		},
		{
			ID: "r1", PersonID: "alice", Amount: dec("-100"), Kind: model.KindExpense,
			Tag: "Jan24", OccurredAt: at, CashbackPercent: dec("5"), FinalPrice: &fp,
		},
		{ID: "r3", PersonID: "bob", Amount: dec("10"), Kind: model.KindDebt, OccurredAt: at},
	}
	require.NoError(t, s.InsertRecords(ctx, records))

	got, err := s.RecordsForPerson(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "r1", got[0].ID, "oldest first")
	assert.Equal(t, model.KindExpense, got[0].Kind)
	assert.True(t, got[0].Amount.Equal(dec("-100")))
	assert.True(t, got[0].CashbackPercent.Equal(dec("5")))
	require.NotNil(t, got[0].FinalPrice)
	assert.True(t, got[0].FinalPrice.Equal(fp))
	assert.Nil(t, got[0].Metadata)
	assert.Equal(t, model.RecordActive, got[0].Status)
	assert.True(t, got[0].OccurredAt.Equal(at))

	assert.Equal(t, "checking", got[1].AccountID)
	meta, err := model.ParseMetadata(got[1].Metadata)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan24"}, meta.Targets)
	assert.Equal(t, model.StrategyNewest, meta.Strategy)

	people, err := s.People(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, people)
}

func TestRecords_DuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	at := time.Now().UTC()
	err := s.InsertRecords(ctx, []model.Record{
		{ID: "a", PersonID: "p", Amount: dec("1"), Kind: model.KindDebt, OccurredAt: at},
		{ID: "a", PersonID: "p", Amount: dec("2"), Kind: model.KindDebt, OccurredAt: at},
	})
	assert.Error(t, err)

	got, err := s.RecordsForPerson(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVoidRecord(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertRecords(ctx, []model.Record{
		{ID: "a", PersonID: "p", Amount: dec("1"), Kind: model.KindDebt, OccurredAt: time.Now()},
	}))
	require.NoError(t, s.VoidRecord(ctx, "a"))

	got, err := s.RecordsForPerson(ctx, "p")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.RecordVoid, got[0].Status)

	assert.Error(t, s.VoidRecord(ctx, "missing"))
}

func TestSaveStamps_SettleAndReopen(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveStamps(ctx, "p", 0, []model.Stamp{
		{PersonID: "p", Tag: "Jan24", Status: model.EntrySettled, TransactionID: "tx1", ByTag: "Feb24"},
	}))

	got, err := s.Stamps(ctx, "p")
	require.NoError(t, err)
	require.Contains(t, got, "Jan24")
	assert.Equal(t, model.EntrySettled, got["Jan24"].Status)
	assert.Equal(t, "tx1", got["Jan24"].TransactionID)
	assert.Equal(t, "Feb24", got["Jan24"].ByTag)
	assert.EqualValues(t, 1, got["Jan24"].Version)

	require.NoError(t, s.SaveStamps(ctx, "p", 0, []model.Stamp{
		{PersonID: "p", Tag: "Jan24", Status: model.EntryActive, TransactionID: "tx1", ByTag: "Feb24"},
	}))
	got, err = s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, model.EntryActive, got["Jan24"].Status)
	assert.EqualValues(t, 2, got["Jan24"].Version)
}

func TestSaveStamps_RejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.SaveStamps(ctx, "p", 0, []model.Stamp{
		{PersonID: "p", Tag: "Jan24", Status: model.EntrySettled},
		{PersonID: "p", Tag: "Feb24", Status: "paid"},
	})
	assert.Error(t, err)

	got, err := s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, got, "whole batch rolled back")
}

func repayment(id string, amount string) model.Record {
	return model.Record{
		ID: id, PersonID: "p", Amount: dec(amount), Kind: model.KindRepayment, Tag: "Jan24",
		OccurredAt: time.Now().UTC(),
	}
}

func TestCommitSettlement(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	records := []model.Record{repayment("tx1", "40")}
	stamps := []model.Stamp{{PersonID: "p", Tag: "Jan24", Status: model.EntrySettled, TransactionID: "tx1", ByTag: "Jan24"}}
	require.NoError(t, s.CommitSettlement(ctx, "p", 0, records, stamps))

	snap, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
	assert.EqualValues(t, 1, snap.Version)

	st, err := s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "tx1", st["Jan24"].TransactionID)

	// Re-committing the same record id fails and leaves the stamp untouched.
	stamps[0].TransactionID = "tx2"
	err = s.CommitSettlement(ctx, "p", snap.Version, records, stamps)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	st, err = s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "tx1", st["Jan24"].TransactionID)

	after, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, snap.Version, after.Version, "failed commit does not advance the version")
}

func TestCommitSettlement_StaleSnapshotConflicts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertRecords(ctx, []model.Record{
		{ID: "d1", PersonID: "p", Amount: dec("100"), Kind: model.KindDebt, Tag: "Jan24", OccurredAt: time.Now().UTC()},
	}))

	first, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	second, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	require.Equal(t, first.Version, second.Version)

	stamp := func(tx string) []model.Stamp {
		return []model.Stamp{{PersonID: "p", Tag: "Jan24", Status: model.EntrySettled, TransactionID: tx, ByTag: "Jan24"}}
	}
	require.NoError(t, s.CommitSettlement(ctx, "p", first.Version, []model.Record{repayment("tx1", "100")}, stamp("tx1")))

	err = s.CommitSettlement(ctx, "p", second.Version, []model.Record{repayment("tx2", "100")}, stamp("tx2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	snap, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	ids := make([]string, 0, len(snap.Records))
	for _, r := range snap.Records {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"d1", "tx1"}, ids, "the debt is paid once")

	st, err := s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "tx1", st["Jan24"].TransactionID)
}

func TestSnapshot_VersionFollowsWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	snap, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, snap.Version)
	assert.Empty(t, snap.Records)

	require.NoError(t, s.InsertRecords(ctx, []model.Record{
		{ID: "a", PersonID: "p", Amount: dec("1"), Kind: model.KindDebt, OccurredAt: time.Now()},
		{ID: "b", PersonID: "p", Amount: dec("2"), Kind: model.KindDebt, OccurredAt: time.Now()},
		{ID: "c", PersonID: "q", Amount: dec("3"), Kind: model.KindDebt, OccurredAt: time.Now()},
	}))
	snap, err = s.Snapshot(ctx, "p")
	require.NoError(t, err)
	assert.EqualValues(t, 1, snap.Version, "one import is one change")

	require.NoError(t, s.VoidRecord(ctx, "a"))
	voided, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)
	assert.EqualValues(t, 2, voided.Version)

	other, err := s.Snapshot(ctx, "q")
	require.NoError(t, err)
	assert.EqualValues(t, 1, other.Version, "voiding p leaves q alone")

	// A settlement planned before the void is stale.
	err = s.CommitSettlement(ctx, "p", snap.Version, []model.Record{repayment("tx1", "2")}, nil)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSaveStamps_StaleSnapshotConflicts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertRecords(ctx, []model.Record{
		{ID: "d1", PersonID: "p", Amount: dec("100"), Kind: model.KindDebt, Tag: "Jan24", OccurredAt: time.Now().UTC()},
	}))
	snap, err := s.Snapshot(ctx, "p")
	require.NoError(t, err)

	require.NoError(t, s.CommitSettlement(ctx, "p", snap.Version, []model.Record{repayment("tx1", "100")},
		[]model.Stamp{{PersonID: "p", Tag: "Jan24", Status: model.EntrySettled, TransactionID: "tx1", ByTag: "Jan24"}}))

	// Stamps derived before the settlement would reopen the cycle.
	err = s.SaveStamps(ctx, "p", snap.Version, []model.Stamp{{PersonID: "p", Tag: "Jan24", Status: model.EntryActive}})
	assert.ErrorIs(t, err, ErrConflict)

	st, err := s.Stamps(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, model.EntrySettled, st["Jan24"].Status)
}

func TestRecordsForPerson_SubsecondOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	at := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertRecords(ctx, []model.Record{
		{ID: "a", PersonID: "p", Amount: dec("1"), Kind: model.KindDebt, OccurredAt: at.Add(500 * time.Millisecond)},
		{ID: "b", PersonID: "p", Amount: dec("1"), Kind: model.KindDebt, OccurredAt: at},
	}))

	got, err := s.RecordsForPerson(ctx, "p")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.True(t, got[1].OccurredAt.Equal(at.Add(500*time.Millisecond)))
}
