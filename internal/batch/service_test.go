package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st), st
}

func row(line int, amount, name string) model.CommittedRow {
	return model.CommittedRow{
		Line:        line,
		Category:    "Materials",
		Amount:      decimal.RequireFromString(amount),
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Kind:        model.KindExpense,
		AccountPath: "Expenses:Materials",
		SourceName:  name,
		DedupKey:    "2025-01-15|" + amount + "|" + name,
	}
}

func TestCommit_AssignsIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sum, err := svc.Commit(ctx, CommitRequest{
		SourceFile:     "jan.csv",
		Rows:           []model.CommittedRow{row(2, "100.00", "home depot"), row(3, "45.00", "lowes")},
		DuplicateCount: 1,
		ErrorCount:     2,
		MatchLog:       []matchlog.Entry{{Line: 2, Pool: model.PoolVendors, Input: "Home Depot", Decision: matchlog.DecisionUnresolved}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^imp-\d{8}-[0-9a-f]{8}$`, sum.BatchID)
	assert.Equal(t, 2, sum.ImportedCount)
	assert.Equal(t, 1, sum.DuplicateCount)
	assert.Equal(t, 2, sum.ErrorCount)
	assert.Equal(t, model.BatchCompleted, sum.Status)

	rows, err := svc.Rows(ctx, sum.BatchID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sum.BatchID+"-0001", rows[0].ID)
	assert.Equal(t, sum.BatchID, rows[1].BatchID)

	log, err := svc.MatchLog(ctx, sum.BatchID)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "Home Depot", log[0].Input)
}

func TestCommit_EmptyStillRecordsBatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sum, err := svc.Commit(ctx, CommitRequest{SourceFile: "jan.csv", DuplicateCount: 5})
	require.NoError(t, err)
	assert.Zero(t, sum.ImportedCount)

	b, err := svc.Get(ctx, sum.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 5, b.DuplicateCount)
}

func TestCommit_FailureIsCommitError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	bad := row(2, "1.00", "ghost")
	missing := "v-missing"
	bad.EntityID = &missing

	_, err := svc.Commit(ctx, CommitRequest{SourceFile: "jan.csv", Rows: []model.CommittedRow{row(3, "2.00", "ok"), bad}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitFailed)
	var ce *CommitError
	require.True(t, errors.As(err, &ce))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no partial writes")
}

func TestRollback_Completeness(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	sum, err := svc.Commit(ctx, CommitRequest{SourceFile: "jan.csv", Rows: []model.CommittedRow{row(2, "100.00", "a"), row(3, "5.00", "b")}})
	require.NoError(t, err)

	res, err := svc.Rollback(ctx, sum.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsReverted)
	assert.Equal(t, model.BatchRolledBack, res.Status)
	assert.False(t, res.AlreadyRolledBack)

	n, err := st.CountBatchRows(ctx, sum.BatchID)
	require.NoError(t, err)
	assert.Zero(t, n)

	again, err := svc.Rollback(ctx, sum.BatchID)
	require.NoError(t, err, "second rollback is a no-op")
	assert.Zero(t, again.RowsReverted)
	assert.True(t, again.AlreadyRolledBack)
	assert.Equal(t, model.BatchRolledBack, again.Status)

	b, err := svc.Get(ctx, sum.BatchID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchRolledBack, b.Status)
}

func TestRollback_UnknownBatch(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Rollback(context.Background(), "imp-20250101-deadbeef")
	assert.ErrorIs(t, err, ErrBatchNotFound)

	_, err = svc.MatchLog(context.Background(), "imp-20250101-deadbeef")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestInvalidBatchIDSkipsStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, bad := range []string{"", "nope", "imp-2025-x"} {
		_, err := svc.Rollback(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidBatchID, bad)
		_, err = svc.Get(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidBatchID, bad)
	}
}

func TestResolveID(t *testing.T) {
	got, err := ResolveID("imp-20250115-abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "imp-20250115-abcd1234", got)

	got, err = ResolveID("imp-20250115-abcd1234-0002")
	require.NoError(t, err)
	assert.Equal(t, "imp-20250115-abcd1234", got)

	_, err = ResolveID("row-1")
	assert.ErrorIs(t, err, ErrInvalidBatchID)
}

func TestGet_ByRowID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	sum, err := svc.Commit(ctx, CommitRequest{SourceFile: "jan.csv", Rows: []model.CommittedRow{row(2, "10.00", "a")}})
	require.NoError(t, err)

	rows, err := svc.Rows(ctx, sum.BatchID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	b, err := svc.Get(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, sum.BatchID, b.ID)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Commit(ctx, CommitRequest{SourceFile: "a.csv", Rows: []model.CommittedRow{row(2, "100.00", "home depot")}})
	require.NoError(t, err)
	_, err = svc.Commit(ctx, CommitRequest{SourceFile: "b.csv", Rows: []model.CommittedRow{row(2, "100.00", "home depot")}})
	require.NoError(t, err)

	groups, err := svc.Sweep(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Rows, 2)
}
