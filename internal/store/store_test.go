package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/crewledger/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func strp(s string) *string { return &s }

func testBatch(id string, created time.Time) model.ImportBatch {
	return model.ImportBatch{
		ID:         id,
		SourceFile: "export.csv",
		CreatedAt:  created,
		Status:     model.BatchCompleted,
		MatchLog:   "line,pool\n",
	}
}

func testRow(batchID string, line, d int, amount, name string) model.CommittedRow {
	return model.CommittedRow{
		ID:          batchID + "-" + name,
		BatchID:     batchID,
		Line:        line,
		Category:    "Materials",
		Amount:      decimal.RequireFromString(amount),
		Date:        day(d),
		Description: "desc",
		Kind:        model.KindExpense,
		AccountPath: "Expenses:Materials",
		SourceName:  name,
		DedupKey:    "2025-01-15|" + amount + "|" + name,
	}
}

func TestOpen_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestEntities(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "v-hd", Pool: model.PoolVendors, DisplayName: "Home Depot",
		Aliases: []model.Alias{{Value: "HD", Match: model.AliasExact}}}))
	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "p-101", Pool: model.PoolProjects, Number: "24-101", DisplayName: "Smith Remodel"}))
	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "c-smith", Pool: model.PoolClients, DisplayName: "Smith"}))
	require.NoError(t, s.AddAlias(ctx, "v-hd", model.Alias{Value: "depot", Match: model.AliasContains}))

	err := s.AddAlias(ctx, "v-missing", model.Alias{Value: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	// Upsert renames without losing aliases.
	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "c-smith", Pool: model.PoolClients, DisplayName: "Smith Family"}))

	pools, err := s.LoadPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools.Vendors, 1)
	assert.Len(t, pools.Vendors[0].Aliases, 2)
	require.Len(t, pools.Projects, 1)
	assert.Equal(t, "24-101", pools.Projects[0].Number)
	require.Len(t, pools.Clients, 1)
	assert.Equal(t, "Smith Family", pools.Clients[0].DisplayName)
}

func TestMappings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.SeedMappings(ctx, []model.CategoryMapping{
		{AccountPath: "Expenses:Tools", Category: "Tools & Equipment", Active: true},
		{AccountPath: "Expenses:Old", Category: "Materials", Active: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SeedMappings(ctx, []model.CategoryMapping{{AccountPath: "expenses : tools", Category: "Other", Active: true}})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "seeding never overwrites")

	active, err := s.ActiveMappings(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Tools & Equipment", active[0].Category)

	m, err := s.UpsertMapping(ctx, "Cost of Goods Sold : Dumpster Rental", "Dumpster & Waste")
	require.NoError(t, err)
	assert.Equal(t, "Cost of Goods Sold:Dumpster Rental", m.AccountPath)
	assert.True(t, m.Active)
	assert.NotZero(t, m.ID)

	m2, err := s.UpsertMapping(ctx, "expenses:old", "Tools & Equipment")
	require.NoError(t, err)
	assert.True(t, m2.Active, "upsert reactivates")

	require.NoError(t, s.SetMappingActive(ctx, "Expenses:Tools", false))
	assert.ErrorIs(t, s.SetMappingActive(ctx, "Nope", true), ErrNotFound)

	all, err := s.AllMappings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	active, err = s.ActiveMappings(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestCommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "v-hd", Pool: model.PoolVendors, DisplayName: "Home Depot"}))

	b := testBatch("imp-20250120-aaaaaaaa", day(20))
	b.ImportedCount = 2
	r1 := testRow(b.ID, 2, 15, "100.00", "Home Depot")
	r1.EntityID = strp("v-hd")
	r2 := testRow(b.ID, 3, 16, "-45.10", "Lowes")
	r2.InvoiceNumber = nil
	require.NoError(t, s.CommitBatch(ctx, b, []model.CommittedRow{r1, r2}))

	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchCompleted, got.Status)
	assert.Equal(t, 2, got.ImportedCount)
	assert.Equal(t, "line,pool\n", got.MatchLog)
	assert.True(t, got.CreatedAt.Equal(day(20)))

	rows, err := s.BatchRows(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "v-hd", *rows[0].EntityID)
	assert.Nil(t, rows[1].EntityID)
	assert.Equal(t, "-45.10", rows[1].Amount.StringFixed(2))

	n, already, err := s.RollbackBatch(ctx, b.ID, day(21))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, already)

	count, err := s.CountBatchRows(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	n, already, err = s.RollbackBatch(ctx, b.ID, day(22))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, already)

	got, err = s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchRolledBack, got.Status)
	require.NotNil(t, got.RolledBackAt)
	assert.True(t, got.RolledBackAt.Equal(day(21)))

	_, _, err = s.RollbackBatch(ctx, "imp-missing", day(21))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBatch(ctx, "imp-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommitBatch_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b := testBatch("imp-20250120-bbbbbbbb", day(20))
	good := testRow(b.ID, 2, 15, "100.00", "Home Depot")
	bad := testRow(b.ID, 3, 15, "5.00", "Ghost")
	bad.EntityID = strp("v-does-not-exist") // violates the foreign key

	err := s.CommitBatch(ctx, b, []model.CommittedRow{good, bad})
	require.Error(t, err)

	_, err = s.GetBatch(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := s.CountBatchRows(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHistoryBetween(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.UpsertEntity(ctx, model.Entity{ID: "v-hd", Pool: model.PoolVendors, DisplayName: "Home Depot"}))

	b1 := testBatch("imp-20250120-aaaaaaaa", day(20))
	r1 := testRow(b1.ID, 2, 15, "100.00", "Home Depot")
	r1.EntityID = strp("v-hd")
	r1.SourceName = ""
	r2 := testRow(b1.ID, 3, 25, "10.00", "Far Away")
	require.NoError(t, s.CommitBatch(ctx, b1, []model.CommittedRow{r1, r2}))

	b2 := testBatch("imp-20250121-bbbbbbbb", day(21))
	r3 := testRow(b2.ID, 2, 14, "7.00", "Rolled")
	require.NoError(t, s.CommitBatch(ctx, b2, []model.CommittedRow{r3}))
	_, _, err := s.RollbackBatch(ctx, b2.ID, day(22))
	require.NoError(t, err)

	hist, err := s.HistoryBetween(ctx, day(14), day(16))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, r1.ID, hist[0].ID)
	assert.Equal(t, b1.ID, hist[0].BatchID)
	assert.Equal(t, "Home Depot", hist[0].EntityName)
	assert.Empty(t, hist[0].SourceName)
	assert.True(t, hist[0].Amount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, model.KindExpense, hist[0].Kind)
}

func TestDuplicateGroups(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b1 := testBatch("imp-20250120-aaaaaaaa", day(20))
	b2 := testBatch("imp-20250120-bbbbbbbb", day(20).Add(time.Minute))
	a := testRow(b1.ID, 2, 15, "100.00", "Home Depot")
	other := testRow(b1.ID, 3, 15, "9.00", "Only Once")
	dup := testRow(b2.ID, 2, 15, "100.00", "Home Depot")
	require.NoError(t, s.CommitBatch(ctx, b1, []model.CommittedRow{a, other}))
	require.NoError(t, s.CommitBatch(ctx, b2, []model.CommittedRow{dup}))

	groups, err := s.DuplicateGroups(ctx, day(1), day(31))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, a.DedupKey, groups[0].Key)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, b1.ID, groups[0].Rows[0].BatchID)
	assert.Equal(t, b2.ID, groups[0].Rows[1].BatchID)

	_, _, err = s.RollbackBatch(ctx, b2.ID, day(21))
	require.NoError(t, err)
	groups, err = s.DuplicateGroups(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListBatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CommitBatch(ctx, testBatch("imp-20250120-aaaaaaaa", day(20)), nil))
	require.NoError(t, s.CommitBatch(ctx, testBatch("imp-20250121-bbbbbbbb", day(21)), nil))

	batches, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "imp-20250121-bbbbbbbb", batches[0].ID)
	assert.Empty(t, batches[0].MatchLog)
}
