package pipeline

import (
	"context"
	"time"

	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/store"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store is everything an import run reads before commit and writes at commit.
// *store.Store implements it.
type Store interface {
	LoadPools(ctx context.Context) (model.Pools, error)
	ActiveMappings(ctx context.Context) ([]model.CategoryMapping, error)
	UpsertMapping(ctx context.Context, path, category string) (model.CategoryMapping, error)
	HistoryBetween(ctx context.Context, from, to time.Time) ([]model.HistoricalRow, error)

	CommitBatch(ctx context.Context, b model.ImportBatch, rows []model.CommittedRow) error
	RollbackBatch(ctx context.Context, id string, at time.Time) (reverted int, already bool, err error)
	GetBatch(ctx context.Context, id string) (model.ImportBatch, error)
	ListBatches(ctx context.Context) ([]model.ImportBatch, error)
	BatchRows(ctx context.Context, id string) ([]model.CommittedRow, error)
	DuplicateGroups(ctx context.Context, from, to time.Time) ([]store.DuplicateGroup, error)
}

var _ Store = (*store.Store)(nil)
