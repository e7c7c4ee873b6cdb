// Package batch commits import runs as auditable batches and rolls them back.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewledger/crewledger/internal/id"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/store"
)

var (
	ErrBatchNotFound  = errors.New("batch not found")
	ErrInvalidBatchID = errors.New("invalid batch id")
	ErrCommitFailed   = errors.New("commit failed")
)

// ResolveID accepts a batch id or the id of a row it committed and returns the
// batch id.
func ResolveID(ref string) (string, error) {
	if b := id.BatchOf(ref); b != "" {
		return b, nil
	}
	if _, _, err := id.ParseBatchID(ref); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidBatchID, ref)
	}
	return ref, nil
}

// CommitError is fatal for the batch: nothing was written and the whole batch
// must be retried.
type CommitError struct {
	BatchID string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing batch %s: %v", e.BatchID, e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailed, e.Err} }

// Store is the persistence the service needs.
type Store interface {
	CommitBatch(ctx context.Context, b model.ImportBatch, rows []model.CommittedRow) error
	RollbackBatch(ctx context.Context, id string, at time.Time) (reverted int, already bool, err error)
	GetBatch(ctx context.Context, id string) (model.ImportBatch, error)
	ListBatches(ctx context.Context) ([]model.ImportBatch, error)
	BatchRows(ctx context.Context, id string) ([]model.CommittedRow, error)
	DuplicateGroups(ctx context.Context, from, to time.Time) ([]store.DuplicateGroup, error)
}

// Service provides commit, rollback and audit over import batches.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a batch Service.
func NewService(s Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// CommitRequest holds the resolved rows of one import run.
type CommitRequest struct {
	SourceFile     string
	Rows           []model.CommittedRow // ID and BatchID are assigned by Commit
	DuplicateCount int
	ErrorCount     int
	MatchLog       []matchlog.Entry
}

// Summary is the post-commit result shown to the reviewer.
type Summary struct {
	BatchID        string            `json:"batchId"`
	ImportedCount  int               `json:"importedCount"`
	DuplicateCount int               `json:"duplicateCount"`
	ErrorCount     int               `json:"errorCount"`
	Status         model.BatchStatus `json:"status"`
}

// Commit writes all rows tagged with a fresh batch id, together with the
// serialized match log, in a single transaction. An empty row set still
// records a batch so re-uploads stay auditable.
func (s *Service) Commit(ctx context.Context, req CommitRequest) (Summary, error) {
	now := s.now()
	batchID := id.NewBatchID(now)
	log := logger.FromContext(ctx).With("batch_id", batchID, "file", req.SourceFile)

	encoded, err := matchlog.Encode(req.MatchLog)
	if err != nil {
		return Summary{}, &CommitError{BatchID: batchID, Err: fmt.Errorf("encoding match log: %w", err)}
	}

	rows := make([]model.CommittedRow, len(req.Rows))
	for i, r := range req.Rows {
		r.ID = id.FormatRowID(batchID, i+1)
		r.BatchID = batchID
		rows[i] = r
	}

	b := model.ImportBatch{
		ID:             batchID,
		SourceFile:     req.SourceFile,
		CreatedAt:      now,
		ImportedCount:  len(rows),
		DuplicateCount: req.DuplicateCount,
		ErrorCount:     req.ErrorCount,
		Status:         model.BatchCompleted,
		MatchLog:       encoded,
	}
	if err := s.store.CommitBatch(ctx, b, rows); err != nil {
		log.Error("commit failed", "error", err)
		return Summary{}, &CommitError{BatchID: batchID, Err: err}
	}

	log.Info("batch committed", "imported", b.ImportedCount, "duplicates", b.DuplicateCount, "errors", b.ErrorCount)
	return Summary{
		BatchID:        batchID,
		ImportedCount:  b.ImportedCount,
		DuplicateCount: b.DuplicateCount,
		ErrorCount:     b.ErrorCount,
		Status:         b.Status,
	}, nil
}

// RollbackResult reports what a rollback did.
type RollbackResult struct {
	BatchID           string            `json:"batchId"`
	RowsReverted      int               `json:"rowsReverted"`
	Status            model.BatchStatus `json:"status"`
	AlreadyRolledBack bool              `json:"alreadyRolledBack"`
}

// Rollback deletes every row tagged with batchID and flips the batch status.
// Rolling back an already rolled-back batch is a no-op.
func (s *Service) Rollback(ctx context.Context, batchID string) (RollbackResult, error) {
	batchID, err := ResolveID(batchID)
	if err != nil {
		return RollbackResult{}, err
	}
	n, already, err := s.store.RollbackBatch(ctx, batchID, s.now())
	if err != nil {
		return RollbackResult{}, notFound(batchID, err)
	}
	logger.FromContext(ctx).Info("batch rolled back", "batch_id", batchID, "rows", n, "already", already)
	return RollbackResult{
		BatchID:           batchID,
		RowsReverted:      n,
		Status:            model.BatchRolledBack,
		AlreadyRolledBack: already,
	}, nil
}

// Get returns a batch. batchID may also be the id of one of its rows.
func (s *Service) Get(ctx context.Context, batchID string) (model.ImportBatch, error) {
	batchID, err := ResolveID(batchID)
	if err != nil {
		return model.ImportBatch{}, err
	}
	b, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return model.ImportBatch{}, notFound(batchID, err)
	}
	return b, nil
}

// List returns all batches, newest first.
func (s *Service) List(ctx context.Context) ([]model.ImportBatch, error) {
	return s.store.ListBatches(ctx)
}

// Rows returns the rows a batch committed. Empty after rollback.
func (s *Service) Rows(ctx context.Context, batchID string) ([]model.CommittedRow, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return s.store.BatchRows(ctx, b.ID)
}

// MatchLog decodes the match log stored with a batch.
func (s *Service) MatchLog(ctx context.Context, batchID string) ([]matchlog.Entry, error) {
	b, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	entries, err := matchlog.Decode(b.MatchLog)
	if err != nil {
		return nil, fmt.Errorf("decoding match log of %s: %w", b.ID, err)
	}
	return entries, nil
}

// Sweep reports rows committed more than once by different batches within
// [from, to]. Concurrent imports over overlapping dates can both miss each
// other in the history check; the sweep finds what they let through.
func (s *Service) Sweep(ctx context.Context, from, to time.Time) ([]store.DuplicateGroup, error) {
	groups, err := s.store.DuplicateGroups(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("sweeping duplicates: %w", err)
	}
	if len(groups) > 0 {
		logger.FromContext(ctx).Warn("cross-batch duplicates found", "groups", len(groups))
	}
	return groups, nil
}

func notFound(batchID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return err
}
