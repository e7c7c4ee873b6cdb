package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/logger"
	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/reconcile"
	"github.com/crewledger/crewledger/internal/resolve"
)

// EntityOverrides holds reviewer choices: line → pool → entity id. An override
// replaces whatever the resolver decided for that row and pool.
type EntityOverrides map[int]map[model.Pool]string

// CommitOptions carries the reviewer's decisions into Commit.
type CommitOptions struct {
	OverrideReconciliation bool            `json:"override"`
	EntityOverrides        EntityOverrides `json:"entityOverrides,omitempty"`
}

// ValidationFailedError lists the commit-set invariants the rows violate.
type ValidationFailedError struct {
	Errors []reconcile.ValidationError
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("%d invariant violation(s), first: %s", len(e.Errors), e.Errors[0].Error())
}

func (e *ValidationFailedError) Unwrap() error { return ErrInvalidCommitSet }

// Commit writes the preview's unique rows as one batch. A misaligned
// reconciliation blocks unless overridden; invariant violations block always.
func (e *Engine) Commit(ctx context.Context, p *Preview, opts CommitOptions) (batch.Summary, error) {
	log := logger.FromContext(ctx).With("file", p.FileName, "preview_id", p.ID)

	if err := reconcile.Gate(p.Reconciliation, opts.OverrideReconciliation); err != nil {
		log.Warn("commit blocked", "error", err)
		return batch.Summary{}, err
	}
	if !p.Reconciliation.IsAligned {
		log.Warn("reconciliation mismatch overridden", "difference", p.Reconciliation.Difference.StringFixed(2))
	}

	pools, err := e.store.LoadPools(ctx)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("loading entities: %w", err)
	}
	rows, entries, err := commitRows(p, opts.EntityOverrides, pools)
	if err != nil {
		return batch.Summary{}, err
	}
	if verrs := reconcile.ValidateCommitSet(rows, pools); len(verrs) > 0 {
		log.Warn("commit set invalid", "violations", len(verrs))
		return batch.Summary{}, &ValidationFailedError{Errors: verrs}
	}

	return e.batches.Commit(ctx, batch.CommitRequest{
		SourceFile:     p.FileName,
		Rows:           rows,
		DuplicateCount: p.DuplicateCount(),
		ErrorCount:     len(p.Errors),
		MatchLog:       entries,
	})
}

// commitRows turns preview rows into the write contract. Unresolved and
// suggested pools commit with a null entity.
func commitRows(p *Preview, overrides EntityOverrides, pools model.Pools) ([]model.CommittedRow, []matchlog.Entry, error) {
	byLine := make(map[int]model.Track, len(p.UniqueRows))
	for _, r := range p.UniqueRows {
		byLine[r.Row.Line] = r.Row.Track
	}
	for line, byPool := range overrides {
		track, ok := byLine[line]
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %d is not in the commit set", ErrInvalidOverride, line)
		}
		for pool, entityID := range byPool {
			if !slices.Contains(resolve.PoolsFor(track), pool) {
				return nil, nil, fmt.Errorf("%w: line %d is not resolved against %s", ErrInvalidOverride, line, pool)
			}
			ent, ok := pools.Find(entityID)
			if !ok || ent.Pool != pool {
				return nil, nil, fmt.Errorf("%w: line %d: no %s with id %q", ErrInvalidOverride, line, pool, entityID)
			}
		}
	}

	rows := make([]model.CommittedRow, 0, len(p.UniqueRows))
	var entries []matchlog.Entry
	for _, r := range p.UniqueRows {
		entries = append(entries, r.Resolution.Log...)

		ids := make(map[model.Pool]*string)
		for _, pool := range resolve.PoolsFor(r.Row.Track) {
			ids[pool] = r.Resolution.EntityID(pool)
			entityID, ok := overrides[r.Row.Line][pool]
			if !ok {
				continue
			}
			ent, _ := pools.Find(entityID)
			var input string
			if pr, ok := r.Resolution.Get(pool); ok {
				input = pr.Input
			}
			entries = append(entries, matchlog.FromCandidate(r.Row.Line, input, model.MatchCandidate{
				Pool:        pool,
				EntityID:    ent.ID,
				DisplayName: ent.DisplayName,
				Confidence:  100,
				MatchType:   model.MatchManual,
			}, matchlog.DecisionOverridden))
			ids[pool] = &ent.ID
		}

		cr := model.CommittedRow{
			Line:        r.Row.Line,
			ProjectID:   ids[model.PoolProjects],
			Category:    r.Classification.Category,
			Amount:      r.Row.Amount,
			Date:        r.Row.Date,
			Description: r.Row.Description,
			Kind:        r.Row.Kind,
			AccountPath: r.Row.AccountPath,
			SourceName:  r.Row.Name,
			DedupKey:    r.Key,
		}
		if r.Row.IsRevenue() {
			cr.EntityID = ids[model.PoolClients]
			cr.ClientID = ids[model.PoolClients]
			if r.Row.InvoiceNumber != "" {
				inv := r.Row.InvoiceNumber
				cr.InvoiceNumber = &inv
			}
		} else {
			cr.EntityID = ids[model.PoolVendors]
		}
		rows = append(rows, cr)
	}
	return rows, entries, nil
}
