// Package reconcile checks that history-duplicate totals agree with the ledger
// before a batch may be committed.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/dedup"
)

// DefaultTolerance allows rounding-only drift.
var DefaultTolerance = decimal.RequireFromString("0.01")

var ErrReconciliationMismatch = errors.New("reconciliation mismatch")

// Discrepancy is a duplicate whose file amount differs from the persisted amount.
type Discrepancy struct {
	Line             int             `json:"line"`
	HistoricalID     string          `json:"historicalId"`
	FileAmount       decimal.Decimal `json:"fileAmount"`
	HistoricalAmount decimal.Decimal `json:"historicalAmount"`
}

// Result is the computed reconciliation summary. It is never persisted.
type Result struct {
	ExistingTotal  decimal.Decimal `json:"existingTotal"`
	DuplicateTotal decimal.Decimal `json:"duplicateTotal"`
	Difference     decimal.Decimal `json:"difference"`
	IsAligned      bool            `json:"isAligned"`
	Tolerance      decimal.Decimal `json:"tolerance"`
	Count          int             `json:"count"`
	Discrepancies  []Discrepancy   `json:"discrepancies,omitempty"`
}

// Calculate sums the persisted amounts of the matched historical rows and the
// same rows as parsed from the current file. An empty set is aligned.
func Calculate(dups []dedup.HistoryDuplicate, tolerance decimal.Decimal) Result {
	res := Result{
		ExistingTotal:  decimal.Zero,
		DuplicateTotal: decimal.Zero,
		Tolerance:      tolerance,
		Count:          len(dups),
	}
	for _, d := range dups {
		res.ExistingTotal = res.ExistingTotal.Add(d.Historical.Amount)
		res.DuplicateTotal = res.DuplicateTotal.Add(d.Row.Amount)
		if !d.Row.Amount.Equal(d.Historical.Amount) {
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Line:             d.Row.Line,
				HistoricalID:     d.Historical.ID,
				FileAmount:       d.Row.Amount,
				HistoricalAmount: d.Historical.Amount,
			})
		}
	}
	res.Difference = res.ExistingTotal.Sub(res.DuplicateTotal).Abs()
	res.IsAligned = res.Difference.LessThanOrEqual(tolerance)
	return res
}

// MismatchError blocks a commit until a reviewer overrides it.
type MismatchError struct {
	Result Result
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("reconciliation mismatch: existing %s vs file %s (difference %s exceeds tolerance %s)",
		e.Result.ExistingTotal.StringFixed(2), e.Result.DuplicateTotal.StringFixed(2),
		e.Result.Difference.StringFixed(2), e.Result.Tolerance.StringFixed(2))
}

func (e *MismatchError) Unwrap() error { return ErrReconciliationMismatch }

// Gate returns a *MismatchError for a misaligned result unless override is set.
func Gate(res Result, override bool) error {
	if res.IsAligned || override {
		return nil
	}
	return &MismatchError{Result: res}
}
