package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

// ValidationError describes a single invariant violation in a commit set.
type ValidationError struct {
	Invariant   int    `json:"invariant"`
	Line        int    `json:"line"`
	Description string `json:"description"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [line %d]: %s", e.Invariant, e.Line, e.Description)
}

// EntityChecker looks up entity ids referenced by committed rows.
type EntityChecker interface {
	Find(id string) (model.Entity, bool)
}

// ValidateCommitSet enforces 6 invariants on the rows about to be committed.
func ValidateCommitSet(rows []model.CommittedRow, entities EntityChecker) []ValidationError {
	var errs []ValidationError
	hundred := decimal.NewFromInt(100)
	keys := make(map[string]int, len(rows))

	for _, r := range rows {
		// Invariant 1: Exact decimals, no more than 2 decimal places.
		if !r.Amount.Mul(hundred).Equal(r.Amount.Mul(hundred).Floor()) {
			errs = append(errs, ValidationError{
				Invariant:   1,
				Line:        r.Line,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", r.Amount),
			})
		}

		// Invariant 2: Dated.
		if r.Date.IsZero() {
			errs = append(errs, ValidationError{Invariant: 2, Line: r.Line, Description: "missing date"})
		}

		// Invariant 3: Categorized, at least with the fallback.
		if r.Category == "" {
			errs = append(errs, ValidationError{Invariant: 3, Line: r.Line, Description: "missing category"})
		}

		// Invariant 4: Unique dedup keys within the set.
		if first, dup := keys[r.DedupKey]; dup {
			errs = append(errs, ValidationError{
				Invariant:   4,
				Line:        r.Line,
				Description: fmt.Sprintf("dedup key %q repeats line %d", r.DedupKey, first),
			})
		} else {
			keys[r.DedupKey] = r.Line
		}

		// Invariant 5: Invoice fields only on revenue rows.
		if model.TrackFor(r.Kind) != model.TrackRevenue && (r.InvoiceNumber != nil || r.ClientID != nil) {
			errs = append(errs, ValidationError{Invariant: 5, Line: r.Line, Description: "invoice fields on a non-revenue row"})
		}

		// Invariant 6: Referenced entities exist.
		refs := []*string{r.EntityID, r.ProjectID}
		if r.ClientID != nil && (r.EntityID == nil || *r.ClientID != *r.EntityID) {
			refs = append(refs, r.ClientID)
		}
		for _, ref := range refs {
			if ref == nil {
				continue
			}
			if _, ok := entities.Find(*ref); !ok {
				errs = append(errs, ValidationError{
					Invariant:   6,
					Line:        r.Line,
					Description: fmt.Sprintf("unknown entity %q", *ref),
				})
			}
		}
	}

	return errs
}
