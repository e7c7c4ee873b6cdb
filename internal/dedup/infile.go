// Package dedup classifies parsed rows as duplicates, either of an earlier row
// in the same upload or of a previously committed transaction.
package dedup

import (
	"fmt"

	"github.com/crewledger/crewledger/internal/keys"
	"github.com/crewledger/crewledger/internal/model"
)

// InFileDuplicate is a row whose key collides with an earlier row of the same file.
type InFileDuplicate struct {
	Row       model.RawRow `json:"row"`
	Key       string       `json:"key"`
	FirstLine int          `json:"firstLine"`
	Reason    string       `json:"reason"`
}

// InFileResult splits rows into first occurrences and later duplicates.
type InFileResult struct {
	Unique     []model.RawRow
	Duplicates []InFileDuplicate
}

// InFile makes a single pass over rows in order. The seen map lives for this
// call only, so concurrent imports never share state.
func InFile(rows []model.RawRow) InFileResult {
	seen := make(map[string]model.RawRow, len(rows))
	var res InFileResult
	for _, row := range rows {
		key := keys.KeyFor(row)
		if first, ok := seen[key]; ok {
			res.Duplicates = append(res.Duplicates, InFileDuplicate{
				Row:       row,
				Key:       key,
				FirstLine: first.Line,
				Reason:    describe(first),
			})
			continue
		}
		seen[key] = row
		res.Unique = append(res.Unique, row)
	}
	return res
}

func describe(first model.RawRow) string {
	name := first.Name
	if name == "" {
		name = first.Description
	}
	return fmt.Sprintf("duplicate of line %d: %s on %s for %s",
		first.Line, name, keys.NormalizeDate(first.Date), first.Amount.StringFixed(2))
}
