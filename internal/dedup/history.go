package dedup

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/keys"
	"github.com/crewledger/crewledger/internal/model"
)

// DefaultWindowDays widens the history fetch to absorb timezone and date-shift
// artifacts in exports.
const DefaultWindowDays = 1

// Window returns the date range of committed rows that can collide with rows.
// ok is false when rows is empty.
func Window(rows []model.RawRow, days int) (from, to time.Time, ok bool) {
	if len(rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	from, to = rows[0].Date, rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.Before(from) {
			from = r.Date
		}
		if r.Date.After(to) {
			to = r.Date
		}
	}
	return from.AddDate(0, 0, -days), to.AddDate(0, 0, days), true
}

// HistoryNames returns the name-equivalent strings a committed row can be keyed
// by. A row that retained its source name is keyed by that name alone. Legacy
// rows without one fall back to the resolved entity's display name, then a
// name fragment recovered from the description.
func HistoryNames(h model.HistoricalRow) []string {
	if name := strings.TrimSpace(h.SourceName); name != "" {
		return []string{name}
	}
	var names []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		for _, n := range names {
			if keys.NormalizeName(n) == keys.NormalizeName(s) {
				return
			}
		}
		names = append(names, s)
	}
	add(h.EntityName)
	add(descriptionName(h.Description))
	return names
}

// descriptionName recovers the counterparty from descriptions such as
// "Home Depot - drywall screws" or "Garcia Framing: week 3".
func descriptionName(desc string) string {
	for _, sep := range []string{" - ", ": "} {
		if i := strings.Index(desc, sep); i > 0 {
			return desc[:i]
		}
	}
	return ""
}

// HistoryKeys returns every key a committed row can match.
func HistoryKeys(h model.HistoricalRow) []string {
	fields := keys.Fields{
		Date:          h.Date,
		Amount:        h.Amount,
		Description:   h.Description,
		InvoiceNumber: h.InvoiceNumber,
		Track:         h.Track(),
	}
	var out []string
	for _, name := range HistoryNames(h) {
		fields.Name = name
		out = append(out, keys.For(fields))
	}
	if strings.TrimSpace(h.SourceName) == "" {
		// Legacy rows may have been keyed by their description alone.
		fields.Name = ""
		out = append(out, keys.For(fields))
	}
	return out
}

// HistoricalMatch identifies the committed row a duplicate was matched to.
type HistoricalMatch struct {
	ID      string          `json:"id"`
	BatchID string          `json:"batchId"`
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
}

// HistoryDuplicate is a row already committed by an earlier import.
type HistoryDuplicate struct {
	Row        model.RawRow    `json:"row"`
	Key        string          `json:"key"`
	Historical HistoricalMatch `json:"historical"`
}

// HistoryResult splits rows into new rows and history duplicates.
type HistoryResult struct {
	Unique     []model.RawRow
	Duplicates []HistoryDuplicate
}

// History compares rows against committed history. When several committed rows
// share a key the earliest in historical order is recorded.
func History(rows []model.RawRow, historical []model.HistoricalRow) HistoryResult {
	index := make(map[string]model.HistoricalRow, len(historical))
	for _, h := range historical {
		for _, k := range HistoryKeys(h) {
			if _, ok := index[k]; !ok {
				index[k] = h
			}
		}
	}

	var res HistoryResult
	for _, row := range rows {
		key := keys.KeyFor(row)
		h, ok := index[key]
		if !ok {
			res.Unique = append(res.Unique, row)
			continue
		}
		res.Duplicates = append(res.Duplicates, HistoryDuplicate{
			Row: row,
			Key: key,
			Historical: HistoricalMatch{
				ID:      h.ID,
				BatchID: h.BatchID,
				Date:    h.Date,
				Amount:  h.Amount,
			},
		})
	}
	return res
}
