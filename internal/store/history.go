package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

// HistoryBetween returns committed rows of completed batches dated within
// [from, to], oldest batch first. The resolved entity's display name is joined
// in for rows whose source name was not retained.
func (s *Store) HistoryBetween(ctx context.Context, from, to time.Time) ([]model.HistoricalRow, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT t.id, t.batch_id, t.date, t.amount, t.kind, t.source_name, COALESCE(e.display_name, ''),
		t.description, COALESCE(t.invoice_number, '')
	FROM transactions t
	JOIN import_batches b ON b.id = t.batch_id
	LEFT JOIN entities e ON e.id = t.entity_id
	WHERE b.status = ? AND t.date BETWEEN ? AND ?
	ORDER BY b.created_at, t.batch_id, t.line`,
		string(model.BatchCompleted), formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []model.HistoricalRow
	for rows.Next() {
		var h model.HistoricalRow
		var date, amount, kind string
		if err := rows.Scan(&h.ID, &h.BatchID, &date, &amount, &kind, &h.SourceName, &h.EntityName,
			&h.Description, &h.InvoiceNumber); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if h.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if h.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing amount %q of %s: %w", amount, h.ID, err)
		}
		h.Kind = model.TransactionKind(kind)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}

// DuplicateGroup is a set of committed rows in different completed batches
// that share a dedup key.
type DuplicateGroup struct {
	Key  string               `json:"key"`
	Rows []model.CommittedRow `json:"rows"`
}

// DuplicateGroups finds keys committed by more than one completed batch within
// [from, to]. Two imports racing on the same date range both pass the history
// check; this is how such duplicates are found afterwards.
func (s *Store) DuplicateGroups(ctx context.Context, from, to time.Time) ([]DuplicateGroup, error) {
	f, t := formatDate(from), formatDate(to)
	status := string(model.BatchCompleted)
	rows, err := s.queryRows(ctx, `
	SELECT `+rowColumns+`
	FROM transactions t
	JOIN import_batches b ON b.id = t.batch_id
	WHERE b.status = ? AND t.date BETWEEN ? AND ? AND t.dedup_key IN (
		SELECT t2.dedup_key FROM transactions t2
		JOIN import_batches b2 ON b2.id = t2.batch_id
		WHERE b2.status = ? AND t2.date BETWEEN ? AND ?
		GROUP BY t2.dedup_key
		HAVING COUNT(DISTINCT t2.batch_id) > 1)
	ORDER BY t.dedup_key, b.created_at, t.line`,
		status, f, t, status, f, t)
	if err != nil {
		return nil, err
	}

	var groups []DuplicateGroup
	for _, r := range rows {
		if n := len(groups); n > 0 && groups[n-1].Key == r.DedupKey {
			groups[n-1].Rows = append(groups[n-1].Rows, r)
			continue
		}
		groups = append(groups, DuplicateGroup{Key: r.DedupKey, Rows: []model.CommittedRow{r}})
	}
	return groups, nil
}
