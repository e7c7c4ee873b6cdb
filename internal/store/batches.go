package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

const batchColumns = `id, source_file, created_at, imported_count, duplicate_count, error_count, status, rolled_back_at, match_log`

const rowColumns = `t.id, t.batch_id, t.line, t.entity_id, t.project_id, t.client_id, t.category, t.amount, t.date,
	t.description, t.kind, t.account_path, t.source_name, t.dedup_key, t.invoice_number`

// CommitBatch writes the batch record and all of its rows in one transaction.
// Either everything is written or nothing is.
func (s *Store) CommitBatch(ctx context.Context, b model.ImportBatch, rows []model.CommittedRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO import_batches(id, source_file, created_at, imported_count, duplicate_count, error_count, status, match_log)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.SourceFile, formatTime(b.CreatedAt), b.ImportedCount, b.DuplicateCount, b.ErrorCount,
			string(b.Status), b.MatchLog)
		if err != nil {
			return fmt.Errorf("inserting batch %s: %w", b.ID, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions(id, batch_id, line, entity_id, project_id, client_id, category, amount, date,
			description, kind, account_path, source_name, dedup_key, invoice_number)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing row insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			_, err := stmt.ExecContext(ctx,
				r.ID, b.ID, r.Line, nullString(r.EntityID), nullString(r.ProjectID), nullString(r.ClientID),
				r.Category, r.Amount.StringFixed(2), formatDate(r.Date),
				r.Description, string(r.Kind), r.AccountPath, r.SourceName, r.DedupKey, nullString(r.InvoiceNumber))
			if err != nil {
				return fmt.Errorf("inserting row %s (line %d): %w", r.ID, r.Line, err)
			}
		}
		return nil
	})
}

// RollbackBatch deletes every row tagged with id and flips the batch to
// rolled_back. For an already rolled-back batch it changes nothing and
// reports already=true.
func (s *Store) RollbackBatch(ctx context.Context, id string, at time.Time) (reverted int, already bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM import_batches WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("batch %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("looking up batch %s: %w", id, err)
		}
		if model.BatchStatus(status) == model.BatchRolledBack {
			already = true
			return nil
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE batch_id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting rows of batch %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting rows of batch %s: %w", id, err)
		}
		reverted = int(n)

		_, err = tx.ExecContext(ctx, `UPDATE import_batches SET status = ?, rolled_back_at = ? WHERE id = ?`,
			string(model.BatchRolledBack), formatTime(at), id)
		if err != nil {
			return fmt.Errorf("updating batch %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return reverted, already, nil
}

// GetBatch returns one batch including its serialized match log.
func (s *Store) GetBatch(ctx context.Context, id string) (model.ImportBatch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM import_batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ImportBatch{}, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ImportBatch{}, err
	}
	return b, nil
}

// ListBatches returns batches newest first. The match log is not loaded.
func (s *Store) ListBatches(ctx context.Context) ([]model.ImportBatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+batchColumns+` FROM import_batches ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []model.ImportBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		b.MatchLog = ""
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batches: %w", err)
	}
	return out, nil
}

func scanBatch(sc scanner) (model.ImportBatch, error) {
	var b model.ImportBatch
	var created, status string
	var rolledBack sql.NullString
	err := sc.Scan(&b.ID, &b.SourceFile, &created, &b.ImportedCount, &b.DuplicateCount, &b.ErrorCount,
		&status, &rolledBack, &b.MatchLog)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ImportBatch{}, err
		}
		return model.ImportBatch{}, fmt.Errorf("scanning batch: %w", err)
	}
	b.Status = model.BatchStatus(status)
	if b.CreatedAt, err = parseTime(created); err != nil {
		return model.ImportBatch{}, err
	}
	if rolledBack.Valid {
		t, err := parseTime(rolledBack.String)
		if err != nil {
			return model.ImportBatch{}, err
		}
		b.RolledBackAt = &t
	}
	return b, nil
}

// CountBatchRows returns how many committed rows are tagged with id.
func (s *Store) CountBatchRows(ctx context.Context, id string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE batch_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows of batch %s: %w", id, err)
	}
	return n, nil
}

// BatchRows returns the rows committed by a batch in file order.
func (s *Store) BatchRows(ctx context.Context, id string) ([]model.CommittedRow, error) {
	return s.queryRows(ctx, `SELECT `+rowColumns+` FROM transactions t WHERE t.batch_id = ? ORDER BY t.line`, id)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]model.CommittedRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.CommittedRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return out, nil
}

func scanRow(sc scanner) (model.CommittedRow, error) {
	var r model.CommittedRow
	var entityID, projectID, clientID, invoice sql.NullString
	var amount, date, kind string
	err := sc.Scan(&r.ID, &r.BatchID, &r.Line, &entityID, &projectID, &clientID, &r.Category, &amount, &date,
		&r.Description, &kind, &r.AccountPath, &r.SourceName, &r.DedupKey, &invoice)
	if err != nil {
		return model.CommittedRow{}, fmt.Errorf("scanning transaction: %w", err)
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.CommittedRow{}, fmt.Errorf("parsing amount %q of %s: %w", amount, r.ID, err)
	}
	if r.Date, err = parseDate(date); err != nil {
		return model.CommittedRow{}, err
	}
	r.Kind = model.TransactionKind(kind)
	r.EntityID = stringPtr(entityID)
	r.ProjectID = stringPtr(projectID)
	r.ClientID = stringPtr(clientID)
	r.InvoiceNumber = stringPtr(invoice)
	return r, nil
}
