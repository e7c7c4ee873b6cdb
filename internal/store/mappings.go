package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crewledger/crewledger/internal/model"
)

const mappingColumns = `id, account_path, category, active, created_at`

// ActiveMappings returns the mappings the classifier uses.
func (s *Store) ActiveMappings(ctx context.Context) ([]model.CategoryMapping, error) {
	return s.queryMappings(ctx, `SELECT `+mappingColumns+` FROM category_mappings WHERE active = 1 ORDER BY path_key`)
}

// AllMappings returns active and inactive mappings.
func (s *Store) AllMappings(ctx context.Context) ([]model.CategoryMapping, error) {
	return s.queryMappings(ctx, `SELECT `+mappingColumns+` FROM category_mappings ORDER BY path_key`)
}

func (s *Store) queryMappings(ctx context.Context, query string) ([]model.CategoryMapping, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var out []model.CategoryMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(sc scanner) (model.CategoryMapping, error) {
	var m model.CategoryMapping
	var active int
	var created string
	if err := sc.Scan(&m.ID, &m.AccountPath, &m.Category, &active, &created); err != nil {
		return model.CategoryMapping{}, fmt.Errorf("scanning mapping: %w", err)
	}
	m.Active = active == 1
	t, err := parseTime(created)
	if err != nil {
		return model.CategoryMapping{}, err
	}
	m.CreatedAt = t
	return m, nil
}

// UpsertMapping creates or replaces the mapping for an account path and
// activates it.
func (s *Store) UpsertMapping(ctx context.Context, path, category string) (model.CategoryMapping, error) {
	path = model.NormalizeAccountPath(path)
	if path == "" {
		return model.CategoryMapping{}, errors.New("empty account path")
	}
	row := s.db.QueryRowContext(ctx, `
	INSERT INTO category_mappings(account_path, path_key, category, active, created_at)
	VALUES(?, ?, ?, 1, ?)
	ON CONFLICT(path_key) DO UPDATE SET account_path = excluded.account_path, category = excluded.category, active = 1
	RETURNING `+mappingColumns,
		path, model.AccountPathKey(path), category, formatTime(s.now()))
	m, err := scanMapping(row)
	if err != nil {
		return model.CategoryMapping{}, fmt.Errorf("upserting mapping %s: %w", path, err)
	}
	return m, nil
}

// SeedMappings inserts mappings whose path is not mapped yet and returns how
// many were added. Existing mappings are left untouched.
func (s *Store) SeedMappings(ctx context.Context, mappings []model.CategoryMapping) (int, error) {
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, m := range mappings {
			path := model.NormalizeAccountPath(m.AccountPath)
			res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO category_mappings(account_path, path_key, category, active, created_at)
			VALUES(?, ?, ?, ?, ?)`,
				path, model.AccountPathKey(path), m.Category, boolInt(m.Active), formatTime(s.now()))
			if err != nil {
				return fmt.Errorf("seeding mapping %s: %w", path, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("seeding mapping %s: %w", path, err)
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// SetMappingActive toggles a mapping without deleting it.
func (s *Store) SetMappingActive(ctx context.Context, path string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE category_mappings SET active = ? WHERE path_key = ?`,
		boolInt(active), model.AccountPathKey(path))
	if err != nil {
		return fmt.Errorf("updating mapping %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating mapping %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("mapping %s: %w", path, ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
