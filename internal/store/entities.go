package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crewledger/crewledger/internal/model"
)

// LoadPools reads every entity with its aliases, split by pool, in id order.
func (s *Store) LoadPools(ctx context.Context) (model.Pools, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, pool, number, display_name FROM entities ORDER BY id`)
	if err != nil {
		return model.Pools{}, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var all []model.Entity
	index := make(map[string]int)
	for rows.Next() {
		var e model.Entity
		var pool string
		if err := rows.Scan(&e.ID, &pool, &e.Number, &e.DisplayName); err != nil {
			return model.Pools{}, fmt.Errorf("scanning entity: %w", err)
		}
		e.Pool = model.Pool(pool)
		index[e.ID] = len(all)
		all = append(all, e)
	}
	if err := rows.Err(); err != nil {
		return model.Pools{}, fmt.Errorf("iterating entities: %w", err)
	}

	aliases, err := s.db.QueryContext(ctx, `SELECT entity_id, alias, match_type FROM entity_aliases ORDER BY entity_id, alias`)
	if err != nil {
		return model.Pools{}, fmt.Errorf("querying aliases: %w", err)
	}
	defer aliases.Close()
	for aliases.Next() {
		var entityID, value, match string
		if err := aliases.Scan(&entityID, &value, &match); err != nil {
			return model.Pools{}, fmt.Errorf("scanning alias: %w", err)
		}
		if i, ok := index[entityID]; ok {
			all[i].Aliases = append(all[i].Aliases, model.Alias{Value: value, Match: model.AliasMatch(match)})
		}
	}
	if err := aliases.Err(); err != nil {
		return model.Pools{}, fmt.Errorf("iterating aliases: %w", err)
	}

	var pools model.Pools
	for _, e := range all {
		switch e.Pool {
		case model.PoolVendors:
			pools.Vendors = append(pools.Vendors, e)
		case model.PoolClients:
			pools.Clients = append(pools.Clients, e)
		case model.PoolProjects:
			pools.Projects = append(pools.Projects, e)
		}
	}
	return pools, nil
}

// UpsertEntity inserts or updates an entity and adds its aliases.
func (s *Store) UpsertEntity(ctx context.Context, e model.Entity) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO entities(id, pool, number, display_name, created_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET pool = excluded.pool, number = excluded.number, display_name = excluded.display_name`,
			e.ID, string(e.Pool), e.Number, e.DisplayName, formatTime(s.now()))
		if err != nil {
			return fmt.Errorf("upserting entity %s: %w", e.ID, err)
		}
		for _, a := range e.Aliases {
			if err := insertAlias(ctx, tx, e.ID, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddAlias attaches an alias to an existing entity.
func (s *Store) AddAlias(ctx context.Context, entityID string, a model.Alias) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM entities WHERE id = ?`, entityID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("entity %s: %w", entityID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("looking up entity %s: %w", entityID, err)
		}
		return insertAlias(ctx, tx, entityID, a)
	})
}

func insertAlias(ctx context.Context, tx *sql.Tx, entityID string, a model.Alias) error {
	match := a.Match
	if match == "" {
		match = model.AliasExact
	}
	_, err := tx.ExecContext(ctx, `
	INSERT INTO entity_aliases(entity_id, alias, match_type) VALUES(?, ?, ?)
	ON CONFLICT(entity_id, alias) DO UPDATE SET match_type = excluded.match_type`,
		entityID, a.Value, string(match))
	if err != nil {
		return fmt.Errorf("adding alias %q to %s: %w", a.Value, entityID, err)
	}
	return nil
}
