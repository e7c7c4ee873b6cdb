// Package entities reads and writes the entity seed file: workers/vendors,
// clients and projects together with their alias table.
package entities

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crewledger/crewledger/internal/model"
)

const (
	numFields  = 5
	colID      = 0
	colPool    = 1
	colNumber  = 2
	colName    = 3
	colAliases = 4
	headerID   = "id"

	aliasSep = ";"
	matchSep = ":"
)

// ParseMatch accepts "exact", "prefix" or "contains".
func ParseMatch(s string) (model.AliasMatch, bool) {
	switch m := model.AliasMatch(strings.ToLower(strings.TrimSpace(s))); m {
	case model.AliasExact, model.AliasPrefix, model.AliasContains:
		return m, true
	}
	return "", false
}

// Read reads an entity CSV (id,pool,number,display_name,aliases). Aliases are
// ";"-separated; each may carry a ":prefix" or ":contains" suffix, exact
// otherwise.
func Read(r io.Reader) ([]model.Entity, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entities CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.EqualFold(records[0][colID], headerID) {
		records = records[1:]
	}

	seen := make(map[string]int)
	var out []model.Entity
	for i, rec := range records {
		e, err := Unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if first, ok := seen[e.ID]; ok {
			return nil, fmt.Errorf("row %d: entity %s already defined on row %d", i+2, e.ID, first)
		}
		seen[e.ID] = i + 2
		out = append(out, e)
	}
	return out, nil
}

// Write writes an entity CSV.
func Write(w io.Writer, entities []model.Entity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{headerID, "pool", "number", "display_name", "aliases"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entities {
		if err := cw.Write(Marshal(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Marshal converts an Entity to a CSV row.
func Marshal(e model.Entity) []string {
	aliases := make([]string, 0, len(e.Aliases))
	for _, a := range e.Aliases {
		if a.Match == "" || a.Match == model.AliasExact {
			aliases = append(aliases, a.Value)
			continue
		}
		aliases = append(aliases, a.Value+matchSep+string(a.Match))
	}

	row := make([]string, numFields)
	row[colID] = e.ID
	row[colPool] = string(e.Pool)
	row[colNumber] = e.Number
	row[colName] = e.DisplayName
	row[colAliases] = strings.Join(aliases, aliasSep)
	return row
}

// Unmarshal converts a CSV row to an Entity.
func Unmarshal(record []string) (model.Entity, error) {
	if len(record) != numFields {
		return model.Entity{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id := strings.TrimSpace(record[colID])
	if id == "" {
		return model.Entity{}, errors.New("empty id")
	}
	pool, ok := model.ParsePool(strings.ToLower(strings.TrimSpace(record[colPool])))
	if !ok {
		return model.Entity{}, fmt.Errorf("unknown pool %q for %s", record[colPool], id)
	}
	name := strings.TrimSpace(record[colName])
	if name == "" {
		return model.Entity{}, fmt.Errorf("empty display name for %s", id)
	}
	number := strings.TrimSpace(record[colNumber])
	if number != "" && pool != model.PoolProjects {
		return model.Entity{}, fmt.Errorf("number %q on non-project %s", number, id)
	}

	aliases, err := parseAliases(record[colAliases])
	if err != nil {
		return model.Entity{}, fmt.Errorf("aliases of %s: %w", id, err)
	}

	return model.Entity{
		ID:          id,
		Pool:        pool,
		Number:      number,
		DisplayName: name,
		Aliases:     aliases,
	}, nil
}

func parseAliases(field string) ([]model.Alias, error) {
	var out []model.Alias
	for _, part := range strings.Split(field, aliasSep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a := model.Alias{Value: part, Match: model.AliasExact}
		if i := strings.LastIndex(part, matchSep); i >= 0 {
			if m, ok := ParseMatch(part[i+1:]); ok {
				a.Value = strings.TrimSpace(part[:i])
				a.Match = m
			}
		}
		if a.Value == "" {
			return nil, fmt.Errorf("empty alias in %q", field)
		}
		out = append(out, a)
	}
	return out, nil
}
