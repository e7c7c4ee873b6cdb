package categories

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/crewledger/crewledger/internal/model"
)

const (
	numFields  = 3
	colPath    = 0
	colCat     = 1
	colActive  = 2
	headerPath = "account_path"
)

// ReadMappings reads a mapping CSV (account_path,category,active).
func ReadMappings(r io.Reader) ([]model.CategoryMapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading mappings CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}
	if records[0][colPath] == headerPath {
		records = records[1:]
	}

	var mappings []model.CategoryMapping
	for i, rec := range records {
		m, err := UnmarshalMapping(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// WriteMappings writes a mapping CSV.
func WriteMappings(w io.Writer, mappings []model.CategoryMapping) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{headerPath, "category", "active"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, m := range mappings {
		if err := cw.Write(MarshalMapping(m)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalMapping converts a CategoryMapping to a CSV row.
func MarshalMapping(m model.CategoryMapping) []string {
	row := make([]string, numFields)
	row[colPath] = m.AccountPath
	row[colCat] = m.Category
	row[colActive] = strconv.FormatBool(m.Active)
	return row
}

// UnmarshalMapping converts a CSV row to a CategoryMapping. An empty active
// column means active.
func UnmarshalMapping(record []string) (model.CategoryMapping, error) {
	if len(record) != numFields {
		return model.CategoryMapping{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	path := model.NormalizeAccountPath(record[colPath])
	if path == "" {
		return model.CategoryMapping{}, errors.New("empty account path")
	}
	if record[colCat] == "" {
		return model.CategoryMapping{}, fmt.Errorf("empty category for %q", path)
	}

	active := true
	if record[colActive] != "" {
		var err error
		active, err = strconv.ParseBool(record[colActive])
		if err != nil {
			return model.CategoryMapping{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
		}
	}

	return model.CategoryMapping{
		AccountPath: path,
		Category:    record[colCat],
		Active:      active,
	}, nil
}
