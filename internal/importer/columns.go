package importer

import (
	"fmt"
	"strings"
)

// Column names of the fixed accounting export layout.
const (
	ColDate        = "Date"
	ColAmount      = "Amount"
	ColName        = "Name"
	ColType        = "Transaction type"
	ColAccountFull = "Account full name"
	ColAccountName = "Account name"
	ColDescription = "Description"
	ColProject     = "Project/WO #"
	ColInvoice     = "Invoice #"
)

var (
	requiredColumns = []string{ColDate, ColAmount, ColName, ColType, ColAccountFull}
	allColumns      = []string{ColDate, ColAmount, ColName, ColType, ColAccountFull, ColAccountName, ColDescription, ColProject, ColInvoice}
)

func headerKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// mapRows finds the header row and converts the remaining rows into Records.
// Report exports often carry title lines above the header, so the header is the
// first row that names both Date and Amount.
func mapRows(rows [][]string) ([]Record, error) {
	headerIdx := -1
	for i, row := range rows {
		seen := make(map[string]bool, len(row))
		for _, cell := range row {
			seen[headerKey(cell)] = true
		}
		if seen[headerKey(ColDate)] && seen[headerKey(ColAmount)] {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: no header row with %q and %q", ErrMissingColumn, ColDate, ColAmount)
	}

	canonical := make(map[string]string, len(allColumns))
	for _, c := range allColumns {
		canonical[headerKey(c)] = c
	}
	index := make(map[string]int)
	for i, cell := range rows[headerIdx] {
		if name, ok := canonical[headerKey(cell)]; ok {
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
	}
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}

	var records []Record
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		fields := make(map[string]string, len(index))
		empty := true
		for name, col := range index {
			if col < len(row) {
				fields[name] = row[col]
				if strings.TrimSpace(row[col]) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		records = append(records, Record{Line: i + 1, Fields: fields})
	}
	return records, nil
}
