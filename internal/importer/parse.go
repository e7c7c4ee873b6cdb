package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

var (
	ErrBadDate     = errors.New("unparseable date")
	ErrBadAmount   = errors.New("unparseable amount")
	ErrUnknownKind = errors.New("unknown transaction type")

	ErrAmountPrecision = fmt.Errorf("%w: more than 2 decimal places", ErrBadAmount)
)

// RowError is a row that could not be parsed. The row is excluded from the run;
// the rest of the file continues.
type RowError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s %q: %s", e.Line, e.Field, e.Value, e.Message)
}

func (e RowError) Unwrap() error { return e.Err }

func newRowError(line int, field, value string, err error) RowError {
	return RowError{Line: line, Field: field, Value: value, Message: err.Error(), Err: err}
}

// Result is the output of Parse: canonical rows in file order plus rejected rows.
type Result struct {
	Rows   []model.RawRow
	Errors []RowError
}

var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses an export date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDate
}

// ParseAmount parses a locale-formatted amount: currency symbols and thousands
// separators are stripped, "(12.00)" and "12.00-" are negative. Amounts with
// sub-cent precision are rejected with ErrAmountPrecision.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(strings.ToUpper(s), "USD")
	if s == "" {
		return decimal.Zero, ErrBadAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrBadAmount
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, ErrAmountPrecision
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Parse converts header-mapped records into RawRows. Rows with a bad date,
// amount or transaction type are routed to Result.Errors.
func Parse(records []Record) Result {
	var res Result
	for _, rec := range records {
		row, rerr := parseRecord(rec)
		if rerr != nil {
			res.Errors = append(res.Errors, *rerr)
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

func parseRecord(rec Record) (model.RawRow, *RowError) {
	date, err := ParseDate(rec.Get(ColDate))
	if err != nil {
		e := newRowError(rec.Line, ColDate, rec.Get(ColDate), err)
		return model.RawRow{}, &e
	}
	amount, err := ParseAmount(rec.Get(ColAmount))
	if err != nil {
		e := newRowError(rec.Line, ColAmount, rec.Get(ColAmount), err)
		return model.RawRow{}, &e
	}
	kind, ok := model.ParseKind(rec.Get(ColType))
	if !ok {
		e := newRowError(rec.Line, ColType, rec.Get(ColType), ErrUnknownKind)
		return model.RawRow{}, &e
	}

	path := rec.Get(ColAccountFull)
	if path == "" {
		path = rec.Get(ColAccountName)
	}

	row := model.RawRow{
		Line:             rec.Line,
		Date:             date,
		Amount:           amount,
		Name:             collapseSpace(rec.Get(ColName)),
		AccountPath:      model.NormalizeAccountPath(path),
		AccountName:      rec.Get(ColAccountName),
		Description:      collapseSpace(rec.Get(ColDescription)),
		Kind:             kind,
		Track:            model.TrackFor(kind),
		ProjectReference: rec.Get(ColProject),
	}
	if row.Track == model.TrackRevenue {
		row.InvoiceNumber = rec.Get(ColInvoice)
	}
	return row, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
