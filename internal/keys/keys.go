// Package keys builds the composite dedup keys that identify the same real-world
// transaction across imports.
//
// Keys are built only from values present verbatim in the source file. They must
// never include a resolved entity id: the same name can resolve to a different
// entity on a later import.
package keys

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crewledger/crewledger/internal/model"
)

const (
	sep           = "|"
	dateFormat    = "2006-01-02"
	revenuePrefix = "inv"
	descPrefix    = "desc:"
)

// NormalizeAmount returns round(abs(amount), 2) with fixed 2-decimal precision.
func NormalizeAmount(amount decimal.Decimal) string {
	return amount.Abs().Round(2).StringFixed(2)
}

// NormalizeName lower-cases and trims a name; inner whitespace runs collapse to one space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeDate formats the calendar date of t.
func NormalizeDate(t time.Time) string {
	return t.Format(dateFormat)
}

// MakeKey builds the composite key for an expense-like transaction.
func MakeKey(date time.Time, amount decimal.Decimal, name string) string {
	return NormalizeDate(date) + sep + NormalizeAmount(amount) + sep + NormalizeName(name)
}

// MakeRevenueKey builds the composite key for an invoice; the invoice number is
// part of its identity.
func MakeRevenueKey(date time.Time, amount decimal.Decimal, name, invoiceNumber string) string {
	return revenuePrefix + sep + MakeKey(date, amount, name) + sep + NormalizeName(invoiceNumber)
}

// FallbackKey is used when a row has no name; the description stands in for it.
func FallbackKey(date time.Time, amount decimal.Decimal, description string) string {
	return MakeKey(date, amount, descPrefix+NormalizeName(description))
}

// Fields is the minimal set of values a key is derived from.
type Fields struct {
	Date          time.Time
	Amount        decimal.Decimal
	Name          string
	Description   string
	InvoiceNumber string
	Track         model.Track
}

// For builds the key for any row shape. Every call site (in-file dedup, history
// dedup, preview display) goes through here.
func For(f Fields) string {
	name := f.Name
	if strings.TrimSpace(name) == "" {
		name = descPrefix + NormalizeName(f.Description)
	}
	if f.Track == model.TrackRevenue {
		return MakeRevenueKey(f.Date, f.Amount, name, f.InvoiceNumber)
	}
	return MakeKey(f.Date, f.Amount, name)
}

// KeyFor builds the key of a parsed row.
func KeyFor(r model.RawRow) string {
	return For(Fields{
		Date:          r.Date,
		Amount:        r.Amount,
		Name:          r.Name,
		Description:   r.Description,
		InvoiceNumber: r.InvoiceNumber,
		Track:         r.Track,
	})
}
