package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the "Transaction type" column of an accounting export.
type TransactionKind string

const (
	KindExpense    TransactionKind = "expense"
	KindBill       TransactionKind = "bill"
	KindCheck      TransactionKind = "check"
	KindCreditCard TransactionKind = "credit_card"
	KindCash       TransactionKind = "cash"
	KindInvoice    TransactionKind = "invoice"
)

// Track separates revenue rows from expense-like rows. It is decided once at
// parse time; downstream steps switch on it instead of re-inspecting Kind.
type Track string

const (
	TrackExpense Track = "expense"
	TrackRevenue Track = "revenue"
)

// TrackFor returns the track a kind belongs to.
func TrackFor(kind TransactionKind) Track {
	if kind == KindInvoice {
		return TrackRevenue
	}
	return TrackExpense
}

// ParseKind maps export labels ("Credit Card Expense", "cash", "Invoice") to a kind.
func ParseKind(s string) (TransactionKind, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	switch norm {
	case "expense":
		return KindExpense, true
	case "bill", "bill payment":
		return KindBill, true
	case "check", "cheque":
		return KindCheck, true
	case "credit card", "credit card expense", "credit card charge":
		return KindCreditCard, true
	case "cash", "cash expense":
		return KindCash, true
	case "invoice":
		return KindInvoice, true
	}
	return "", false
}

// RawRow is one parsed export line. It lives only for the duration of an import run.
type RawRow struct {
	Line             int             `json:"line"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"` // sign follows the export: debit/credit
	Name             string          `json:"name"`
	AccountPath      string          `json:"accountPath"`
	AccountName      string          `json:"accountName,omitempty"`
	Description      string          `json:"description,omitempty"`
	Kind             TransactionKind `json:"transactionKind"`
	Track            Track           `json:"track"`
	ProjectReference string          `json:"projectReference,omitempty"`
	InvoiceNumber    string          `json:"invoiceNumber,omitempty"` // invoices only
}

// IsRevenue reports whether the row is on the revenue track.
func (r RawRow) IsRevenue() bool { return r.Track == TrackRevenue }

// HistoricalRow is a previously committed transaction as seen by the history
// deduplicator. SourceName is empty for rows committed before the original
// free-text name was retained.
type HistoricalRow struct {
	ID            string          `json:"id"`
	BatchID       string          `json:"batchId"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          TransactionKind `json:"kind"`
	SourceName    string          `json:"sourceName,omitempty"`
	EntityName    string          `json:"entityName,omitempty"`
	Description   string          `json:"description,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
}

// Track returns the track of the historical row.
func (h HistoricalRow) Track() Track { return TrackFor(h.Kind) }
