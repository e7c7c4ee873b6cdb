package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want TransactionKind
		ok   bool
	}{
		{"Expense", KindExpense, true},
		{"Bill", KindBill, true},
		{"Check", KindCheck, true},
		{"Credit Card Expense", KindCreditCard, true},
		{"credit_card", KindCreditCard, true},
		{"Cash Expense", KindCash, true},
		{"  INVOICE ", KindInvoice, true},
		{"Journal Entry", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseKind(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseKind(%q)", tt.in)
	}
}

func TestTrackFor(t *testing.T) {
	assert.Equal(t, TrackRevenue, TrackFor(KindInvoice))
	for _, k := range []TransactionKind{KindExpense, KindBill, KindCheck, KindCreditCard, KindCash} {
		assert.Equal(t, TrackExpense, TrackFor(k), "kind %s", k)
	}
}

func TestNormalizeAccountPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Expenses:Tools", "Expenses:Tools"},
		{" Expenses : Tools ", "Expenses:Tools"},
		{"Cost of Goods Sold:Dumpster  Rental", "Cost of Goods Sold:Dumpster Rental"},
		{"Expenses::Tools:", "Expenses:Tools"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAccountPath(tt.in), "NormalizeAccountPath(%q)", tt.in)
	}
	assert.Equal(t, "expenses:tools", AccountPathKey("Expenses : TOOLS"))
}

func TestPoolsFind(t *testing.T) {
	p := Pools{
		Vendors:  []Entity{{ID: "v1", DisplayName: "Home Depot"}},
		Projects: []Entity{{ID: "p1", Number: "24-101", DisplayName: "Smith Remodel"}},
	}
	e, ok := p.Find("p1")
	assert.True(t, ok)
	assert.Equal(t, "Smith Remodel", e.DisplayName)

	_, ok = p.Find("nope")
	assert.False(t, ok)
	assert.Len(t, p.Get(PoolVendors), 1)
	assert.Empty(t, p.Get(PoolClients))
}
