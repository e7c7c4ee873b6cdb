package classify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/model"
)

func defaultClassifier() *Classifier {
	return New(categories.DefaultMappings(), categories.DefaultKeywordRules(), categories.Fallback)
}

func TestClassify_Exact(t *testing.T) {
	cl := defaultClassifier().Classify("expenses : TOOLS")
	assert.True(t, cl.Mapped)
	assert.Equal(t, "Tools & Equipment", cl.Category)
	assert.Equal(t, "Expenses:Tools", cl.MatchedPath)
	assert.Empty(t, cl.Suggestion)
}

func TestClassify_LongestPrefix(t *testing.T) {
	c := New([]model.CategoryMapping{
		{AccountPath: "Expenses", Category: "Office & Admin", Active: true},
		{AccountPath: "Expenses:Tools", Category: "Tools & Equipment", Active: true},
	}, nil, categories.Fallback)

	cl := c.Classify("Expenses:Tools:Power Tools")
	assert.True(t, cl.Mapped)
	assert.Equal(t, "Tools & Equipment", cl.Category)
	assert.Equal(t, "Expenses:Tools", cl.MatchedPath)

	cl = c.Classify("Expenses:Travel")
	assert.Equal(t, "Office & Admin", cl.Category)
}

func TestClassify_InactiveIgnored(t *testing.T) {
	c := New([]model.CategoryMapping{
		{AccountPath: "Expenses:Tools", Category: "Tools & Equipment", Active: false},
	}, nil, categories.Fallback)
	cl := c.Classify("Expenses:Tools")
	assert.False(t, cl.Mapped)
	assert.Equal(t, categories.Fallback, cl.Category)
}

func TestClassify_DumpsterScenario(t *testing.T) {
	c := defaultClassifier()
	row := model.RawRow{Line: 6, Amount: decimal.RequireFromString("450.00"), AccountPath: "Cost of Goods Sold:Dumpster Rental"}

	cl := c.Classify(row.AccountPath)
	require.False(t, cl.Mapped)
	assert.Equal(t, categories.Fallback, cl.Category, "suggestion must not be applied")
	assert.Equal(t, "Dumpster & Waste", cl.Suggestion)

	tr := NewUnmappedTracker()
	tr.Add(row, cl)
	items := tr.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Cost of Goods Sold:Dumpster Rental", items[0].AccountPath)
	assert.Equal(t, 1, items[0].Count)
	assert.Equal(t, "Dumpster & Waste", items[0].Suggestion)
	assert.Equal(t, "450.00", items[0].TotalAmount.StringFixed(2))
}

func TestSuggest(t *testing.T) {
	c := defaultClassifier()
	assert.Equal(t, "Tools & Equipment", c.Suggest("Expenses:Tool Rentals"))
	assert.Equal(t, "Fuel & Vehicle", c.Suggest("Auto:Gas"))
	assert.Equal(t, "", c.Suggest("Miscellaneous"))
	assert.Equal(t, "", c.Suggest("Expenses:Gasket"), "short keywords match whole words only")

	multi := New(nil, []model.KeywordRule{{Category: "Dumpster & Waste", Keywords: []string{"roll off"}}}, categories.Fallback)
	assert.Equal(t, "Dumpster & Waste", multi.Suggest("Job Costs:Roll-Off Container"))
}

func TestUnmappedTracker_Aggregates(t *testing.T) {
	c := defaultClassifier()
	tr := NewUnmappedTracker()
	rows := []model.RawRow{
		{Line: 2, Amount: decimal.RequireFromString("-100"), AccountPath: "Misc:Stuff"},
		{Line: 3, Amount: decimal.RequireFromString("50"), AccountPath: "Expenses:Tools"},
		{Line: 4, Amount: decimal.RequireFromString("25.50"), AccountPath: "misc : stuff"},
		{Line: 5, Amount: decimal.RequireFromString("10"), AccountPath: "Other"},
	}
	for _, r := range rows {
		tr.Add(r, c.Classify(r.AccountPath))
	}

	items := tr.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Misc:Stuff", items[0].AccountPath)
	assert.Equal(t, 2, items[0].Count)
	assert.Equal(t, "125.50", items[0].TotalAmount.StringFixed(2))
	assert.Equal(t, []int{2, 4}, items[0].Lines)
	assert.Equal(t, "Other", items[1].AccountPath)
}
