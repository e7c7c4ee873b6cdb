package categories

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMappings_UseChartCategories(t *testing.T) {
	svc := NewService(DefaultChart())
	for _, m := range DefaultMappings() {
		assert.True(t, svc.Exists(m.Category), "mapping %s -> %s", m.AccountPath, m.Category)
		assert.True(t, m.Active)
	}
	for _, r := range DefaultKeywordRules() {
		assert.True(t, svc.Exists(r.Category), "rule category %s", r.Category)
		assert.NotEmpty(t, r.Keywords)
	}
	assert.True(t, svc.Exists(Fallback))
}

func TestDefaultMappings_DumpsterUnmapped(t *testing.T) {
	for _, m := range DefaultMappings() {
		assert.NotEqual(t, "Cost of Goods Sold", m.AccountPath)
		assert.NotContains(t, m.AccountPath, "Dumpster")
	}
}

func TestService_Get(t *testing.T) {
	svc := NewService(DefaultChart())

	c, ok := svc.Get("  materials ")
	require.True(t, ok)
	assert.Equal(t, "Materials", c.Name)

	_, ok = svc.Get("Yachts")
	assert.False(t, ok)

	assert.Equal(t, "Tools & Equipment", svc.Canonical("tools & equipment"))
	assert.Equal(t, "Yachts", svc.Canonical(" Yachts "))

	income, _ := svc.Get("Income")
	assert.True(t, income.Revenue)
}

func TestWriteReadMappings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMappings(&buf, DefaultMappings()))
	assert.True(t, strings.HasPrefix(buf.String(), "account_path,category,active\n"))

	got, err := ReadMappings(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(DefaultMappings()))
	assert.Equal(t, "Accounts Receivable", got[0].AccountPath)
	assert.Equal(t, "Income", got[0].Category)
	assert.True(t, got[0].Active)
}

func TestReadMappings_NoHeaderAndDefaults(t *testing.T) {
	got, err := ReadMappings(strings.NewReader("Cost of Goods Sold : Dumpster Rental,Dumpster & Waste,\nExpenses:Old,Materials,false\n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cost of Goods Sold:Dumpster Rental", got[0].AccountPath)
	assert.True(t, got[0].Active)
	assert.False(t, got[1].Active)
}

func TestUnmarshalMapping_Errors(t *testing.T) {
	_, err := UnmarshalMapping([]string{"a"})
	assert.Error(t, err)

	_, err = UnmarshalMapping([]string{"", "Materials", "true"})
	assert.ErrorContains(t, err, "empty account path")

	_, err = UnmarshalMapping([]string{"Expenses:Tools", "", "true"})
	assert.ErrorContains(t, err, "empty category")

	_, err = UnmarshalMapping([]string{"Expenses:Tools", "Materials", "maybe"})
	assert.ErrorContains(t, err, "parsing active")
}
