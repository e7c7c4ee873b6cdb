package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/crewledger/crewledger/internal/model"
)

const header = "Date,Transaction type,Name,Project/WO #,Account full name,Account name,Description,Invoice #,Amount\n"

func readCSV(t *testing.T, data string) []Record {
	t.Helper()
	recs, err := (&CSVReader{}).Read(strings.NewReader(data))
	require.NoError(t, err)
	return recs
}

func TestCSVReader_Testdata(t *testing.T) {
	recs, err := DefaultRegistry().ReadFile("../../testdata/export.csv")
	require.NoError(t, err)
	require.Len(t, recs, 6)

	// Title line above the header shifts data to line 3.
	assert.Equal(t, 3, recs[0].Line)
	assert.Equal(t, "Home Depot", recs[0].Get(ColName))
	assert.Equal(t, "Expenses:Tools", recs[0].Get(ColAccountFull))
}

func TestParse_Testdata(t *testing.T) {
	recs, err := DefaultRegistry().ReadFile("../../testdata/export.csv")
	require.NoError(t, err)

	res := Parse(recs)
	require.Len(t, res.Rows, 5)
	require.Len(t, res.Errors, 1)

	first := res.Rows[0]
	assert.Equal(t, "2025-01-15", first.Date.Format("2006-01-02"))
	assert.Equal(t, "100.00", first.Amount.StringFixed(2))
	assert.Equal(t, model.KindExpense, first.Kind)
	assert.Equal(t, model.TrackExpense, first.Track)
	assert.Equal(t, "24-101", first.ProjectReference)
	assert.Empty(t, first.InvoiceNumber)

	assert.Equal(t, "1250.40", res.Rows[1].Amount.StringFixed(2))
	assert.Equal(t, model.KindCreditCard, res.Rows[1].Kind)
	assert.True(t, res.Rows[2].Amount.IsNegative())
	assert.Equal(t, "-2000.00", res.Rows[2].Amount.StringFixed(2))

	inv := res.Rows[4]
	assert.Equal(t, model.KindInvoice, inv.Kind)
	assert.Equal(t, model.TrackRevenue, inv.Track)
	assert.Equal(t, "1042", inv.InvoiceNumber)

	assert.Equal(t, ColDate, res.Errors[0].Field)
	assert.Equal(t, 8, res.Errors[0].Line)
	assert.ErrorIs(t, res.Errors[0], ErrBadDate)
}

func TestParse_BadAmountContinuesBatch(t *testing.T) {
	recs := readCSV(t, header+
		"01/15/2025,Expense,A,,Expenses:Tools,,,,NOTANUMBER\n"+
		"01/15/2025,Expense,B,,Expenses:Tools,,,,12.50\n")
	res := Parse(recs)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "B", res.Rows[0].Name)
	assert.ErrorIs(t, res.Errors[0], ErrBadAmount)
	assert.Contains(t, res.Errors[0].Error(), "NOTANUMBER")
}

func TestParse_SubCentAmountIsRowError(t *testing.T) {
	recs := readCSV(t, header+
		"01/15/2025,Expense,A,,Expenses:Tools,,,,100.00\n"+
		"01/15/2025,Expense,B,,Expenses:Tools,,,,10.005\n")
	res := Parse(recs)
	require.Len(t, res.Rows, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ColAmount, res.Errors[0].Field)
	assert.Equal(t, 3, res.Errors[0].Line)
	assert.ErrorIs(t, res.Errors[0], ErrAmountPrecision)
}

func TestParse_UnknownKind(t *testing.T) {
	recs := readCSV(t, header+"01/15/2025,Journal Entry,A,,Expenses:Tools,,,,1.00\n")
	res := Parse(recs)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrUnknownKind)
}

func TestParse_InvoiceNumberOnlyOnRevenue(t *testing.T) {
	recs := readCSV(t, header+"01/15/2025,Expense,A,,Expenses:Tools,,,99,1.00\n")
	res := Parse(recs)
	require.Len(t, res.Rows, 1)
	assert.Empty(t, res.Rows[0].InvoiceNumber)
}

func TestParse_AccountNameFallback(t *testing.T) {
	recs := readCSV(t, header+"01/15/2025,Expense,A,,,Tools,,,1.00\n")
	res := Parse(recs)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Tools", res.Rows[0].AccountPath)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100", "100.00"},
		{"$1,234.56", "1234.56"},
		{"-$45.00", "-45.00"},
		{"(45.00)", "-45.00"},
		{"45.00-", "-45.00"},
		{" € 12,00 ", "1200.00"},
		{"USD 10.5", "10.50"},
		{"10.500", "10.50"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, "ParseAmount(%q)", tt.in)
		assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.in)
	}

	_, err := ParseAmount("10.005")
	assert.ErrorIs(t, err, ErrAmountPrecision)
	assert.ErrorIs(t, err, ErrBadAmount)

	for _, bad := range []string{"", "abc", "$", "1.2.3"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrBadAmount, "ParseAmount(%q)", bad)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"01/15/2025", "1/15/2025", "2025-01-15", "01/15/25", "Jan 15, 2025"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-01-15", d.Format("2006-01-02"), in)
	}
	_, err := ParseDate("15.01.2025x")
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestCSVReader_MissingColumn(t *testing.T) {
	_, err := (&CSVReader{}).Read(strings.NewReader("Date,Amount,Name\n01/15/2025,1.00,A\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Transaction type")
}

func TestCSVReader_NoHeader(t *testing.T) {
	_, err := (&CSVReader{}).Read(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCSVReader_SkipsBlankRows(t *testing.T) {
	recs := readCSV(t, header+",,,,,,,,\n01/15/2025,Expense,A,,Expenses:Tools,,,,1.00\n")
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Line)
}

func TestCSVReader_HeaderCaseInsensitive(t *testing.T) {
	recs := readCSV(t, "\ufeffDATE,transaction TYPE,name,account full name,amount\n01/15/2025,Expense,A,Expenses:Tools,1.00\n")
	require.Len(t, recs, 1)
	assert.Equal(t, "A", recs[0].Get(ColName))
}

func TestXLSXReader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Transaction type", "Name", "Account full name", "Amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2025-01-15", "Bill", "Waste Pro", "Cost of Goods Sold:Dumpster Rental", "450.00"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	recs, err := (&XLSXReader{}).Read(buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	res := Parse(recs)
	require.Len(t, res.Rows, 1)
	assert.True(t, res.Rows[0].Amount.Equal(decimal.RequireFromString("450")))
	assert.Equal(t, model.KindBill, res.Rows[0].Kind)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.NotNil(t, r.Get("CSV"))
	assert.NotNil(t, r.Get("Csv"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CSVReader{})
	assert.Panics(t, func() { r.Register(&CSVReader{}) })
}

func TestRegistry_ReaderFor(t *testing.T) {
	r := DefaultRegistry()
	rd, err := r.ReaderFor("Export.XLSX")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", rd.Format())

	_, err = r.ReaderFor("export.pdf")
	assert.Error(t, err)
}

func TestScan_FindsExports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jan.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "feb.xlsx"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("data"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "processed", "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	names := []string{files[0].Name, files[1].Name}
	assert.ElementsMatch(t, []string{"jan.csv", "feb.xlsx"}, names)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jan.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "jan.csv"))

	_, err := os.Stat(filepath.Join(dir, "jan.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "processed", "jan.csv"))
	assert.NoError(t, err)
}
