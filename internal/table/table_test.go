package table

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetchat/internal/formats/xlsx"
)

func salesTable() *Table {
	t := New("Sales", []string{" Region ", "Sales ($)", "Units", "Order Date"}, [][]string{
		{"East", "100", "3", "2024-01-02"},
		{"West", "250.5", "", "2024-01-03"},
		{"", "", "", ""},
		{"East", "49.5", "7", "2024-01-04"},
		{"North", "", "1"},
	})
	t.Normalize()
	return t
}

func TestNewInfersKinds(t *testing.T) {
	tbl := salesTable()

	require.Equal(t, 4, tbl.Len(), "blank rows are dropped")
	assert.Equal(t, []string{"region", "sales_", "units", "order_date"}, tbl.Names())

	assert.Equal(t, KindText, tbl.Column("region").Kind)
	assert.Equal(t, KindNumeric, tbl.Column("sales_").Kind)
	assert.Equal(t, KindNumeric, tbl.Column("units").Kind)
	assert.Equal(t, KindText, tbl.Column("order_date").Kind)
}

func TestAllEmptyColumnIsText(t *testing.T) {
	tbl := New("t", []string{"a", "b"}, [][]string{{"1", ""}, {"2", ""}})
	assert.True(t, tbl.Column("a").IsNumeric())
	assert.False(t, tbl.Column("b").IsNumeric())
}

func TestNaNStringIsText(t *testing.T) {
	tbl := New("t", []string{"label"}, [][]string{{"nan"}, {"inf"}})
	assert.False(t, tbl.Column("label").IsNumeric())
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Sales":            "sales",
		"  Unit Price  ":   "unit_price",
		"Revenue ($, USD)": "revenue_usd_",
		"a--b__c":          "a_b_c",
		"Größe":            "größe",
		"already_snake_2":  "already_snake_2",
		"#ID":              "_id",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "NormalizeName(%q)", in)
		assert.Equal(t, want, NormalizeName(NormalizeName(in)), "idempotent for %q", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tbl := New("t", []string{"Total Sales", "total-sales", "Total_Sales_2", "City "}, nil)
	tbl.Normalize()
	once := tbl.Names()
	tbl.Normalize()
	assert.Equal(t, once, tbl.Names())
	assert.Equal(t, []string{"total_sales", "total_sales_2", "total_sales_2_2", "city"}, once)
	assert.True(t, tbl.Normalized())
}

func TestColumnMapKeepsOriginals(t *testing.T) {
	tbl := salesTable()
	m := tbl.ColumnMap()
	assert.Equal(t, "Region", m["region"])
	assert.Equal(t, "Sales ($)", m["sales_"])
}

func TestUnnamedHeader(t *testing.T) {
	tbl := New("t", []string{"", "x"}, [][]string{{"a", "b"}})
	tbl.Normalize()
	assert.Equal(t, "unnamed_0", tbl.Columns()[0].Name)
	assert.Equal(t, "Unnamed: 0", tbl.Columns()[0].Original)
}

func TestDuplicateHeadersKeepEveryColumn(t *testing.T) {
	tbl := New("s", []string{"Sales", "Sales", "Region", "Sales"}, [][]string{{"1", "2", "East", "3"}})
	tbl.Normalize()

	assert.Equal(t, []string{"sales", "sales_1", "region", "sales_2"}, tbl.Names())
	rs := tbl.Head(0)
	assert.Equal(t, []string{"Sales", "Sales.1", "Region", "Sales.2"}, rs.Headers(true))

	recs := rs.OriginalRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"Sales": 1.0, "Sales.1": 2.0, "Region": "East", "Sales.2": 3.0}, recs[0])
}

func TestWhereAndSelect(t *testing.T) {
	tbl := salesTable()
	region := tbl.Column("region")

	idx := tbl.Where(region, "EAST")
	assert.Equal(t, []int{0, 2}, idx)

	rs := tbl.Select(idx)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, "East", rs.Records[0]["region"])
	assert.Equal(t, 100.0, rs.Records[0]["sales_"])
	assert.Equal(t, []string{"Region", "Sales ($)", "Units", "Order Date"}, rs.Headers(true))
	assert.Equal(t, []string{"East", "49.5", "7", "2024-01-04"}, rs.Cells()[1])

	orig := rs.OriginalRecords()
	assert.Equal(t, "East", orig[0]["Region"])
}

func TestNullValues(t *testing.T) {
	tbl := salesTable()
	units := tbl.Column("units")
	assert.Nil(t, units.Value(1))
	assert.Equal(t, "", units.String(1))
	_, ok := units.Float(1)
	assert.False(t, ok)
}

func TestDistinctAndHasValue(t *testing.T) {
	tbl := salesTable()
	region := tbl.Column("region")
	assert.Equal(t, []string{"east", "west", "north"}, region.Distinct())
	assert.True(t, region.HasValue("west"))
	assert.False(t, region.HasValue("south"))
}

func TestSumMean(t *testing.T) {
	tbl := salesTable()
	sales := tbl.Column("sales_")
	assert.InDelta(t, 400.0, sales.Sum(), 1e-9)
	assert.InDelta(t, 400.0/3, sales.Mean(), 1e-9)

	empty := New("t", []string{"x"}, [][]string{{"a"}}).Column("x")
	assert.True(t, math.IsNaN(empty.Mean()))
	assert.Equal(t, "nan", FormatNumber(empty.Mean()))
}

func TestValueCountsOrder(t *testing.T) {
	tbl := New("t", []string{"city"}, [][]string{{"Paris"}, {"Rome"}, {"Rome"}, {"Oslo"}, {"Paris"}, {"Rome"}, {""}})
	counts := tbl.Column("city").ValueCounts()
	assert.Equal(t, []Count{{"Rome", 3}, {"Paris", 2}, {"Oslo", 1}}, counts)
}

func TestGroupSum(t *testing.T) {
	tbl := salesTable()
	groups := tbl.GroupSum(tbl.Column("region"), tbl.Column("sales_"))
	require.Len(t, groups, 3)
	assert.Equal(t, Group{Key: "East", Value: 149.5, Count: 2}, groups[0])
	assert.Equal(t, Group{Key: "North", Value: 0, Count: 1}, groups[1])
	assert.Equal(t, Group{Key: "West", Value: 250.5, Count: 1}, groups[2])
}

func TestGroupSumNumericKeys(t *testing.T) {
	tbl := New("t", []string{"year", "amount"}, [][]string{{"2024", "1"}, {"999", "2"}, {"2024", "3"}})
	groups := tbl.GroupSum(tbl.Column("year"), tbl.Column("amount"))
	require.Len(t, groups, 2)
	assert.Equal(t, "999", groups[0].Key)
	assert.Equal(t, 4.0, groups[1].Value)
}

func TestRoundTo2(t *testing.T) {
	assert.Equal(t, 133.33, RoundTo2(400.0/3))
	assert.Equal(t, "1234.5", FormatNumber(RoundTo2(1234.499999)))
}

func TestLoadAndExport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sales.xlsx")
	require.NoError(t, xlsx.WriteFile(&xlsx.Workbook{Sheets: []xlsx.Sheet{{
		Name: "Data",
		Rows: [][]string{{"Region", "Sales"}, {"East", "10"}, {"West", "20"}},
	}}}, src))

	tbl, err := Load(src, "")
	require.NoError(t, err)
	assert.Equal(t, "Data", tbl.Name)
	assert.True(t, tbl.Column("sales").IsNumeric())

	out := filepath.Join(dir, "east.csv")
	rs := tbl.Select(tbl.Where(tbl.Column("region"), "east"))
	require.NoError(t, rs.Export(out))

	back, err := Load(out, "")
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())
	assert.Equal(t, []string{"region", "sales"}, back.Names())

	assert.Error(t, rs.Export(filepath.Join(dir, "east.txt")))
}

func TestFromSheetEmpty(t *testing.T) {
	_, err := FromSheet(&xlsx.Sheet{Name: "Blank"})
	assert.Error(t, err)
}
