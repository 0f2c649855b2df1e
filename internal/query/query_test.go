package query

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/table"
)

type fakeCharts struct {
	titles []string
	bars   [][]chart.Point
	values [][]float64
	err    error
}

func (f *fakeCharts) Bar(_ context.Context, title string, points []chart.Point) (*chart.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.titles = append(f.titles, title)
	f.bars = append(f.bars, points)
	return &chart.Artifact{Kind: chart.KindBar, Path: "charts/bar_chart.png", Title: title}, nil
}

func (f *fakeCharts) Histogram(_ context.Context, title string, values []float64) (*chart.Artifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.titles = append(f.titles, title)
	f.values = append(f.values, values)
	return &chart.Artifact{Kind: chart.KindHistogram, Path: "charts/histogram.png", Title: title}, nil
}

func salesTable() *table.Table {
	return table.New("Sales", []string{"Region", "Sales", "Units", "Rep"}, [][]string{
		{"East", "100", "3", "alice"},
		{"West", "250", "5", "bob"},
		{"East", "50", "2", "carol"},
		{"South", "80", "4", "alice"},
	})
}

func ask(t *testing.T, e *Engine, tbl *table.Table, q string) Result {
	t.Helper()
	res, err := e.Ask(context.Background(), tbl, q)
	require.NoError(t, err)
	return res
}

func TestFilterFromValue(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "show all from east")

	require.Equal(t, KindRows, res.Kind)
	assert.Equal(t, IntentFilter, res.Intent)
	require.Equal(t, 2, res.Rows.Len())
	for _, rec := range res.Rows.Records {
		assert.Equal(t, "East", rec["region"])
	}
}

func TestFilterWhereNoRows(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "where region is north")

	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, IntentFilter, res.Intent)
	assert.Equal(t, "No rows found matching the filter.", res.Text)
}

func TestFilterWhereMatches(t *testing.T) {
	for _, q := range []string{"rows where region is west", "where region = west"} {
		res := ask(t, New(nil), salesTable(), q)
		require.Equal(t, KindRows, res.Kind, q)
		require.Equal(t, 1, res.Rows.Len(), q)
		assert.Equal(t, float64(250), res.Rows.Records[0]["sales"], q)
	}
}

func TestFilterDeclinesUnknownColumn(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "where planet is mars")
	assert.Equal(t, IntentFallback, res.Intent)
	assert.Equal(t, FallbackMessage, res.Text)
}

func TestFilterFromUnknownValueFallsThrough(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "average sales from mars")
	assert.Equal(t, IntentAverage, res.Intent)
	assert.Equal(t, "Averages:\nsales: 120", res.Text)
}

func TestAverage(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "What is the AVERAGE Sales?")
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, IntentAverage, res.Intent)
	assert.Equal(t, "Averages:\nsales: 120", res.Text)
}

func TestAverageRounds(t *testing.T) {
	tbl := table.New("t", []string{"score"}, [][]string{{"1"}, {"2"}, {"2"}})
	res := ask(t, New(nil), tbl, "mean score")
	assert.Equal(t, "Averages:\nscore: 1.67", res.Text)
}

func TestTotals(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "total units")
	assert.Equal(t, IntentTotal, res.Intent)
	assert.Equal(t, "Totals:\nunits: 14", res.Text)

	res = ask(t, New(nil), salesTable(), "give me the sum")
	assert.Equal(t, "Totals:\nsales: 480\nunits: 14", res.Text)
}

func TestAggregateWithoutNumericColumns(t *testing.T) {
	tbl := table.New("t", []string{"name"}, [][]string{{"a"}, {"b"}})

	res := ask(t, New(nil), tbl, "average name")
	assert.Equal(t, IntentAverage, res.Intent)
	assert.Equal(t, "No numeric columns found for calculating average.", res.Text)

	res = ask(t, New(nil), tbl, "total")
	assert.Equal(t, "No numeric columns found for calculating total.", res.Text)
}

func TestCountRows(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "how many rows")
	assert.Equal(t, IntentCount, res.Intent)
	assert.Equal(t, "There are 4 rows in the data.", res.Text)
}

func TestCountColumn(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "count per region")
	assert.Equal(t, "Counts for region:\nEast: 2\nWest: 1\nSouth: 1", res.Text)
}

func TestBarChart(t *testing.T) {
	charts := &fakeCharts{}
	res := ask(t, New(charts), salesTable(), "Draw a bar chart of sales by region.")

	require.Equal(t, KindChart, res.Kind)
	assert.Equal(t, IntentBarChart, res.Intent)
	require.Len(t, charts.bars, 1)
	assert.Equal(t, "Bar Chart of sales by region", charts.titles[0])
	assert.Equal(t, []chart.Point{
		{Label: "East", Value: 150},
		{Label: "South", Value: 80},
		{Label: "West", Value: 250},
	}, charts.bars[0])
}

func TestBarChartUnresolved(t *testing.T) {
	cases := []string{
		"bar chart of rep by region",
		"bar chart of profit by region",
		"bar graph of sales by",
	}
	for _, q := range cases {
		charts := &fakeCharts{}
		res := ask(t, New(charts), salesTable(), q)
		assert.Equal(t, IntentBarChart, res.Intent, q)
		assert.Equal(t, "Could not find columns to plot bar chart. Please be more specific.", res.Text, q)
		assert.Empty(t, charts.bars, q)
	}
}

func TestBarChartWithoutByFallsThrough(t *testing.T) {
	charts := &fakeCharts{}
	e := New(charts)

	res := ask(t, e, salesTable(), "show a bar chart of sales")
	assert.Equal(t, IntentFallback, res.Intent)
	assert.Equal(t, FallbackMessage, res.Text)
	assert.Empty(t, charts.bars)

	res = ask(t, e, salesTable(), "bar chart and histogram of sales")
	assert.Equal(t, IntentHistogram, res.Intent)
	require.NotNil(t, res.Chart)
}

func TestBarChartWritesSamePathTwice(t *testing.T) {
	dir := t.TempDir()
	e := New(chart.NewRenderer(chart.Options{Dir: dir, Width: 300, Height: 200}))

	first := ask(t, e, salesTable(), "bar chart of sales by region")
	second := ask(t, e, salesTable(), "bar chart of units by region")

	require.NotNil(t, first.Chart)
	require.NotNil(t, second.Chart)
	assert.Equal(t, filepath.Join(dir, "bar_chart.png"), first.Chart.Path)
	assert.Equal(t, first.Chart.Path, second.Chart.Path)
	assert.True(t, strings.HasSuffix(second.Chart.Path, "bar_chart.png"))

	info, err := os.Stat(second.Chart.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestHistogram(t *testing.T) {
	charts := &fakeCharts{}
	res := ask(t, New(charts), salesTable(), "histogram of units")

	require.Equal(t, KindChart, res.Kind)
	assert.Equal(t, IntentHistogram, res.Intent)
	assert.Equal(t, "Histogram of units", charts.titles[0])
	assert.Equal(t, []float64{3, 5, 2, 4}, charts.values[0])
}

func TestHistogramWithoutNumericColumn(t *testing.T) {
	res := ask(t, New(&fakeCharts{}), salesTable(), "histogram of region")
	assert.Equal(t, IntentHistogram, res.Intent)
	assert.Equal(t, "No numeric column found to plot histogram.", res.Text)
}

func TestShowAll(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "show all orders in the south region")

	require.Equal(t, KindRows, res.Kind)
	assert.Equal(t, IntentShowAll, res.Intent)
	require.Equal(t, 1, res.Rows.Len())
	assert.Equal(t, "South", res.Rows.Records[0]["region"])
}

func TestShowAllWithoutValueFallsBack(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "show all regions please")
	assert.Equal(t, IntentFallback, res.Intent)
}

func TestFallback(t *testing.T) {
	res := ask(t, New(nil), salesTable(), "tell me a joke")
	assert.Equal(t, KindText, res.Kind)
	assert.Equal(t, IntentFallback, res.Intent)
	assert.Equal(t, FallbackMessage, res.Text)
}

func TestPolicyStrictStopsAtFailure(t *testing.T) {
	res := ask(t, New(&fakeCharts{}), salesTable(), "histogram of region, or show all east region")
	assert.Equal(t, IntentHistogram, res.Intent)
	assert.Equal(t, "No numeric column found to plot histogram.", res.Text)
}

func TestPolicyLenientContinues(t *testing.T) {
	e := New(&fakeCharts{}, WithPolicy(PolicyLenient))
	assert.Equal(t, PolicyLenient, e.Policy())

	res := ask(t, e, salesTable(), "histogram of region, or show all east region")
	assert.Equal(t, IntentShowAll, res.Intent)
	require.Equal(t, KindRows, res.Kind)
	assert.Equal(t, 2, res.Rows.Len())

	res = ask(t, e, salesTable(), "histogram of region")
	assert.Equal(t, IntentHistogram, res.Intent)
	assert.Equal(t, "No numeric column found to plot histogram.", res.Text)
}

func TestWordResolverAvoidsPartialMatches(t *testing.T) {
	tbl := func() *table.Table {
		return table.New("t", []string{"Age", "Score"}, [][]string{{"30", "1"}, {"40", "3"}})
	}

	res := ask(t, New(nil), tbl(), "average score")
	assert.Equal(t, "Averages:\nage: 35\nscore: 2", res.Text)

	res = ask(t, New(nil, WithResolver(WordResolver{})), tbl(), "average score")
	assert.Equal(t, "Averages:\nscore: 2", res.Text)
}

func TestWordResolver(t *testing.T) {
	r := WordResolver{}
	assert.True(t, r.Mentions("show all unit price rows", "unit_price"))
	assert.True(t, r.Mentions("total unit_price", "unit_price"))
	assert.False(t, r.Mentions("average", "age"))
	assert.False(t, r.Mentions("anything", ""))

	tbl := table.New("t", []string{"Unit Price", "Qty"}, [][]string{{"1", "2"}})
	tbl.Normalize()
	require.NotNil(t, r.Token(tbl, "price"))
	assert.Equal(t, "unit_price", r.Token(tbl, "price").Name)
	assert.Nil(t, r.Token(tbl, "pri"))
	assert.Nil(t, r.Token(tbl, ""))
}

func TestParseResolver(t *testing.T) {
	r, err := ParseResolver("")
	require.NoError(t, err)
	assert.IsType(t, SubstringResolver{}, r)

	r, err = ParseResolver("word")
	require.NoError(t, err)
	assert.IsType(t, WordResolver{}, r)

	_, err = ParseResolver("fuzzy")
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("lenient")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)

	_, err = ParsePolicy("loose")
	assert.Error(t, err)
}

func TestIntentsOrder(t *testing.T) {
	assert.Equal(t, []string{
		"filter", "average", "total", "count", "bar_chart", "histogram", "show_all", "fallback",
	}, New(nil).Intents())
}

func TestAskErrors(t *testing.T) {
	_, err := New(nil).Ask(context.Background(), nil, "how many rows")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(nil).Ask(ctx, salesTable(), "how many rows")
	assert.ErrorIs(t, err, context.Canceled)

	boom := errors.New("disk full")
	_, err = New(&fakeCharts{err: boom}).Ask(context.Background(), salesTable(), "bar chart of sales by region")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bar_chart")

	_, err = New(nil).Ask(context.Background(), salesTable(), "bar chart of sales by region")
	assert.Error(t, err)
}

func TestAskNormalizesHeaders(t *testing.T) {
	tbl := table.New("t", []string{"Unit Price"}, [][]string{{"2"}, {"4"}})
	res := ask(t, New(nil), tbl, "average unit_price")
	assert.Equal(t, "Averages:\nunit_price: 3", res.Text)
	assert.True(t, tbl.Normalized())
}
