package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/klytics/sheetchat/internal/chart"
	"github.com/klytics/sheetchat/internal/table"
)

const (
	msgNoFilterRows   = "No rows found matching the filter."
	msgBarUnresolved  = "Could not find columns to plot bar chart. Please be more specific."
	msgNoHistogramCol = "No numeric column found to plot histogram."
)

var (
	fromPattern  = regexp.MustCompile(`from ([\p{L}\p{N}_]+)`)
	wherePattern = regexp.MustCompile(`where ([\p{L}\p{N}_]+) (is|=|= is) ([\p{L}\p{N}_]+)`)
)

func containsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// filterHandler answers "... from <value>" and "... where <col> is <value>".
// It declines when neither pattern finds a usable column, letting later
// intents have the question.
type filterHandler struct{}

func (filterHandler) Name() string { return IntentFilter }

func (filterHandler) Match(q string) bool {
	return fromPattern.MatchString(q) || wherePattern.MatchString(q)
}

func (filterHandler) Handle(req *Request) (Result, Outcome, error) {
	t := req.Table

	if m := fromPattern.FindStringSubmatch(req.Query); m != nil {
		value := m[1]
		for _, c := range t.Columns() {
			if c.HasValue(value) {
				return filtered(t, c, value), Handled, nil
			}
		}
	}

	if m := wherePattern.FindStringSubmatch(req.Query); m != nil {
		if c := t.Column(m[1]); c != nil {
			return filtered(t, c, m[3]), Handled, nil
		}
	}

	return Result{}, Declined, nil
}

func filtered(t *table.Table, c *table.Column, value string) Result {
	rows := t.Where(c, value)
	if len(rows) == 0 {
		return textResult(msgNoFilterRows)
	}
	return rowsResult(t.Select(rows))
}

// aggregateHandler covers both averages and totals over numeric columns.
type aggregateHandler struct {
	name     string
	triggers []string
}

func (h aggregateHandler) Name() string { return h.name }

func (h aggregateHandler) Match(q string) bool {
	return containsAny(q, h.triggers...)
}

func (h aggregateHandler) Handle(req *Request) (Result, Outcome, error) {
	cols := numericOnly(req.Resolver.Columns(req.Table, req.Query))
	if len(cols) == 0 {
		cols = req.Table.NumericColumns()
	}

	heading, noun := "Totals:", "total"
	if h.name == IntentAverage {
		heading, noun = "Averages:", "average"
	}
	if len(cols) == 0 {
		return textResult(fmt.Sprintf("No numeric columns found for calculating %s.", noun)), Failed, nil
	}

	lines := make([]string, 0, len(cols)+1)
	lines = append(lines, heading)
	for _, c := range cols {
		v := c.Sum()
		if h.name == IntentAverage {
			v = c.Mean()
		}
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, table.FormatNumber(table.RoundTo2(v))))
	}
	return textResult(strings.Join(lines, "\n")), Handled, nil
}

func numericOnly(cols []*table.Column) []*table.Column {
	var out []*table.Column
	for _, c := range cols {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// countHandler reports the row count, or a frequency table for the first
// referenced column.
type countHandler struct{}

func (countHandler) Name() string { return IntentCount }

func (countHandler) Match(q string) bool {
	return containsAny(q, "count", "how many")
}

func (countHandler) Handle(req *Request) (Result, Outcome, error) {
	cols := req.Resolver.Columns(req.Table, req.Query)
	if len(cols) == 0 {
		return textResult(fmt.Sprintf("There are %d rows in the data.", req.Table.Len())), Handled, nil
	}

	c := cols[0]
	counts := c.ValueCounts()
	lines := make([]string, 0, len(counts)+1)
	lines = append(lines, fmt.Sprintf("Counts for %s:", c.Name))
	for _, vc := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", vc.Value, vc.Count))
	}
	return textResult(strings.Join(lines, "\n")), Handled, nil
}

// barChartHandler plots "<measure> by <group>" as summed bars.
type barChartHandler struct{}

func (barChartHandler) Name() string { return IntentBarChart }

func (barChartHandler) Match(q string) bool {
	return containsAny(q, "bar chart", "bar graph")
}

func (barChartHandler) Handle(req *Request) (Result, Outcome, error) {
	measureTok, groupTok, ok := splitBy(req.Query)
	if !ok {
		return Result{}, Declined, nil
	}
	measure := req.Resolver.Token(req.Table, measureTok)
	group := req.Resolver.Token(req.Table, groupTok)
	if measure == nil || group == nil || !measure.IsNumeric() {
		return textResult(msgBarUnresolved), Failed, nil
	}

	groups := req.Table.GroupSum(group, measure)
	if len(groups) == 0 {
		return textResult(msgBarUnresolved), Failed, nil
	}
	points := make([]chart.Point, len(groups))
	for i, g := range groups {
		points[i] = chart.Point{Label: g.Key, Value: g.Value}
	}

	if req.Charts == nil {
		return Result{}, Failed, fmt.Errorf("chart rendering is not configured")
	}
	title := fmt.Sprintf("Bar Chart of %s by %s", measure.Name, group.Name)
	art, err := req.Charts.Bar(req.Ctx, title, points)
	if err != nil {
		return Result{}, Failed, err
	}
	return Result{Kind: KindChart, Chart: art}, Handled, nil
}

// splitBy returns the words either side of the first literal "by", with
// surrounding punctuation trimmed. ok is false when q has no "by".
func splitBy(q string) (measure, group string, ok bool) {
	words := strings.Fields(q)
	for i, w := range words {
		if w != "by" {
			continue
		}
		if i > 0 {
			measure = trimWord(words[i-1])
		}
		if i+1 < len(words) {
			group = trimWord(words[i+1])
		}
		return measure, group, true
	}
	return "", "", false
}

func trimWord(w string) string {
	return strings.Trim(w, `.,;:!?"'()[]`)
}

// histogramHandler plots the distribution of the first referenced numeric column.
type histogramHandler struct{}

func (histogramHandler) Name() string { return IntentHistogram }

func (histogramHandler) Match(q string) bool {
	return strings.Contains(q, "histogram")
}

func (histogramHandler) Handle(req *Request) (Result, Outcome, error) {
	cols := numericOnly(req.Resolver.Columns(req.Table, req.Query))
	if len(cols) == 0 {
		return textResult(msgNoHistogramCol), Failed, nil
	}
	c := cols[0]
	values := c.Floats()
	if len(values) == 0 {
		return textResult(msgNoHistogramCol), Failed, nil
	}

	if req.Charts == nil {
		return Result{}, Failed, fmt.Errorf("chart rendering is not configured")
	}
	art, err := req.Charts.Histogram(req.Ctx, fmt.Sprintf("Histogram of %s", c.Name), values)
	if err != nil {
		return Result{}, Failed, err
	}
	return Result{Kind: KindChart, Chart: art}, Handled, nil
}

// showAllHandler answers "show all"/"list all" questions that name both a
// column and one of its values.
type showAllHandler struct{}

func (showAllHandler) Name() string { return IntentShowAll }

func (showAllHandler) Match(q string) bool {
	return containsAny(q, "show all", "list all")
}

func (showAllHandler) Handle(req *Request) (Result, Outcome, error) {
	t := req.Table
	for _, c := range t.Columns() {
		if !req.Resolver.Mentions(req.Query, c.Name) {
			continue
		}
		for _, v := range c.Distinct() {
			if !req.Resolver.Mentions(req.Query, v) {
				continue
			}
			rows := t.Where(c, v)
			if len(rows) == 0 {
				return textResult(fmt.Sprintf("No rows found with %s = '%s'.", c.Name, v)), Handled, nil
			}
			return rowsResult(t.Select(rows)), Handled, nil
		}
	}
	return Result{}, Declined, nil
}
