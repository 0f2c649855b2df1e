// Package table holds the in-memory, column-oriented view of a loaded sheet
// that questions are evaluated against.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind int

const (
	// KindText columns hold arbitrary strings.
	KindText Kind = iota
	// KindNumeric columns hold float64 values with nulls for empty cells.
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// MarshalText lets Kind appear as "numeric"/"text" in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is a single named column. Name is the working (normalized) identifier,
// Original is the header as it appeared in the file.
type Column struct {
	Name     string
	Original string
	Kind     Kind

	text []string
	nums []float64
	null []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.null)
}

// IsNumeric reports whether the column was inferred as numeric.
func (c *Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// IsNull reports whether cell i is empty.
func (c *Column) IsNull(i int) bool {
	return c.null[i]
}

// Float returns the numeric value of cell i. ok is false for text columns and nulls.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.Kind != KindNumeric || c.null[i] {
		return 0, false
	}
	return c.nums[i], true
}

// String returns the stringified value of cell i. Nulls stringify to "".
func (c *Column) String(i int) string {
	if c.null[i] {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(c.nums[i])
	}
	return c.text[i]
}

// Value returns cell i as float64, string, or nil for nulls.
func (c *Column) Value(i int) any {
	if c.null[i] {
		return nil
	}
	if c.Kind == KindNumeric {
		return c.nums[i]
	}
	return c.text[i]
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if !c.null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is a set of equally long columns loaded from one sheet.
type Table struct {
	Name string

	cols       []*Column
	rows       int
	normalized bool
}

// New builds a table from a header row and data rows. Short rows are padded
// with empty cells, cells beyond the header are ignored and fully blank rows
// are dropped. Column kinds are inferred from the cell text.
func New(name string, header []string, rows [][]string) *Table {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !blank(row) {
			kept = append(kept, row)
		}
	}

	t := &Table{Name: name, rows: len(kept)}
	used := make(map[string]bool, len(header))
	for j, h := range header {
		original := strings.TrimSpace(h)
		if original == "" {
			original = fmt.Sprintf("Unnamed: %d", j)
		}
		original = uniqueHeader(original, used)
		cells := make([]string, len(kept))
		for i, row := range kept {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		col := buildColumn(cells)
		col.Name = original
		col.Original = original
		t.cols = append(t.cols, col)
	}
	return t
}

// uniqueHeader suffixes repeated headers as "Sales.1", "Sales.2" and marks
// the result as used.
func uniqueHeader(h string, used map[string]bool) string {
	name := h
	for n := 1; used[name]; n++ {
		name = fmt.Sprintf("%s.%d", h, n)
	}
	used[name] = true
	return name
}

func buildColumn(cells []string) *Column {
	col := &Column{
		text: cells,
		null: make([]bool, len(cells)),
	}

	nums := make([]float64, len(cells))
	numeric, seen := true, false
	for i, cell := range cells {
		if cell == "" {
			col.null[i] = true
			continue
		}
		seen = true
		v, ok := parseNumber(cell)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = v
	}

	if numeric && seen {
		col.Kind = KindNumeric
		col.nums = nums
		col.text = nil
	}
	return col
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.rows
}

// Columns returns the columns in sheet order.
func (t *Table) Columns() []*Column {
	return t.cols
}

// Names returns the working column names in sheet order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by its exact working name. Returns nil when absent.
func (t *Table) Column(name string) *Column {
	for _, c := range t.cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NumericColumns returns the numeric columns in sheet order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// ColumnMap maps each working column name to its original header.
func (t *Table) ColumnMap() map[string]string {
	m := make(map[string]string, len(t.cols))
	for _, c := range t.cols {
		m[c.Name] = c.Original
	}
	return m
}

// FormatNumber prints v in its shortest round-trip form ("300", "1234.5").
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
