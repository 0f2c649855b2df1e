package table

import "strings"

// Record is a single row as column-name-to-value pairs. Values are float64,
// string, or nil for empty cells.
type Record map[string]any

// ColumnInfo describes a column of a RowSet.
type ColumnInfo struct {
	Name     string `json:"name"`
	Original string `json:"original"`
	Kind     Kind   `json:"kind"`
}

// RowSet is an ordered selection of rows from a table.
type RowSet struct {
	Columns []ColumnInfo `json:"columns"`
	Records []Record     `json:"records"`

	cells [][]string
}

// Len returns the number of records.
func (rs *RowSet) Len() int {
	return len(rs.Records)
}

// Headers returns the column headers, either the original sheet headers or
// the working names.
func (rs *RowSet) Headers(original bool) []string {
	out := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		if original {
			out[i] = c.Original
		} else {
			out[i] = c.Name
		}
	}
	return out
}

// Cells returns each record's stringified values in column order.
func (rs *RowSet) Cells() [][]string {
	return rs.cells
}

// OriginalRecords re-keys every record by original header.
func (rs *RowSet) OriginalRecords() []map[string]any {
	out := make([]map[string]any, len(rs.Records))
	for i, rec := range rs.Records {
		m := make(map[string]any, len(rs.Columns))
		for _, c := range rs.Columns {
			m[c.Original] = rec[c.Name]
		}
		out[i] = m
	}
	return out
}

// Select materializes the given row indices as a RowSet.
func (t *Table) Select(indices []int) *RowSet {
	rs := &RowSet{
		Columns: make([]ColumnInfo, len(t.cols)),
		Records: make([]Record, 0, len(indices)),
		cells:   make([][]string, 0, len(indices)),
	}
	for j, c := range t.cols {
		rs.Columns[j] = ColumnInfo{Name: c.Name, Original: c.Original, Kind: c.Kind}
	}
	for _, i := range indices {
		rec := make(Record, len(t.cols))
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			rec[c.Name] = c.Value(i)
			row[j] = c.String(i)
		}
		rs.Records = append(rs.Records, rec)
		rs.cells = append(rs.cells, row)
	}
	return rs
}

// Head returns the first n rows (all rows when n <= 0).
func (t *Table) Head(n int) *RowSet {
	if n <= 0 || n > t.rows {
		n = t.rows
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return t.Select(indices)
}

// Where returns the indices of rows whose stringified value in c equals value,
// compared case-insensitively.
func (t *Table) Where(c *Column, value string) []int {
	value = strings.ToLower(value)
	var out []int
	for i := 0; i < c.Len(); i++ {
		if strings.ToLower(c.String(i)) == value {
			out = append(out, i)
		}
	}
	return out
}

// Distinct returns the distinct lowercased stringified values of c in
// first-appearance order, skipping empty cells.
func (c *Column) Distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < c.Len(); i++ {
		v := strings.ToLower(c.String(i))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// HasValue reports whether any cell of c equals value case-insensitively.
func (c *Column) HasValue(value string) bool {
	value = strings.ToLower(value)
	for i := 0; i < c.Len(); i++ {
		if strings.ToLower(c.String(i)) == value {
			return true
		}
	}
	return false
}
