// Package output renders answers, tables and errors for the terminal or
// for machine consumption.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/klytics/sheetchat/internal/query"
	sheettable "github.com/klytics/sheetchat/internal/table"
)

// Format represents an output format.
type Format string

const (
	// FormatText is colored text with tables drawn as boxes.
	FormatText Format = "text"
	// FormatJSON wraps results in the standard JSON envelope.
	FormatJSON Format = "json"
	// FormatCSV prints row results as CSV; other results print as text.
	FormatCSV Format = "csv"
)

// ParseFormat validates an output format name from flags or config.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("invalid output format %q — expected text, json or csv", s)
}

// Writer handles formatted output to a destination.
type Writer struct {
	dest    io.Writer
	format  Format
	maxRows int
}

// NewWriter creates a writer for dest. maxRows caps how many rows a text
// table shows; zero or less shows everything.
func NewWriter(dest io.Writer, format Format, maxRows int) *Writer {
	if dest == nil {
		dest = os.Stdout
	}
	return &Writer{dest: dest, format: format, maxRows: maxRows}
}

// Format returns the writer's output format.
func (w *Writer) Format() Format {
	return w.format
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteResult prints one answer. command names the CLI command for the JSON
// envelope.
func (w *Writer) WriteResult(command string, res query.Result) error {
	switch w.format {
	case FormatJSON:
		return WriteJSONResult(w.dest, command, ResultData(res))
	case FormatCSV:
		if res.Kind == query.KindRows && res.Rows != nil {
			sheet := res.Rows.Sheet("Results")
			return sheet.WriteCSV(w.dest)
		}
	}

	switch res.Kind {
	case query.KindRows:
		return w.WriteRows(res.Rows)
	case query.KindChart:
		if res.Chart == nil {
			return w.WriteLn("")
		}
		ok := color.New(color.FgGreen)
		ok.Fprintf(w.dest, "Chart saved to %s\n", res.Chart.Path)
		return nil
	default:
		style := color.New(color.Reset)
		if res.Intent == query.IntentFallback {
			style = color.New(color.FgYellow)
		}
		_, err := style.Fprintln(w.dest, res.Text)
		return err
	}
}

// WriteRows draws rs as a box table with the sheet's original headers,
// truncated to the writer's row limit.
func (w *Writer) WriteRows(rs *sheettable.RowSet) error {
	dim := color.New(color.FgHiBlack)
	if rs == nil || rs.Len() == 0 {
		dim.Fprintln(w.dest, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w.dest)
	t.SetStyle(table.StyleLight)

	headers := rs.Headers(true)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	t.AppendHeader(header)

	cells := rs.Cells()
	shown := len(cells)
	if w.maxRows > 0 && shown > w.maxRows {
		shown = w.maxRows
	}
	for _, cellRow := range cells[:shown] {
		row := make(table.Row, len(cellRow))
		for i, c := range cellRow {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()

	if shown < len(cells) {
		dim.Fprintf(w.dest, "(%d rows, showing first %d)\n", len(cells), shown)
	} else {
		dim.Fprintf(w.dest, "(%d rows)\n", len(cells))
	}
	return nil
}

// SchemaColumn is one row of a table's column listing.
type SchemaColumn struct {
	Name     string `json:"name"`
	Original string `json:"original"`
	Kind     string `json:"kind"`
	NonEmpty int    `json:"nonEmpty"`
}

// Schema describes the columns of t in order.
func Schema(t *sheettable.Table) []SchemaColumn {
	cols := t.Columns()
	out := make([]SchemaColumn, len(cols))
	for i, c := range cols {
		n := 0
		for j := 0; j < c.Len(); j++ {
			if !c.IsNull(j) {
				n++
			}
		}
		out[i] = SchemaColumn{Name: c.Name, Original: c.Original, Kind: c.Kind.String(), NonEmpty: n}
	}
	return out
}

// WriteSchema lists the columns of t with their working names and types.
func (w *Writer) WriteSchema(t *sheettable.Table) error {
	if w.format == FormatJSON {
		return w.WriteJSON(Schema(t))
	}

	header := color.New(color.Bold, color.FgCyan)
	header.Fprintf(w.dest, "Sheet: %s (%d rows)\n", t.Name, t.Len())

	tw := table.NewWriter()
	tw.SetOutputMirror(w.dest)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Column", "Header", "Type", "Non-empty"})
	for _, c := range Schema(t) {
		tw.AppendRow(table.Row{c.Name, c.Original, c.Kind, c.NonEmpty})
	}
	tw.Render()
	return nil
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...any) {
	FprintError(os.Stderr, format, args...)
}

// FprintError writes an error message to w.
func FprintError(w io.Writer, format string, args ...any) {
	red := color.New(color.FgRed)
	red.Fprintf(w, "Error: "+format+"\n", args...)
}
