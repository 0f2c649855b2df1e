// Package xlsx reads and writes the spreadsheet files that questions are asked against.
package xlsx

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet represents a single worksheet's raw cell text.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook represents a parsed spreadsheet file with all its sheets.
type Workbook struct {
	Path   string  `json:"path,omitempty"`
	Sheets []Sheet `json:"sheets"`
}

// Open reads a workbook from disk, choosing the decoder from the file extension.
// .xlsx/.xlsm go through excelize, .csv through the CSV reader.
func Open(path string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadFile(path)
	case ".csv":
		return ReadCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q — expected .xlsx or .csv", filepath.Ext(path))
	}
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s — is this a valid .xlsx file? %w", path, err)
	}
	defer f.Close()

	wb, err := readWorkbook(f)
	if err != nil {
		return nil, err
	}
	wb.Path = path
	return wb, nil
}

// ReadBytes reads an .xlsx file from a byte slice and returns its structured data.
func ReadBytes(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}
	dates := &dateFormats{f: f, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		dates.date1904 = *props.Date1904
	}

	for _, name := range f.GetSheetList() {
		// Raw values keep numbers parseable regardless of the cell's number format.
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		dates.apply(name, rows)
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}

	return wb, nil
}

// dateFormats rewrites date-formatted serial numbers as ISO dates so they
// load as text rather than as summable numbers.
type dateFormats struct {
	f        *excelize.File
	date1904 bool
	styles   map[int]bool
}

// Built-in number formats that render as dates or times.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func (d *dateFormats) apply(sheet string, rows [][]string) {
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			serial, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			id, err := d.f.GetCellStyle(sheet, cell)
			if err != nil || id == 0 || !d.isDate(id) {
				continue
			}
			if text, ok := formatSerial(serial, d.date1904); ok {
				row[c] = text
			}
		}
	}
}

func (d *dateFormats) isDate(id int) bool {
	if v, ok := d.styles[id]; ok {
		return v
	}
	date := false
	if style, err := d.f.GetStyle(id); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			date = isDatePattern(*style.CustomNumFmt)
		} else {
			date = builtinDateFormats[style.NumFmt]
		}
	}
	d.styles[id] = date
	return date
}

// isDatePattern reports whether a custom number format contains date or
// time tokens outside quoted literals and bracketed sections.
func isDatePattern(format string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	plain := b.String()
	if strings.ContainsAny(plain, "yd") {
		return true
	}
	return strings.Contains(plain, "h") && strings.Contains(plain, ":")
}

func formatSerial(serial float64, date1904 bool) (string, bool) {
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	t = t.Round(time.Second)
	switch {
	case serial < 1:
		return t.Format("15:04:05"), true
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0:
		return t.Format("2006-01-02"), true
	default:
		return t.Format("2006-01-02 15:04:05"), true
	}
}

// GetSheet returns a specific sheet by name. An empty name selects the first sheet.
func (wb *Workbook) GetSheet(name string) (*Sheet, error) {
	if name == "" {
		if len(wb.Sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		return &wb.Sheets[0], nil
	}

	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}

	return nil, fmt.Errorf("sheet %q not found — available sheets: %v", name, wb.SheetNames())
}

// SheetNames lists the sheet names in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

// Header returns the first row, which is treated as column headers.
func (s *Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRows returns every row after the header.
func (s *Sheet) DataRows() [][]string {
	if len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// RowCount returns the number of data rows that carry at least one non-empty cell.
func (s *Sheet) RowCount() int {
	count := 0
	for _, row := range s.DataRows() {
		if !IsBlankRow(row) {
			count++
		}
	}
	return count
}

// IsBlankRow reports whether every cell in row is empty after trimming.
func IsBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
