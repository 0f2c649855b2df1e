package table

import (
	"fmt"

	"github.com/klytics/sheetchat/internal/formats/xlsx"
)

// FromSheet builds a normalized table from a worksheet, treating the first row
// as the header.
func FromSheet(s *xlsx.Sheet) (*Table, error) {
	header := s.Header()
	if len(header) == 0 {
		return nil, fmt.Errorf("sheet %q is empty — the first row must hold column headers", s.Name)
	}
	t := New(s.Name, header, s.DataRows())
	t.Normalize()
	return t, nil
}

// Load opens a spreadsheet and builds a table from the named sheet
// (the first sheet when sheet is empty).
func Load(path, sheet string) (*Table, error) {
	wb, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	return FromWorkbook(wb, sheet)
}

// FromWorkbook builds a table from the named sheet of an already read workbook.
func FromWorkbook(wb *xlsx.Workbook, sheet string) (*Table, error) {
	s, err := wb.GetSheet(sheet)
	if err != nil {
		return nil, err
	}
	return FromSheet(s)
}
