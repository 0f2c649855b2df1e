package xlsx

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSVFile loads a CSV file as a single-sheet workbook named after the file.
func ReadCSVFile(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	wb, err := ReadCSV(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	wb.Path = path
	return wb, nil
}

// ReadCSV parses CSV data into a single-sheet workbook. Ragged rows are allowed.
func ReadCSV(r io.Reader, sheetName string) (*Workbook, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return &Workbook{Sheets: []Sheet{{Name: sheetName, Rows: rows}}}, nil
}

// WriteCSV writes the sheet rows as CSV.
func (s *Sheet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(s.Rows); err != nil {
		return fmt.Errorf("could not write CSV: %w", err)
	}
	return nil
}

// ToCSV converts a sheet's data to CSV text.
func (s *Sheet) ToCSV() string {
	var buf bytes.Buffer
	_ = s.WriteCSV(&buf)
	return buf.String()
}
