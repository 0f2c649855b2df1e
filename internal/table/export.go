package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klytics/sheetchat/internal/formats/xlsx"
)

// Sheet converts the row set back into a worksheet with original headers.
func (rs *RowSet) Sheet(name string) xlsx.Sheet {
	rows := make([][]string, 0, len(rs.cells)+1)
	rows = append(rows, rs.Headers(true))
	rows = append(rows, rs.cells...)
	return xlsx.Sheet{Name: name, Rows: rows}
}

// Export writes the row set to path as .xlsx or .csv, chosen by extension.
func (rs *RowSet) Export(path string) error {
	sheet := rs.Sheet("Results")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsx.WriteFile(&xlsx.Workbook{Sheets: []xlsx.Sheet{sheet}}, path)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create %s: %w", path, err)
		}
		if err := sheet.WriteCSV(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("cannot export to %q — use a .xlsx or .csv path", path)
	}
}
