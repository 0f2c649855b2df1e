// Package read provides the "sheetchat read" preview command.
package read

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/app"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/formats/xlsx"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/table"
)

type preview struct {
	Sheet   string                `json:"sheet"`
	Sheets  []string              `json:"sheets"`
	Rows    int                   `json:"rows"`
	Columns []output.SchemaColumn `json:"columns"`
	Head    []map[string]any      `json:"head"`
}

// NewCommand returns the read subcommand.
func NewCommand() *cobra.Command {
	var (
		sheetName string
		csvOutput bool
		head      int
	)

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Preview a spreadsheet with inferred column types",
		Long:  "Reads an .xlsx or .csv file and shows its columns, their inferred types and the first rows. Pass '-' to read .xlsx data from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			format, err := app.OutputFormat(cmd, cfg)
			if err != nil {
				return err
			}

			var wb *xlsx.Workbook
			if len(args) == 0 || args[0] == "-" {
				data, readErr := io.ReadAll(os.Stdin)
				if readErr != nil {
					return fmt.Errorf("could not read from stdin: %w", readErr)
				}
				if len(data) == 0 {
					return fmt.Errorf("no input provided — pass a spreadsheet path or pipe .xlsx data to stdin")
				}
				wb, err = xlsx.ReadBytes(data)
			} else {
				wb, err = xlsx.Open(args[0])
			}
			if err != nil {
				return err
			}

			sheet, err := wb.GetSheet(sheetName)
			if err != nil {
				return err
			}
			if csvOutput || format == output.FormatCSV {
				return sheet.WriteCSV(cmd.OutOrStdout())
			}

			t, err := table.FromSheet(sheet)
			if err != nil {
				return err
			}

			if format == output.FormatJSON {
				return output.WriteJSONResult(cmd.OutOrStdout(), "read", preview{
					Sheet:   t.Name,
					Sheets:  wb.SheetNames(),
					Rows:    t.Len(),
					Columns: output.Schema(t),
					Head:    t.Head(head).OriginalRecords(),
				})
			}

			var buf bytes.Buffer
			w := output.NewWriter(&buf, format, 0)
			if err := w.WriteSchema(t); err != nil {
				return err
			}
			buf.WriteString("\n")
			if err := w.WriteRows(t.Head(head)); err != nil {
				return err
			}
			return output.Emit(cmd.OutOrStdout(), buf.String())
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Read the named sheet (default: first sheet)")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Output the sheet as CSV")
	cmd.Flags().IntVar(&head, "head", 10, "Number of rows to preview")

	return cmd
}
