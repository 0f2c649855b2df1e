// Package ask provides the one-shot "sheetchat ask" command.
package ask

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/app"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/progress"
	"github.com/klytics/sheetchat/internal/query"
	"github.com/klytics/sheetchat/internal/table"
)

// NewCommand returns the ask subcommand.
func NewCommand() *cobra.Command {
	var (
		sheet    string
		ov       app.Overrides
		exportTo string
	)

	cmd := &cobra.Command{
		Use:   "ask <file> <question...>",
		Short: "Ask one question about a spreadsheet",
		Long: `Loads a workbook, answers one question and exits.

Examples:
  sheetchat ask sales.xlsx "what is the average sales"
  sheetchat ask sales.xlsx show all from east --export east.csv
  sheetchat ask sales.csv "bar chart of sales by region" --charts-dir ./out`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			path := args[0]
			question := strings.Join(args[1:], " ")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			format, err := app.OutputFormat(cmd, cfg)
			if err != nil {
				return err
			}
			fail := func(err error, code int) error {
				if format == output.FormatJSON {
					writeJSONFailure(cmd.OutOrStdout(), cmd.ErrOrStderr(), err, code)
					os.Exit(code)
				}
				return err
			}

			engine, err := app.NewEngine(cfg, ov, verbose)
			if err != nil {
				return fail(err, output.ExitUserError)
			}

			spin := progress.NewSpinner("Loading " + filepath.Base(path))
			spin.Start()
			t, err := table.Load(path, sheet)
			spin.Stop("")
			if err != nil {
				return fail(err, output.ExitUserError)
			}

			start := time.Now()
			res, err := engine.Ask(cmd.Context(), t, question)
			app.Record(app.HistoryStore(cfg), question, res, err, start)
			if err != nil {
				return fail(err, output.ExitSystemError)
			}

			if exportTo != "" {
				if res.Kind != query.KindRows {
					return fail(fmt.Errorf("--export needs a question that returns rows, got a %s answer", res.Kind), output.ExitUserError)
				}
				if err := res.Rows.Export(exportTo); err != nil {
					return fail(err, output.ExitSystemError)
				}
				if format != output.FormatJSON {
					fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", res.Rows.Len(), exportTo)
				}
			}

			w := output.NewWriter(cmd.OutOrStdout(), format, cfg.Output.MaxRows)
			return w.WriteResult("ask", res)
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to query (default: first sheet)")
	cmd.Flags().StringVar(&ov.Policy, "policy", "", "Fallthrough policy: strict | lenient")
	cmd.Flags().StringVar(&ov.Matcher, "matcher", "", "Column matching: substring | word")
	cmd.Flags().StringVar(&ov.ChartsDir, "charts-dir", "", "Directory for chart images")
	cmd.Flags().StringVar(&ov.Naming, "chart-naming", "", "Chart file naming: fixed | unique")
	cmd.Flags().StringVar(&exportTo, "export", "", "Also write row answers to a .xlsx or .csv file")

	return cmd
}

// writeJSONFailure writes the error envelope to out. When that fails the
// error is reported on errOut instead.
func writeJSONFailure(out, errOut io.Writer, err error, code int) {
	if werr := output.WriteJSONError(out, "ask", err, code); werr != nil {
		output.FprintError(errOut, "%s (while reporting: %s)", werr, err)
	}
}
