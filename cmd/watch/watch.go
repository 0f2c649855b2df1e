// Package watch provides the "sheetchat watch" command, which re-asks a
// question every time a workbook changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetchat/internal/app"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/table"
	w "github.com/klytics/sheetchat/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		sheet    string
		debounce int
		ov       app.Overrides
	)

	cmd := &cobra.Command{
		Use:   "watch <file> <question...>",
		Short: "Re-answer a question whenever a workbook changes",
		Long: `Answers a question, then watches the workbook and answers again after
every save.

Example:
  sheetchat watch sales.xlsx "total sales"`,
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
			engine, err := app.NewEngine(cfg, ov, verbose)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.Watch.DebounceMS
			}

			out := output.NewWriter(cmd.OutOrStdout(), format, cfg.Output.MaxRows)
			dim := color.New(color.FgHiBlack)
			answer := func(ctx context.Context) error {
				t, err := table.Load(path, sheet)
				if err != nil {
					return err
				}
				res, err := engine.Ask(ctx, t, question)
				if err != nil {
					return err
				}
				if format != output.FormatJSON {
					dim.Fprintf(cmd.OutOrStdout(), "--- %s ---\n", time.Now().Format("15:04:05"))
				}
				return out.WriteResult("watch", res)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := answer(ctx); err != nil {
				return err
			}

			watcher, err := w.New([]string{path}, time.Duration(debounce)*time.Millisecond, func(string) error {
				return answer(ctx)
			})
			if err != nil {
				return err
			}
			if !verbose {
				watcher.Logger = app.Logger("watch", false)
			}
			fmt.Fprintln(os.Stderr, "Watching for changes. Press Ctrl+C to stop")
			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to query (default: first sheet)")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Debounce interval in milliseconds")
	cmd.Flags().StringVar(&ov.Policy, "policy", "", "Fallthrough policy: strict | lenient")
	cmd.Flags().StringVar(&ov.Matcher, "matcher", "", "Column matching: substring | word")
	cmd.Flags().StringVar(&ov.ChartsDir, "charts-dir", "", "Directory for chart images")
	return cmd
}
