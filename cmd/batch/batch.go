// Package batch provides the "sheetchat batch" command, which runs YAML
// question files against their workbooks.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/sheetchat/internal/app"
	batchpkg "github.com/klytics/sheetchat/internal/batch"
	"github.com/klytics/sheetchat/internal/config"
	"github.com/klytics/sheetchat/internal/output"
	"github.com/klytics/sheetchat/internal/progress"
)

type suiteOutcome struct {
	File   string           `json:"file"`
	Report *batchpkg.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		concurrency int
		ov          app.Overrides
	)

	cmd := &cobra.Command{
		Use:   "batch <questions.yaml> [questions.yaml...]",
		Short: "Run question files against their workbooks",
		Long: `Runs every question in one or more YAML question files and checks each
answer against its expectations.

Question file:
  name: monthly-sales
  workbook: sales.xlsx
  sheet: Sales
  questions:
    - id: avg
      ask: what is the average sales
      expect_kind: text
      expect_text: "sales:"

The command fails when any question fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
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

			suites := make([]*batchpkg.Suite, len(args))
			total := 0
			for i, path := range args {
				s, err := batchpkg.LoadSuite(path)
				if err != nil {
					return err
				}
				suites[i] = s
				total += len(s.Questions)
			}

			bar := progress.New("Asking", total)
			store := app.HistoryStore(cfg)
			outcomes := make([]suiteOutcome, len(suites))

			runSuite := func(ctx context.Context, idx int) {
				runner := batchpkg.NewRunner(engine, app.Logger("batch", verbose))
				runner.OnResult = func(res batchpkg.Result) {
					bar.Step(res.ID, res.Passed)
					if res.Answer != nil {
						app.Record(store, res.Ask, *res.Answer, nil, timeAgo(res.DurationMs))
					}
				}
				rep, err := runner.Run(ctx, suites[idx])
				outcomes[idx] = suiteOutcome{File: args[idx], Report: rep}
				if err != nil {
					outcomes[idx].Error = err.Error()
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			if concurrency < 1 {
				concurrency = 1
			}
			g.SetLimit(concurrency)
			for i := range suites {
				idx := i
				g.Go(func() error {
					runSuite(ctx, idx)
					return nil
				})
			}
			g.Wait()

			passed, failed, broken := 0, 0, 0
			for _, o := range outcomes {
				if o.Report != nil {
					passed += o.Report.Passed
					failed += o.Report.Failed
				}
				if o.Error != "" {
					broken++
				}
			}
			bar.Finish(fmt.Sprintf("%d passed, %d failed", passed, failed))

			if format == output.FormatJSON {
				if err := output.WriteJSONResult(cmd.OutOrStdout(), "batch", outcomes); err != nil {
					return err
				}
			} else {
				printOutcomes(cmd, outcomes)
			}

			if failed > 0 || broken > 0 {
				return fmt.Errorf("%d question(s) failed, %d file(s) stopped early", failed, broken)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of question files run in parallel")
	cmd.Flags().StringVar(&ov.Policy, "policy", "", "Fallthrough policy: strict | lenient")
	cmd.Flags().StringVar(&ov.Matcher, "matcher", "", "Column matching: substring | word")
	cmd.Flags().StringVar(&ov.ChartsDir, "charts-dir", "", "Directory for chart images")

	return cmd
}

func printOutcomes(cmd *cobra.Command, outcomes []suiteOutcome) {
	out := cmd.OutOrStdout()
	header := color.New(color.Bold, color.FgCyan)
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	for _, o := range outcomes {
		header.Fprintf(out, "%s\n", filepath.Base(o.File))
		if o.Report != nil {
			for _, r := range o.Report.Results {
				switch {
				case r.Error != "":
					fail.Fprintf(out, "  ✗ %s: %s\n", r.ID, r.Error)
				case r.Passed:
					pass.Fprintf(out, "  ✓ %s", r.ID)
					fmt.Fprintf(out, " (%s, %dms)\n", r.Intent, r.DurationMs)
				default:
					fail.Fprintf(out, "  ✗ %s: %s\n", r.ID, r.Mismatch)
				}
			}
			fmt.Fprintf(out, "  %d passed, %d failed\n", o.Report.Passed, o.Report.Failed)
		}
		if o.Error != "" {
			fail.Fprintf(out, "  stopped: %s\n", o.Error)
		}
	}
}

func timeAgo(ms int64) time.Time {
	return time.Now().Add(-time.Duration(ms) * time.Millisecond)
}
